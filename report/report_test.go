package report_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/maintenance-plan/maintenance"
	"github.com/warp/maintenance-plan/maintenance/store"
	"github.com/warp/maintenance-plan/report"
)

func rec(equipment, location, responsible, date string) maintenance.Record {
	return maintenance.Record{
		Equipment:     equipment,
		Location:      location,
		Responsible:   responsible,
		TentativeDate: date,
	}
}

// =============================================================================
// ESCAPING AND LABELS
// =============================================================================

func TestEscape(t *testing.T) {
	assert.Equal(t, `50\% \& \#1\_\{test\}`, report.Escape("50% & #1_{test}"))
	assert.Equal(t, `\$5 \textasciitilde{} x\textasciicircum{}2 \textbackslash{}n`, report.Escape(`$5 ~ x^2 \n`))
	assert.Equal(t, "Centrífuga", report.Escape("Centrífuga"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "tab:plan_mant_lab_1", report.Label("Lab 1"))
	assert.Equal(t, "tab:plan_mant_lab_qu_mica", report.Label("  Lab. Química  "))
	assert.Equal(t, "tab:plan_mant_lab", report.Label(""))
	assert.Equal(t, "tab:plan_mant_lab", report.Label("---"))
}

// =============================================================================
// TABLES
// =============================================================================

func TestTables_GroupsByEquipmentAndResponsible(t *testing.T) {
	// GIVEN: Two centrifuges in Lab1 handled by Tech A on different dates
	records := []maintenance.Record{
		rec("Centrifuge", "Lab1", "Tech A", "15/03/2026"),
		rec("Centrifuge", "Lab1", "Tech A", "10/02/2026"),
	}

	// WHEN: Rendering tables
	out := report.Tables(records)

	// THEN: One group row spans both dates, sorted
	expected := strings.Join([]string{
		`\begin{table}[htbp]`,
		`    \centering`,
		`    \caption{Plan de mantenimiento preventivo de equipos / Lab1}`,
		`    \label{tab:plan_mant_lab1}`,
		`    {\footnotesize`,
		`    \begin{tabular}{p{3.9cm}p{1.3cm}p{3.0cm}p{4.0cm}p{1.5cm}}`,
		`        \toprule`,
		`        \textbf{Equipo} & \textbf{Cantidad} & \textbf{Ubicación} & \textbf{Responsable} & \textbf{Fecha} \\`,
		`        \midrule`,
		`        \multirow{2}{*}{Centrifuge} & \multirow{2}{*}{2} & \multirow{2}{*}{Lab1} & \multirow{2}{*}{Tech A} & 10/02/2026 \\`,
		`        & & & & 15/03/2026 \\`,
		`        \bottomrule`,
		`    \end{tabular}`,
		`    }`,
		`\end{table}`,
		``,
	}, "\n")
	assert.Equal(t, expected, out)
}

func TestTables_OrderingAndDefaults(t *testing.T) {
	// GIVEN: Records across two locations, a blank responsible and a blank date
	records := []maintenance.Record{
		rec("Estufa", "Lab2", "", ""),
		rec("Balanza", "Lab1", "Tech B", "01/01/2026"),
		rec("Autoclave", "Lab1", "Tech A", "01/01/2026"),
		rec("Balanza", "Lab1", "Tech A", "01/01/2026"),
		rec("Balanza", "Lab1", "Tech A", "01/01/2026"),
	}

	// WHEN: Rendering tables
	out := report.Tables(records)

	// THEN: Locations and groups are sorted and defaults are applied
	lab1 := strings.Index(out, `\label{tab:plan_mant_lab1}`)
	lab2 := strings.Index(out, `\label{tab:plan_mant_lab2}`)
	require.True(t, lab1 >= 0 && lab2 > lab1, "Lab1 table precedes Lab2")

	autoclave := strings.Index(out, `{Autoclave}`)
	balanzaA := strings.Index(out, `\multirow{1}{*}{Balanza} & \multirow{1}{*}{2} & \multirow{1}{*}{Lab1} & \multirow{1}{*}{Tech A}`)
	balanzaB := strings.Index(out, `\multirow{1}{*}{Balanza} & \multirow{1}{*}{1} & \multirow{1}{*}{Lab1} & \multirow{1}{*}{Tech B}`)
	assert.True(t, autoclave < balanzaA && balanzaA < balanzaB, "groups sorted by equipment then responsible")

	assert.Contains(t, out, `\multirow{1}{*}{Estufa} & \multirow{1}{*}{1} & \multirow{1}{*}{Lab2} & \multirow{1}{*}{Téc. de Laboratorio} &  \\`)
	assert.Equal(t, 2, strings.Count(out, `\begin{table}`))
}

func TestTables_SavedPlanWithBlankDate(t *testing.T) {
	// GIVEN: A plan saved with a date for one unit and none for the other
	ctx := context.Background()
	mem := store.NewMemory()
	session := maintenance.NewSession(mem)
	rows := session.Load([]maintenance.ImportedEquipment{
		{Equipment: "Autoclave", Code: "EQ-10", Location: "Lab1", Responsible: "Tech A"},
		{Equipment: "Balanza", Code: "EQ-11", Location: "Lab1", Responsible: "Tech A"},
	}, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC))

	_, err := session.SavePlan(ctx, []maintenance.Assignment{
		{Key: rows[0].Key, TentativeDate: "01/02/2026"},
		{Key: rows[1].Key, TentativeDate: ""},
	})
	require.NoError(t, err)
	records, err := mem.ListAll(ctx)
	require.NoError(t, err)

	// WHEN: Rendering tables from the stored plan
	out := report.Tables(records)

	// THEN: The blank-dated unit still gets its row with an empty date cell
	assert.Contains(t, out, `\multirow{1}{*}{Autoclave} & \multirow{1}{*}{1} & \multirow{1}{*}{Lab1} & \multirow{1}{*}{Tech A} & 01/02/2026 \\`)
	assert.Contains(t, out, `\multirow{1}{*}{Balanza} & \multirow{1}{*}{1} & \multirow{1}{*}{Lab1} & \multirow{1}{*}{Tech A} &  \\`)
}

func TestTables_EscapesCells(t *testing.T) {
	out := report.Tables([]maintenance.Record{rec("pH_meter #2", "Lab & Co", "R&D", "01/01/2026")})

	assert.Contains(t, out, `\caption{Plan de mantenimiento preventivo de equipos / Lab \& Co}`)
	assert.Contains(t, out, `\label{tab:plan_mant_lab_co}`)
	assert.Contains(t, out, `{pH\_meter \#2}`)
	assert.Contains(t, out, `{R\&D}`)
}

func TestTables_Deterministic(t *testing.T) {
	records := []maintenance.Record{
		rec("B", "L2", "x", "02/01/2026"),
		rec("A", "L1", "y", "01/01/2026"),
		rec("A", "L1", "y", "03/01/2026"),
		rec("C", "L3", "z", ""),
	}
	first := report.Tables(records)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, report.Tables(records))
	}
	assert.Equal(t, "", report.Tables(nil))
}

// =============================================================================
// TEMPLATE RENDERING
// =============================================================================

func TestRender(t *testing.T) {
	tmpl := "Periodo: <<PERIODO_ACADEMICO>>\nFecha: <<FECHA_PRESENTACION>>\n% TABLAS_PLAN_MANTENIMIENTO\nFin\n"

	out, err := report.Render(tmpl, "TABLES", report.Params{Period: "agosto 2025 -- enero 2026", PresentationDate: "1 de 100%"})
	require.NoError(t, err)
	assert.Equal(t, "Periodo: agosto 2025 -- enero 2026\nFecha: 1 de 100\\%\nTABLES\nFin\n", out)
}

func TestRender_MissingPlaceholder(t *testing.T) {
	_, err := report.Render("no marker here", "TABLES", report.Params{})

	require.Error(t, err)
	assert.ErrorIs(t, err, maintenance.ErrPlaceholderMissing)
	assert.True(t, maintenance.IsTemplateError(err))
}

func TestPresentationDate(t *testing.T) {
	assert.Equal(t, "Jueves, 27 de noviembre del 2025",
		report.PresentationDate(time.Date(2025, time.November, 27, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Domingo, 1 de marzo del 2026",
		report.PresentationDate(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

// =============================================================================
// GENERATOR
// =============================================================================

func newGenerator(t *testing.T, records ...maintenance.Record) *report.Generator {
	mem := store.NewMemory()
	_, err := mem.InsertBatch(context.Background(), records)
	require.NoError(t, err)
	return report.NewGenerator(mem)
}

func writeTemplate(t *testing.T, dir, body string) string {
	path := filepath.Join(dir, "plantilla.tex")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestGenerate_WritesReport(t *testing.T) {
	// GIVEN: A plan with one record and a valid template
	dir := t.TempDir()
	gen := newGenerator(t, rec("Centrifuge", "Lab1", "Tech A", "10/02/2026"))
	tmpl := writeTemplate(t, dir, "<<PERIODO_ACADEMICO>>\n% TABLAS_PLAN_MANTENIMIENTO\n")
	output := filepath.Join(dir, "informe.tex")

	// WHEN: Generating the report
	err := gen.Generate(context.Background(), report.Request{
		TemplatePath: tmpl,
		OutputPath:   output,
		Params:       report.Params{Period: "2026-I"},
	})

	// THEN: The output holds the period and the table
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "2026-I\n\\begin{table}[htbp]"))
	assert.Contains(t, string(data), `\label{tab:plan_mant_lab1}`)
}

func TestGenerate_EmptyPlan(t *testing.T) {
	dir := t.TempDir()
	gen := newGenerator(t)
	tmpl := writeTemplate(t, dir, "% TABLAS_PLAN_MANTENIMIENTO")

	err := gen.Generate(context.Background(), report.Request{TemplatePath: tmpl, OutputPath: filepath.Join(dir, "out.tex")})
	assert.ErrorIs(t, err, maintenance.ErrNoRecords)
}

func TestGenerate_TemplateErrorsLeaveOutputUntouched(t *testing.T) {
	// GIVEN: An existing output file
	dir := t.TempDir()
	output := filepath.Join(dir, "informe.tex")
	require.NoError(t, os.WriteFile(output, []byte("previous"), 0o644))
	gen := newGenerator(t, rec("Centrifuge", "Lab1", "Tech A", "10/02/2026"))

	// WHEN: The template is missing, then lacks the marker
	errMissing := gen.Generate(context.Background(), report.Request{
		TemplatePath: filepath.Join(dir, "nope.tex"),
		OutputPath:   output,
	})
	errMarker := gen.Generate(context.Background(), report.Request{
		TemplatePath: writeTemplate(t, dir, "no marker"),
		OutputPath:   output,
	})

	// THEN: Both are template errors and the output is unchanged
	assert.True(t, maintenance.IsTemplateError(errMissing))
	assert.True(t, maintenance.IsTemplateError(errMarker))
	assert.ErrorIs(t, errMarker, maintenance.ErrPlaceholderMissing)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestGenerate_StorageFailure(t *testing.T) {
	mem := store.NewMemory()
	mem.Err = &maintenance.StorageError{Op: "list", Path: "plan.db", Err: os.ErrNotExist}

	err := report.NewGenerator(mem).Generate(context.Background(), report.Request{OutputPath: "out.tex"})
	assert.True(t, maintenance.IsStorageError(err))
}
