/*
importer.go - Equipment roster import from CSV and Excel files

PURPOSE:
  Reads a spreadsheet listing laboratory equipment and turns it into
  classified maintenance.ImportedEquipment rows. Headers are matched
  loosely (accents, case and punctuation are ignored) against the aliases
  in aliases.go.

FORMATS:
  .xlsx / .xlsm     first sheet, read with excelize (date cells arrive as
                    serial numbers and are converted)
  .csv / .txt       UTF-8 (with or without BOM), UTF-16 with BOM or
                    Windows-1252; ',' or ';' delimited

FLOW:
  raw rows -> canonical header row -> gota DataFrame (all string columns)
  -> ImportedEquipment (trimmed, typed, classified)

SEE ALSO:
  - maintenance/status.go: ClassifyImported
  - maintenance/session.go: where imported rows are kept
*/
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"github.com/warp/maintenance-plan/maintenance"
)

// ErrUnsupportedFormat is returned for file extensions the importer cannot read.
var ErrUnsupportedFormat = fmt.Errorf("unsupported roster format: %w", maintenance.ErrInvalidInput)

// =============================================================================
// ENTRY POINTS
// =============================================================================

// ReadFile imports the roster at path, classifying rows as of today.
func ReadFile(path string, today time.Time) ([]maintenance.ImportedEquipment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &maintenance.InputError{Field: "path", Value: path, Message: err.Error()}
	}
	defer f.Close()
	return Read(f, filepath.Base(path), today)
}

// Read imports a roster from r. name is only used to pick the format from
// its extension.
func Read(r io.Reader, name string, today time.Time) ([]maintenance.ImportedEquipment, error) {
	var (
		rows        [][]string
		serialDates bool
		err         error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(r)
		serialDates = true
	case ".csv", ".txt":
		rows, err = readDelimited(r)
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	out, err := fromRows(rows, today, serialDates)
	if err != nil {
		return nil, err
	}
	log.Printf("[Import] Read %d rows from %s", len(out), name)
	return out, nil
}

// =============================================================================
// SOURCE READERS
// =============================================================================

func readWorkbook(r io.Reader) ([][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &maintenance.InputError{Field: "file", Message: "not a readable workbook: " + err.Error()}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &maintenance.InputError{Field: "file", Message: "workbook has no sheets"}
	}
	rows, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &maintenance.InputError{Field: "file", Message: err.Error()}
	}
	return rows, nil
}

func readDelimited(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &maintenance.InputError{Field: "file", Message: err.Error()}
	}
	data, err := decodeText(raw)
	if err != nil {
		return nil, &maintenance.InputError{Field: "file", Message: err.Error()}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &maintenance.InputError{Field: "file", Message: "malformed CSV: " + err.Error()}
	}
	return rows, nil
}

// =============================================================================
// ROW MAPPING
// =============================================================================

// canonicalHeader renames recognised headers to their canonical column and
// gives every other (or repeated) header a unique placeholder, so the frame
// never carries duplicate column names.
func canonicalHeader(header []string) (names []string, missing []string) {
	names = make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		c := Canonical(h)
		if c == "" || seen[c] {
			names[i] = "_ignored_" + strconv.Itoa(i)
			continue
		}
		seen[c] = true
		names[i] = c
	}
	for _, col := range RequiredColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	return names, missing
}

func fromRows(rows [][]string, today time.Time, serialDates bool) ([]maintenance.ImportedEquipment, error) {
	if len(rows) == 0 {
		return nil, &maintenance.MissingColumnsError{Columns: append([]string(nil), RequiredColumns...)}
	}

	header, missing := canonicalHeader(rows[0])
	if len(missing) > 0 {
		return nil, &maintenance.MissingColumnsError{Columns: missing}
	}
	if len(rows) == 1 {
		return []maintenance.ImportedEquipment{}, nil
	}

	records := make([][]string, 0, len(rows))
	records = append(records, header)
	for _, row := range rows[1:] {
		records = append(records, pad(row, len(header)))
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	).Select(RequiredColumns)
	if df.Err != nil {
		return nil, &maintenance.InputError{Field: "file", Message: df.Err.Error()}
	}

	out := make([]maintenance.ImportedEquipment, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		get := func(col string) string { return cell(df, col, i) }

		e := maintenance.ImportedEquipment{
			Row:         i,
			Equipment:   get(ColEquipment),
			Brand:       get(ColBrand),
			Model:       get(ColModel),
			Code:        get(ColCode),
			Location:    get(ColLocation),
			Responsible: get(ColResponsible),
		}
		freqText := get(ColFrequencyMonths)
		lastText := get(ColLastMaintenance)

		if e.Equipment == "" && e.Brand == "" && e.Model == "" && e.Code == "" &&
			e.Location == "" && e.Responsible == "" && freqText == "" && lastText == "" {
			continue
		}

		if n, ok := maintenance.ParseFrequency(freqText); ok {
			e.FrequencyMonths = &n
		}
		if last, ok := parseLastMaintenance(lastText, serialDates); ok {
			s := maintenance.FormatDate(last)
			e.LastMaintenance = &s
		}
		e.Status = maintenance.ClassifyImported(today, e)
		out = append(out, e)
	}
	return out, nil
}

func cell(df dataframe.DataFrame, col string, row int) string {
	el := df.Col(col).Elem(row)
	if el.IsNA() {
		return ""
	}
	return strings.TrimSpace(el.String())
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// parseLastMaintenance accepts text dates and, for workbooks, Excel serial
// day numbers.
func parseLastMaintenance(s string, serialDates bool) (time.Time, bool) {
	if t, ok := maintenance.ParseDate(s); ok {
		return t, true
	}
	if !serialDates {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return maintenance.Midnight(t), true
}
