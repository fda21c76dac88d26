package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/maintenance-plan/maintenance"
)

// Template tokens.
const (
	PeriodToken           = "<<PERIODO_ACADEMICO>>"
	PresentationDateToken = "<<FECHA_PRESENTACION>>"
	TablesPlaceholder     = "% TABLAS_PLAN_MANTENIMIENTO"
)

// Params are the free-text values substituted into a template. Both are
// escaped before substitution.
type Params struct {
	Period           string
	PresentationDate string
}

// Render substitutes params and the table block into tmpl. The scalar
// tokens are optional; the table placeholder is required.
func Render(tmpl string, tables string, p Params) (string, error) {
	out := strings.ReplaceAll(tmpl, PeriodToken, Escape(p.Period))
	out = strings.ReplaceAll(out, PresentationDateToken, Escape(p.PresentationDate))

	if !strings.Contains(out, TablesPlaceholder) {
		return "", &maintenance.TemplateError{
			Err: fmt.Errorf("%w: %q not found", maintenance.ErrPlaceholderMissing, TablesPlaceholder),
		}
	}
	return strings.ReplaceAll(out, TablesPlaceholder, tables), nil
}

var (
	weekdays = [...]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}
	months   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// PresentationDate formats t as the default presentation-date label,
// e.g. "Jueves, 27 de noviembre del 2025".
func PresentationDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s del %d", weekdays[t.Weekday()], t.Day(), months[t.Month()-1], t.Year())
}
