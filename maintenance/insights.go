package maintenance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INSIGHTS - Fleet-wide completion summary
// =============================================================================

// Insights is the fleet summary computed from the plan.
type Insights struct {
	Total         int             `json:"total"`
	Completed     int             `json:"completed"`
	Pending       int             `json:"pending"`
	CompletionPct decimal.Decimal `json:"completion_pct"`

	// Overdue: open records whose tentative date is before today.
	Overdue []Record `json:"overdue"`
	// DueThisMonth: open records whose tentative date falls in the current
	// calendar month.
	DueThisMonth []Record `json:"due_this_month"`
}

// OverdueCount returns len(Overdue).
func (in Insights) OverdueCount() int { return len(in.Overdue) }

// DueThisMonthCount returns len(DueThisMonth).
func (in Insights) DueThisMonthCount() int { return len(in.DueThisMonth) }

var hundred = decimal.NewFromInt(100)

// Summarize computes Insights as of today. Records whose tentative date
// can't be parsed count towards the totals but are neither overdue nor due
// this month.
func Summarize(records []Record, today time.Time) Insights {
	today = Midnight(today)
	in := Insights{
		Total:         len(records),
		CompletionPct: decimal.Zero,
		Overdue:       []Record{},
		DueThisMonth:  []Record{},
	}

	for _, r := range records {
		if r.Completed {
			in.Completed++
			continue
		}
		tentative, ok := ParseDate(r.TentativeDate)
		if !ok {
			continue
		}
		if tentative.Before(today) {
			in.Overdue = append(in.Overdue, r)
		}
		if SameMonth(tentative, today) {
			in.DueThisMonth = append(in.DueThisMonth, r)
		}
	}

	in.Pending = in.Total - in.Completed
	if in.Total > 0 {
		in.CompletionPct = decimal.NewFromInt(int64(in.Completed)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(in.Total)))
	}
	return in
}

// Summary renders the counts as the plain-text block shown to users.
func (in Insights) Summary() string {
	return fmt.Sprintf(
		"Total de equipos: %d\n"+
			"Cumplidos: %d\n"+
			"Pendientes: %d\n"+
			"Porcentaje de cumplimiento: %s%%\n"+
			"Atrasados: %d\n"+
			"Próximos este mes: %d",
		in.Total, in.Completed, in.Pending,
		in.CompletionPct.StringFixed(1),
		in.OverdueCount(), in.DueThisMonthCount(),
	)
}
