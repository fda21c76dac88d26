package maintenance

import (
	"strings"
	"time"
)

// =============================================================================
// DATES - Day-first calendar dates (this IS a scheduling system)
// =============================================================================

// DateLayout is the day/month/year layout used for every stored date.
const DateLayout = "02/01/2006"

// Accepted input layouts. Only day/month/year with slashes; leading zeros
// are optional.
var dateLayouts = []string{
	DateLayout,
	"2/1/2006",
}

// ParseDate parses a dd/mm/yyyy date. Blank, unparsable or any other
// ordering (ISO, dashes) returns false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// Spreadsheet exports sometimes append a midnight time component.
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Midnight truncates t to its calendar day in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar day at midnight.
func Today() time.Time {
	return Midnight(time.Now())
}

// AddMonths adds n calendar months keeping the day of month. When the
// target month is shorter the day is clamped to its last day
// (31/01 + 1 month = 28/02 or 29/02).
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := daysIn(first.Year(), first.Month())
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole days from -> to at day granularity.
func DaysBetween(from, to time.Time) int {
	return int(Midnight(to).Sub(Midnight(from)).Hours() / 24)
}

// SameMonth reports whether a and b fall in the same calendar month and year.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
