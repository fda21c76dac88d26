package maintenance

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// STATUS - Pending / Upcoming / Up-to-date
// =============================================================================

// Status is the maintenance state of a unit relative to its next-due date.
type Status int

const (
	// StatusPending: no usable history, or the next-due date has passed.
	StatusPending Status = iota
	// StatusUpcoming: next-due date is today or within UpcomingWindowDays.
	StatusUpcoming
	// StatusUpToDate: next-due date is further away than UpcomingWindowDays.
	StatusUpToDate
)

// UpcomingWindowDays is the horizon within which a unit is "upcoming".
const UpcomingWindowDays = 180

var statusLabels = map[Status]string{
	StatusPending:  "Pendiente",
	StatusUpcoming: "Próximo",
	StatusUpToDate: "Al día",
}

// String returns the label shown to users.
func (s Status) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return "Pendiente"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	for st, l := range statusLabels {
		if l == label {
			*s = st
			return nil
		}
	}
	return &InputError{Field: "estado", Value: label, Message: "unknown status"}
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// NextDue returns last + frequency months. A zero frequency makes the last
// date itself the next due date. ok is false when either input is missing or
// the frequency is negative.
func NextDue(last *time.Time, frequencyMonths *int) (time.Time, bool) {
	if last == nil || frequencyMonths == nil || *frequencyMonths < 0 {
		return time.Time{}, false
	}
	return AddMonths(Midnight(*last), *frequencyMonths), true
}

// Classify derives the status of a unit as of today. It is deterministic in
// (today, last, frequencyMonths).
func Classify(today time.Time, last *time.Time, frequencyMonths *int) Status {
	next, ok := NextDue(last, frequencyMonths)
	if !ok {
		return StatusPending
	}

	today = Midnight(today)
	if next.Before(today) {
		return StatusPending
	}
	if DaysBetween(today, next) <= UpcomingWindowDays {
		return StatusUpcoming
	}
	return StatusUpToDate
}

// ClassifyText classifies from raw spreadsheet text. An unparsable date or
// a non-numeric frequency yields StatusPending.
func ClassifyText(today time.Time, lastMaintenance, frequencyMonths string) Status {
	last, ok := ParseDate(lastMaintenance)
	if !ok {
		return StatusPending
	}
	freq, ok := ParseFrequency(frequencyMonths)
	if !ok {
		return StatusPending
	}
	return Classify(today, &last, &freq)
}

// ClassifyImported classifies an imported roster row.
func ClassifyImported(today time.Time, e ImportedEquipment) Status {
	if e.LastMaintenance == nil {
		return StatusPending
	}
	last, ok := ParseDate(*e.LastMaintenance)
	if !ok {
		return StatusPending
	}
	return Classify(today, &last, e.FrequencyMonths)
}

// ParseFrequency coerces a month count. Decimal commas are accepted and the
// fractional part is truncated ("6,0" -> 6, "12.5" -> 12). Values outside
// the int32 range are rejected.
func ParseFrequency(s string) (int, bool) {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
