package maintenance_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/maintenance-plan/maintenance"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

// =============================================================================
// DATES
// =============================================================================

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"15/01/2025":          date(2025, time.January, 15),
		"5/1/2025":            date(2025, time.January, 5),
		" 15/01/2025 00:00 ":  date(2025, time.January, 15),
		"15/01/2025 00:00:00": date(2025, time.January, 15),
	}
	for in, want := range cases {
		got, ok := maintenance.ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	invalid := []string{"", "  ", "31/02/2025", "ayer", "13/13/2025",
		"2025-01-15", "2025/01/15", "15-01-2025", "15.01.2025", "2025-01-15 00:00:00"}
	for _, bad := range invalid {
		_, ok := maintenance.ParseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, date(2025, time.February, 28), maintenance.AddMonths(date(2025, time.January, 31), 1))
	assert.Equal(t, date(2024, time.February, 29), maintenance.AddMonths(date(2024, time.January, 31), 1))
	assert.Equal(t, date(2026, time.January, 1), maintenance.AddMonths(date(2025, time.January, 1), 12))
	assert.Equal(t, date(2025, time.June, 30), maintenance.AddMonths(date(2024, time.August, 31), 10))
}

// =============================================================================
// CLASSIFIER
// =============================================================================

func TestClassify_Examples(t *testing.T) {
	today := date(2025, time.September, 1)

	t.Run("long overdue is pending", func(t *testing.T) {
		// GIVEN: Last maintenance 400 days ago, every 6 months
		last := today.AddDate(0, 0, -400)
		// THEN: Next due is in the past
		assert.Equal(t, maintenance.StatusPending, maintenance.Classify(today, &last, intPtr(6)))
	})

	t.Run("due within window is upcoming", func(t *testing.T) {
		// GIVEN: Last maintenance 01/01/2025, every 12 months
		last := date(2025, time.January, 1)
		// THEN: Next due 01/01/2026 is 122 days away
		next, ok := maintenance.NextDue(&last, intPtr(12))
		require.True(t, ok)
		assert.Equal(t, 122, maintenance.DaysBetween(today, next))
		assert.Equal(t, maintenance.StatusUpcoming, maintenance.Classify(today, &last, intPtr(12)))
	})

	t.Run("due beyond window is up to date", func(t *testing.T) {
		last := date(2025, time.August, 1)
		assert.Equal(t, maintenance.StatusUpToDate, maintenance.Classify(today, &last, intPtr(12)))
	})

	t.Run("missing inputs are pending", func(t *testing.T) {
		last := date(2025, time.August, 1)
		assert.Equal(t, maintenance.StatusPending, maintenance.Classify(today, nil, intPtr(6)))
		assert.Equal(t, maintenance.StatusPending, maintenance.Classify(today, &last, nil))
		assert.Equal(t, maintenance.StatusPending, maintenance.Classify(today, &last, intPtr(0)))
	})
}

func TestClassify_ZeroFrequency(t *testing.T) {
	// GIVEN: A zero frequency, so the last date is the next due date
	today := date(2025, time.September, 1)
	zero := intPtr(0)

	// THEN: It is classified by distance to that date
	past := date(2025, time.August, 31)
	soon := date(2025, time.December, 1)
	later := date(2027, time.January, 1)
	assert.Equal(t, maintenance.StatusPending, maintenance.Classify(today, &past, zero))
	assert.Equal(t, maintenance.StatusUpcoming, maintenance.Classify(today, &today, zero))
	assert.Equal(t, maintenance.StatusUpcoming, maintenance.Classify(today, &soon, zero))
	assert.Equal(t, maintenance.StatusUpToDate, maintenance.Classify(today, &later, zero))

	next, ok := maintenance.NextDue(&soon, zero)
	require.True(t, ok)
	assert.Equal(t, soon, next)

	// Negative intervals have no next due date.
	assert.Equal(t, maintenance.StatusPending, maintenance.Classify(today, &later, intPtr(-1)))
}

func TestClassify_WindowBoundaries(t *testing.T) {
	today := date(2025, time.September, 1)
	freq := intPtr(1)

	dueOn := func(next time.Time) *time.Time {
		last := next.AddDate(0, -1, 0)
		return &last
	}

	// Due today counts as upcoming, not pending.
	assert.Equal(t, maintenance.StatusUpcoming, maintenance.Classify(today, dueOn(today), freq))

	// Exactly 180 days out is still upcoming; 181 is not.
	in180 := today.AddDate(0, 0, 180)
	last := dueOn(in180)
	next, _ := maintenance.NextDue(last, freq)
	require.Equal(t, in180, next)
	assert.Equal(t, maintenance.StatusUpcoming, maintenance.Classify(today, last, freq))

	in181 := today.AddDate(0, 0, 181)
	last = dueOn(in181)
	next, _ = maintenance.NextDue(last, freq)
	require.Equal(t, in181, next)
	assert.Equal(t, maintenance.StatusUpToDate, maintenance.Classify(today, last, freq))
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	last := date(2025, time.January, 1)
	morning := time.Date(2026, time.January, 1, 0, 1, 0, 0, time.UTC)
	evening := time.Date(2026, time.January, 1, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, maintenance.StatusUpcoming, maintenance.Classify(morning, &last, intPtr(12)))
	assert.Equal(t, maintenance.StatusUpcoming, maintenance.Classify(evening, &last, intPtr(12)))
}

func TestClassifyText(t *testing.T) {
	today := date(2025, time.September, 1)

	assert.Equal(t, maintenance.StatusUpcoming, maintenance.ClassifyText(today, "01/01/2025", "12"))
	assert.Equal(t, maintenance.StatusUpcoming, maintenance.ClassifyText(today, "01/01/2025", "12,0"))
	assert.Equal(t, maintenance.StatusPending, maintenance.ClassifyText(today, "01/01/2025", "doce"))
	assert.Equal(t, maintenance.StatusPending, maintenance.ClassifyText(today, "", "12"))
}

func TestParseFrequency(t *testing.T) {
	for in, want := range map[string]int{"6": 6, "6.0": 6, "6,0": 6, " 12 ": 12, "12.9": 12, "0": 0} {
		got, ok := maintenance.ParseFrequency(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "seis", "NaN", "Inf", "1e12", "-1e12", "9223372036854775808"} {
		_, ok := maintenance.ParseFrequency(bad)
		assert.False(t, ok, bad)
	}
}

func TestStatus_JSONLabels(t *testing.T) {
	data, err := json.Marshal(maintenance.StatusUpcoming)
	require.NoError(t, err)
	assert.JSONEq(t, `"Próximo"`, string(data))

	var s maintenance.Status
	require.NoError(t, json.Unmarshal([]byte(`"Al día"`), &s))
	assert.Equal(t, maintenance.StatusUpToDate, s)

	assert.Error(t, json.Unmarshal([]byte(`"Later"`), &s))
	assert.Equal(t, "Pendiente", maintenance.StatusPending.String())
}
