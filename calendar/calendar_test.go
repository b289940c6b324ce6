package calendar_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medplan/risk-engine/calendar"
)

// =============================================================================
// DAY TESTS
// =============================================================================

func TestDay_Normalization(t *testing.T) {
	// GIVEN: A timestamp with a time-of-day component
	// WHEN: Truncating it to a Day
	// THEN: The day compares equal to the plain date

	stamp := time.Date(2025, time.July, 14, 16, 45, 12, 0, time.UTC)
	d := calendar.DayOf(stamp)

	assert.True(t, d.Equal(calendar.NewDay(2025, time.July, 14)))
	assert.Equal(t, "2025-07-14", d.String())
}

func TestDay_ParseRoundTrip(t *testing.T) {
	d, err := calendar.ParseDay("2025-12-25")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.December, d.Month())
	assert.Equal(t, 25, d.DayOfMonth())
	assert.Equal(t, "2025-12-25", d.String())

	_, err = calendar.ParseDay("25/12/2025")
	assert.Error(t, err, "non-ISO dates should be rejected")
}

func TestDay_Arithmetic(t *testing.T) {
	d := calendar.NewDay(2025, time.January, 31)

	assert.Equal(t, "2025-02-01", d.AddDays(1).String())
	assert.Equal(t, "2025-01-30", d.AddDays(-1).String())
	assert.Equal(t, "2026-01-31", d.AddYears(1).String())

	// Crossing a year boundary
	assert.Equal(t, "2026-01-05", calendar.NewDay(2025, time.December, 31).AddDays(5).String())
}

func TestDay_Comparisons(t *testing.T) {
	a := calendar.NewDay(2025, time.March, 10)
	b := calendar.NewDay(2025, time.March, 11)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
	assert.False(t, a.Equal(b))
}

func TestDay_Weekend(t *testing.T) {
	// 2025-07-12 is a Saturday, 2025-07-14 a Monday
	assert.True(t, calendar.NewDay(2025, time.July, 12).IsWeekend())
	assert.True(t, calendar.NewDay(2025, time.July, 13).IsWeekend())
	assert.False(t, calendar.NewDay(2025, time.July, 14).IsWeekend())
}

func TestDay_JSON(t *testing.T) {
	d := calendar.NewDay(2025, time.May, 1)

	encoded, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-05-01"`, string(encoded))

	var decoded calendar.Day
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, d.Equal(decoded))

	assert.Error(t, json.Unmarshal([]byte(`20250501`), &decoded))
}

func TestDaysBetween(t *testing.T) {
	a := calendar.NewDay(2025, time.March, 1)
	b := calendar.NewDay(2025, time.March, 8)

	assert.Equal(t, 7, calendar.DaysBetween(a, b))
	assert.Equal(t, -7, calendar.DaysBetween(b, a))
	assert.Equal(t, 0, calendar.DaysBetween(a, a))
}

// =============================================================================
// RANGE TESTS
// =============================================================================

func TestRange_Validate(t *testing.T) {
	valid := calendar.NewRange(
		calendar.NewDay(2025, time.June, 1),
		calendar.NewDay(2025, time.June, 5),
	)
	assert.NoError(t, valid.Validate())

	inverted := calendar.NewRange(
		calendar.NewDay(2025, time.June, 5),
		calendar.NewDay(2025, time.June, 1),
	)
	assert.ErrorIs(t, inverted.Validate(), calendar.ErrInvalidRange)

	// Single-day ranges are legal
	single := calendar.NewRange(
		calendar.NewDay(2025, time.June, 1),
		calendar.NewDay(2025, time.June, 1),
	)
	assert.NoError(t, single.Validate())
	assert.Equal(t, 1, single.Len())
}

func TestRange_Overlaps(t *testing.T) {
	base := calendar.NewRange(
		calendar.NewDay(2025, time.June, 10),
		calendar.NewDay(2025, time.June, 20),
	)

	tests := []struct {
		name  string
		other calendar.Range
		want  bool
	}{
		{"fully inside", calendar.NewRange(calendar.NewDay(2025, time.June, 12), calendar.NewDay(2025, time.June, 15)), true},
		{"touching at start", calendar.NewRange(calendar.NewDay(2025, time.June, 5), calendar.NewDay(2025, time.June, 10)), true},
		{"touching at end", calendar.NewRange(calendar.NewDay(2025, time.June, 20), calendar.NewDay(2025, time.June, 25)), true},
		{"before", calendar.NewRange(calendar.NewDay(2025, time.June, 1), calendar.NewDay(2025, time.June, 9)), false},
		{"after", calendar.NewRange(calendar.NewDay(2025, time.June, 21), calendar.NewDay(2025, time.June, 30)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestRange_DaysAndContains(t *testing.T) {
	r := calendar.NewRange(
		calendar.NewDay(2025, time.June, 1),
		calendar.NewDay(2025, time.June, 3),
	)

	days := r.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2025-06-01", days[0].String())
	assert.Equal(t, "2025-06-03", days[2].String())

	assert.True(t, r.Contains(calendar.NewDay(2025, time.June, 2)))
	assert.False(t, r.Contains(calendar.NewDay(2025, time.June, 4)))
}

// =============================================================================
// FRENCH CALENDAR TESTS
// =============================================================================

func TestFrenchCalendar_Holidays(t *testing.T) {
	c := calendar.NewFrenchCalendar()

	holidays := []calendar.Day{
		calendar.NewDay(2025, time.January, 1),
		calendar.NewDay(2025, time.May, 1),
		calendar.NewDay(2025, time.May, 8),
		calendar.NewDay(2025, time.July, 14),
		calendar.NewDay(2025, time.August, 15),
		calendar.NewDay(2025, time.November, 1),
		calendar.NewDay(2025, time.November, 11),
		calendar.NewDay(2025, time.December, 25),
	}
	for _, d := range holidays {
		name, ok := c.Holiday(d)
		assert.True(t, ok, "%s should be a holiday", d)
		assert.NotEmpty(t, name)
	}

	_, ok := c.Holiday(calendar.NewDay(2025, time.March, 3))
	assert.False(t, ok)

	// Fixed holidays recur year over year
	_, ok = c.Holiday(calendar.NewDay(2031, time.July, 14))
	assert.True(t, ok)
}

func TestFrenchCalendar_SchoolVacations(t *testing.T) {
	c := calendar.NewFrenchCalendar()

	_, summer := c.SchoolVacation(calendar.NewDay(2025, time.July, 20))
	assert.True(t, summer)

	_, winter := c.SchoolVacation(calendar.NewDay(2025, time.December, 27))
	assert.True(t, winter)

	_, ordinary := c.SchoolVacation(calendar.NewDay(2025, time.September, 15))
	assert.False(t, ordinary)
}

func TestNullCalendar(t *testing.T) {
	var facts calendar.FactsProvider = calendar.NullCalendar{}

	_, ok := facts.Holiday(calendar.NewDay(2025, time.December, 25))
	assert.False(t, ok)
	_, ok = facts.SchoolVacation(calendar.NewDay(2025, time.July, 20))
	assert.False(t, ok)
}
