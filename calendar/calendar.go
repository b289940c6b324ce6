/*
Package calendar provides day-granularity dates and calendar facts.

PURPOSE:
  The risk engine reasons exclusively in whole calendar days: a leave spans
  days, a risk period spans days, a holiday is a day. This package provides
  the Day and Range types used everywhere else, plus the FactsProvider
  interface that answers "is this day a holiday / school vacation?".

KEY CONCEPTS:
  - Day:           A calendar date (UTC, midnight). Value type, comparable.
  - Range:         An inclusive [Start, End] span of days.
  - FactsProvider: Holiday and school-vacation lookup for a given day.

DESIGN PRINCIPLES:
  1. Day granularity only. No hours, no time zones beyond UTC normalization.
  2. Facts are injected. Scoring code never hard-codes holiday tables; it
     asks a FactsProvider, so deployments can swap calendars.
  3. Ranges are inclusive on both ends, matching how leave requests and
     risk periods are expressed in the scheduling UI.

USAGE:
  d := calendar.NewDay(2025, time.July, 14)
  if name, ok := facts.Holiday(d); ok { ... }

SEE ALSO:
  - french.go: FrenchCalendar, the default FactsProvider
  - risk/scorer.go: Main consumer of calendar facts
*/
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when a range ends before it starts.
var ErrInvalidRange = errors.New("invalid range: end before start")

// =============================================================================
// DAY - A calendar date
// =============================================================================

// Day is a calendar date normalized to midnight UTC.
type Day struct {
	t time.Time
}

// NewDay constructs a Day from year, month, day.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates a time.Time to its calendar date.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar date.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a "2006-01-02" date string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.After(other) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.Before(other) }

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{t: d.t.AddDate(0, n, 0)} }
func (d Day) AddYears(n int) Day  { return Day{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Day) Year() int             { return d.t.Year() }
func (d Day) Month() time.Month     { return d.t.Month() }
func (d Day) DayOfMonth() int       { return d.t.Day() }
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }
func (d Day) IsZero() bool          { return d.t.IsZero() }
func (d Day) Time() time.Time       { return d.t }

func (d Day) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Day) String() string { return d.t.Format("2006-01-02") }

// MarshalJSON encodes the day as "2006-01-02".
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" string.
func (d *Day) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid day literal %s", s)
	}
	parsed, err := ParseDay(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b Day) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// =============================================================================
// RANGE - Inclusive span of days
// =============================================================================

// Range is an inclusive [Start, End] span of calendar days.
type Range struct {
	Start Day `json:"startDate"`
	End   Day `json:"endDate"`
}

// NewRange constructs a range; callers should Validate before trusting it.
func NewRange(start, end Day) Range {
	return Range{Start: start, End: end}
}

// Validate checks that the range is well-formed.
func (r Range) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Contains returns true if d falls within [Start, End].
func (r Range) Contains(d Day) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Overlaps returns true if the two ranges share at least one day.
func (r Range) Overlaps(other Range) bool {
	return r.Start.BeforeOrEqual(other.End) && r.End.AfterOrEqual(other.Start)
}

// Days returns every day in the range, in order.
func (r Range) Days() []Day {
	var days []Day
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of days in the range (inclusive).
func (r Range) Len() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// FACTS PROVIDER - Holiday and vacation lookup
// =============================================================================

// FactsProvider answers calendar-fact questions for a single day.
type FactsProvider interface {
	// Holiday returns the public holiday name if d is a public holiday.
	Holiday(d Day) (name string, ok bool)

	// SchoolVacation returns the vacation-period name if d falls inside a
	// school vacation window.
	SchoolVacation(d Day) (name string, ok bool)
}

// NullCalendar is a no-op provider for when holiday detection is disabled.
type NullCalendar struct{}

func (NullCalendar) Holiday(Day) (string, bool)        { return "", false }
func (NullCalendar) SchoolVacation(Day) (string, bool) { return "", false }
