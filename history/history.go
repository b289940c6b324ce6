/*
Package history maintains the rolling table of per-date statistics that
feeds the risk scorer.

PURPOSE:
  Every resolved conflict and every recorded leave lands here as a per-date
  aggregate. The scorer later reads these aggregates to answer questions
  like "how absent was this team on the same day last year?" and "how many
  conflicts do we usually see on this month/day?".

KEY CONCEPTS:
  - DataPoint: {date, conflictCount, leaveCount, per-team absence rates}
  - Store:     The single owner of all DataPoints. Append-only: counts only
               ever grow, rates are set once per (date, team).

CONCURRENCY:
  All mutation goes through Store methods guarded by a RWMutex. Queries
  take the read lock and return copies, so callers always observe a
  consistent snapshot and can never mutate stored state.

USAGE:
  store := history.NewStore()
  store.RecordConflictResolution(day)
  points := store.SameMonthDay(time.July, 14)

SEE ALSO:
  - risk/scorer.go: Reads these aggregates
  - events/coordinator.go: Writes on conflict.resolved / leave.created
  - store/sqlite: Durable mirror loaded at startup
*/
package history

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medplan/risk-engine/calendar"
)

// =============================================================================
// DATA POINT - Per-date aggregate
// =============================================================================

// DataPoint is the per-date aggregate of past conflict and leave activity.
type DataPoint struct {
	Date             calendar.Day               `json:"date"`
	ConflictCount    int                        `json:"conflictCount"`
	LeaveCount       int                        `json:"leaveCount"`
	TeamAbsenceRates map[string]decimal.Decimal `json:"teamAbsenceRates"`
}

// AverageAbsenceRate returns the mean absence rate across teams, or zero
// when no team rates are recorded.
func (p DataPoint) AverageAbsenceRate() decimal.Decimal {
	if len(p.TeamAbsenceRates) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, rate := range p.TeamAbsenceRates {
		sum = sum.Add(rate)
	}
	return sum.Div(decimal.NewFromInt(int64(len(p.TeamAbsenceRates))))
}

func (p DataPoint) clone() DataPoint {
	out := p
	if p.TeamAbsenceRates != nil {
		out.TeamAbsenceRates = make(map[string]decimal.Decimal, len(p.TeamAbsenceRates))
		for team, rate := range p.TeamAbsenceRates {
			out.TeamAbsenceRates[team] = rate
		}
	}
	return out
}

// =============================================================================
// STORE - Exclusive owner of historical data
// =============================================================================

// Store owns all historical data points. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	points map[calendar.Day]*DataPoint
}

// NewStore creates an empty historical statistics store.
func NewStore() *Store {
	return &Store{points: make(map[calendar.Day]*DataPoint)}
}

func (s *Store) pointLocked(d calendar.Day) *DataPoint {
	p, ok := s.points[d]
	if !ok {
		p = &DataPoint{Date: d, TeamAbsenceRates: make(map[string]decimal.Decimal)}
		s.points[d] = p
	}
	return p
}

// RecordConflictResolution increments the conflict count for the given date.
func (s *Store) RecordConflictResolution(d calendar.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointLocked(d).ConflictCount++
}

// RecordLeave increments the leave count for the given date.
func (s *Store) RecordLeave(d calendar.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointLocked(d).LeaveCount++
}

// RecordLeaveRange increments the leave count for every day of a leave.
func (s *Store) RecordLeaveRange(r calendar.Range) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for d := r.Start; d.BeforeOrEqual(r.End); d = d.AddDays(1) {
		s.pointLocked(d).LeaveCount++
	}
}

// SetTeamAbsenceRate records a team's absence rate (0..1) for a date.
// Out-of-range rates are rejected, never coerced.
func (s *Store) SetTeamAbsenceRate(d calendar.Day, team string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("absence rate %s for team %q out of range [0,1]", rate, team)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointLocked(d).TeamAbsenceRates[team] = rate
	return nil
}

// =============================================================================
// QUERIES - Read-only snapshots
// =============================================================================

// At returns the data point for an exact date.
func (s *Store) At(d calendar.Day) (DataPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.points[d]
	if !ok {
		return DataPoint{}, false
	}
	return p.clone(), true
}

// PriorYear returns the data point for the same month/day one year earlier.
func (s *Store) PriorYear(d calendar.Day) (DataPoint, bool) {
	return s.At(calendar.NewDay(d.Year()-1, d.Month(), d.DayOfMonth()))
}

// SameMonthDay returns the data points for a given month/day across all
// recorded years.
func (s *Store) SameMonthDay(month time.Month, dayOfMonth int) []DataPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DataPoint
	for _, p := range s.points {
		if p.Date.Month() == month && p.Date.DayOfMonth() == dayOfMonth {
			out = append(out, p.clone())
		}
	}
	sortByDate(out)
	return out
}

// MonthPoints returns every data point falling in the given month, across
// all years.
func (s *Store) MonthPoints(month time.Month) []DataPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DataPoint
	for _, p := range s.points {
		if p.Date.Month() == month {
			out = append(out, p.clone())
		}
	}
	sortByDate(out)
	return out
}

// Len returns the number of dates with recorded data.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// All exports every data point, ordered by date. Used by the persister.
func (s *Store) All() []DataPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DataPoint, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, p.clone())
	}
	sortByDate(out)
	return out
}

// Load bulk-restores data points, merging counts into existing entries.
func (s *Store) Load(points []DataPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range points {
		p := s.pointLocked(in.Date)
		p.ConflictCount += in.ConflictCount
		p.LeaveCount += in.LeaveCount
		for team, rate := range in.TeamAbsenceRates {
			p.TeamAbsenceRates[team] = rate
		}
	}
}

func sortByDate(points []DataPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}
