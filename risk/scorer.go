/*
scorer.go - Daily composite risk score

PURPOSE:
  Computes the 0-100 risk score for a single calendar day from five
  independently capped signals:

    1. Holiday/vacation membership   flat bonus
    2. Seasonality                   month-based bonus
    3. Team-capacity trend           prior-year mean absence rate, 0..weight
    4. Historical conflict rate      same month/day mean, capped
    5. Day-of-week factors           Fri/Mon and weekend adjacency

  The score is deterministic given the historical store and calendar facts
  at call time; it is not a pure function of the date alone.

CAPPING:
  Every signal is capped before summation so no single signal can dominate;
  the total is clamped to [0,100] as a final step.

SEE ALSO:
  - options.go: Heuristics constants
  - tracker.go: Scans windows of scores into periods
*/
package risk

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/conflict"
	"github.com/medplan/risk-engine/history"
)

// Scorer computes daily risk scores from calendar facts and history.
type Scorer struct {
	Facts   calendar.FactsProvider
	History *history.Store
	Opts    Options
}

// NewScorer wires a scorer; a nil facts provider disables holiday signals.
func NewScorer(facts calendar.FactsProvider, hist *history.Store, opts Options) *Scorer {
	if facts == nil {
		facts = calendar.NullCalendar{}
	}
	return &Scorer{Facts: facts, History: hist, Opts: opts}
}

// Score returns the composite risk score for a day, clamped to [0,100].
func (s *Scorer) Score(d calendar.Day) int {
	score := 0

	if s.Opts.EnableHolidayDetection && s.isHolidayOrVacation(d) {
		score += s.Opts.Heuristics.HolidayBonus
	}
	if s.Opts.EnableSeasonalityAnalysis {
		score += s.seasonalityScore(d)
	}
	if s.Opts.EnableTeamCapacity {
		score += s.teamCapacityScore(d)
	}
	score += s.historicalConflictScore(d)
	score += s.externalFactorsScore(d)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func (s *Scorer) isHolidayOrVacation(d calendar.Day) bool {
	if _, ok := s.Facts.Holiday(d); ok {
		return true
	}
	_, ok := s.Facts.SchoolVacation(d)
	return ok
}

// seasonalityScore returns the month-based bonus: peak months (summer and
// the winter holidays) highest, shoulder months moderate.
func (s *Scorer) seasonalityScore(d calendar.Day) int {
	h := s.Opts.Heuristics
	switch d.Month() {
	case time.July, time.August:
		return h.SummerSeasonBonus
	case time.December, time.January:
		return h.WinterSeasonBonus
	case time.May:
		return h.MaySeasonBonus
	case time.February, time.April:
		return h.ShoulderSeasonBonus
	default:
		return 0
	}
}

// teamCapacityScore derives a 0..weight contribution from the mean team
// absence rate on the same calendar day one year earlier. No prior-year
// data means zero.
func (s *Scorer) teamCapacityScore(d calendar.Day) int {
	point, ok := s.History.PriorYear(d)
	if !ok {
		return 0
	}
	weight := decimal.NewFromInt(int64(s.Opts.Heuristics.TeamCapacityWeight))
	contribution := point.AverageAbsenceRate().Mul(weight)
	if contribution.GreaterThan(weight) {
		contribution = weight
	}
	return int(contribution.IntPart())
}

// historicalConflictScore converts the mean conflict count observed on the
// same (month, day-of-month) across all recorded years into a capped score.
func (s *Scorer) historicalConflictScore(d calendar.Day) int {
	points := s.History.SameMonthDay(d.Month(), d.DayOfMonth())
	if len(points) == 0 {
		return 0
	}
	total := 0
	for _, p := range points {
		total += p.ConflictCount
	}
	mean := decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(len(points))))
	score := int(mean.Mul(decimal.NewFromInt(int64(s.Opts.Heuristics.ConflictScoreWeight))).IntPart())
	if score > s.Opts.Heuristics.ConflictScoreCap {
		score = s.Opts.Heuristics.ConflictScoreCap
	}
	return score
}

// externalFactorsScore adds small fixed bonuses for leave-request-heavy
// weekdays (Friday, Monday) and weekend-adjacent days (Tuesday, Thursday).
func (s *Scorer) externalFactorsScore(d calendar.Day) int {
	h := s.Opts.Heuristics
	score := 0
	switch d.Weekday() {
	case time.Friday:
		score += h.FridayBonus
	case time.Monday:
		score += h.MondayBonus
	case time.Tuesday, time.Thursday:
		score += h.WeekendAdjacentBonus
	}
	return score
}

// =============================================================================
// PREDICTIONS - Derived period attributes
// =============================================================================

// Reason summarizes the dominant factors behind a day's score.
func (s *Scorer) Reason(d calendar.Day) string {
	var reasons []string

	if s.Opts.EnableHolidayDetection {
		if name, ok := s.Facts.Holiday(d); ok {
			reasons = append(reasons, "Public holiday: "+name)
		} else if name, ok := s.Facts.SchoolVacation(d); ok {
			reasons = append(reasons, "School vacation: "+name)
		}
	}

	switch d.Month() {
	case time.July, time.August:
		reasons = append(reasons, "Summer leave season")
	case time.December, time.January:
		reasons = append(reasons, "Year-end holiday season")
	}

	if s.Opts.EnableTeamCapacity && s.teamCapacityScore(d) > 20 {
		reasons = append(reasons, "Historically reduced team capacity")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Multiple combined factors")
	}
	return strings.Join(reasons, ", ")
}

// PredictConflictTypes returns the conflict categories likely during a
// period containing this day.
func (s *Scorer) PredictConflictTypes(d calendar.Day, score int) []conflict.Type {
	var types []conflict.Type

	if s.seasonalityScore(d) > 25 {
		types = append(types, conflict.TypeTeamAbsence, conflict.TypeTeamCapacity)
	}
	if s.isHolidayOrVacation(d) {
		types = append(types, conflict.TypeUserLeaveOverlap, conflict.TypeHolidayProximity)
	}
	if score > 70 {
		types = append(types, conflict.TypeCriticalRole)
	}
	if len(types) == 0 {
		types = append(types, conflict.TypeUserLeaveOverlap)
	}
	return types
}

// PredictConflictCount estimates the number of conflicts a day will cause.
func (s *Scorer) PredictConflictCount(d calendar.Day, score int) decimal.Decimal {
	h := s.Opts.Heuristics

	base := decimal.NewFromInt(int64(score)).
		Div(decimal.NewFromInt(int64(h.ConflictCountDivisor)))

	seasonFactor := decimal.NewFromInt(int64(s.seasonalityScore(d))).
		Div(decimal.NewFromInt(int64(h.SeasonalityDivisor))).
		Add(decimal.NewFromInt(1))

	dayFactor := decimal.NewFromInt(1)
	if wd := d.Weekday(); wd == time.Monday || wd == time.Friday {
		dayFactor = decimal.NewFromFloat(h.PeakDayFactor)
	}

	return base.Mul(seasonFactor).Mul(dayFactor)
}

// HistoricalConflictRate returns the conflicts-per-leave ratio observed in
// the same calendar month across all recorded years.
func (s *Scorer) HistoricalConflictRate(d calendar.Day) decimal.Decimal {
	points := s.History.MonthPoints(d.Month())
	if len(points) == 0 {
		return decimal.Zero
	}
	conflicts, leaves := 0, 0
	for _, p := range points {
		conflicts += p.ConflictCount
		leaves += p.LeaveCount
	}
	if leaves == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(conflicts)).Div(decimal.NewFromInt(int64(leaves)))
}
