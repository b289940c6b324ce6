/*
Package risk forecasts periods where leave conflicts are likely.

PURPOSE:
  The Scorer turns one calendar day into a 0-100 composite risk score from
  five weighted signals. The Tracker scans a forward-looking window, merges
  contiguous at-risk days into Period records, and owns the in-memory
  catalogue of detected periods.

KEY CONCEPTS IN THIS FILE (options.go):
  - Options:    Detection configuration (window, thresholds, toggles)
  - Heuristics: The tunable scaling constants of the scoring formulas
  - Patch:      Partial update merged into Options

THRESHOLD INVARIANT:
  minimumRiskScoreThreshold <= medium < high < critical. Validate enforces
  it, so a materialized Period is always at least MEDIUM.

SEE ALSO:
  - scorer.go:  The five scoring signals
  - tracker.go: Window scan and period catalogue
*/
package risk

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is the sentinel for detection-option violations.
var ErrInvalidOptions = errors.New("invalid risk detection options")

// =============================================================================
// HEURISTICS - Tunable scaling constants
// =============================================================================

// Heuristics holds the scoring constants. The defaults reproduce the
// calibration the forecasting heuristics were tuned with; deployments may
// adjust them instead of patching code.
type Heuristics struct {
	HolidayBonus         int `json:"holidayBonus"`
	SummerSeasonBonus    int `json:"summerSeasonBonus"`
	WinterSeasonBonus    int `json:"winterSeasonBonus"`
	MaySeasonBonus       int `json:"maySeasonBonus"`
	ShoulderSeasonBonus  int `json:"shoulderSeasonBonus"`
	TeamCapacityWeight   int `json:"teamCapacityWeight"`  // scales mean absence rate into 0..weight
	ConflictScoreWeight  int `json:"conflictScoreWeight"` // points per historical conflict/day
	ConflictScoreCap     int `json:"conflictScoreCap"`
	FridayBonus          int `json:"fridayBonus"`
	MondayBonus          int `json:"mondayBonus"`
	WeekendAdjacentBonus int `json:"weekendAdjacentBonus"`

	// Conflict-count prediction.
	ConflictCountDivisor int     `json:"conflictCountDivisor"` // score -> base expected conflicts
	SeasonalityDivisor   int     `json:"seasonalityDivisor"`   // seasonality -> multiplier
	PeakDayFactor        float64 `json:"peakDayFactor"`        // Monday/Friday multiplier
}

// DefaultHeuristics returns the calibrated scoring constants.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		HolidayBonus:         25,
		SummerSeasonBonus:    30,
		WinterSeasonBonus:    35,
		MaySeasonBonus:       20,
		ShoulderSeasonBonus:  15,
		TeamCapacityWeight:   50,
		ConflictScoreWeight:  5,
		ConflictScoreCap:     25,
		FridayBonus:          10,
		MondayBonus:          8,
		WeekendAdjacentBonus: 5,
		ConflictCountDivisor: 20,
		SeasonalityDivisor:   50,
		PeakDayFactor:        1.3,
	}
}

// =============================================================================
// OPTIONS - Detection configuration
// =============================================================================

// LevelThresholds are the score cut-offs for period classification.
type LevelThresholds struct {
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// Options configures the detection engine.
type Options struct {
	LookAheadDays             int             `json:"lookAheadDays"`
	HistoricalAnalysisMonths  int             `json:"historicalAnalysisMonths"`
	MinimumRiskScoreThreshold int             `json:"minimumRiskScoreThreshold"`
	EnableHolidayDetection    bool            `json:"enableHolidayDetection"`
	EnableSeasonalityAnalysis bool            `json:"enableSeasonalityAnalysis"`
	EnableTeamCapacity        bool            `json:"enableTeamCapacityAnalysis"`
	Thresholds                LevelThresholds `json:"riskLevelThresholds"`
	Heuristics                Heuristics      `json:"heuristics"`
}

// DefaultOptions returns the standard detection configuration.
func DefaultOptions() Options {
	return Options{
		LookAheadDays:             90,
		HistoricalAnalysisMonths:  12,
		MinimumRiskScoreThreshold: 30,
		EnableHolidayDetection:    true,
		EnableSeasonalityAnalysis: true,
		EnableTeamCapacity:        true,
		Thresholds:                LevelThresholds{Medium: 40, High: 65, Critical: 85},
		Heuristics:                DefaultHeuristics(),
	}
}

// Validate enforces the threshold ordering invariant.
func (o Options) Validate() error {
	if o.LookAheadDays <= 0 {
		return fmt.Errorf("%w: lookAheadDays must be positive", ErrInvalidOptions)
	}
	if o.MinimumRiskScoreThreshold < 0 || o.MinimumRiskScoreThreshold > 100 {
		return fmt.Errorf("%w: minimumRiskScoreThreshold outside [0,100]", ErrInvalidOptions)
	}
	t := o.Thresholds
	if !(o.MinimumRiskScoreThreshold <= t.Medium && t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("%w: need minimum <= medium < high < critical, got %d/%d/%d/%d",
			ErrInvalidOptions, o.MinimumRiskScoreThreshold, t.Medium, t.High, t.Critical)
	}
	return nil
}

// Patch is a partial Options update; nil fields are left unchanged.
type Patch struct {
	LookAheadDays             *int             `json:"lookAheadDays,omitempty"`
	HistoricalAnalysisMonths  *int             `json:"historicalAnalysisMonths,omitempty"`
	MinimumRiskScoreThreshold *int             `json:"minimumRiskScoreThreshold,omitempty"`
	EnableHolidayDetection    *bool            `json:"enableHolidayDetection,omitempty"`
	EnableSeasonalityAnalysis *bool            `json:"enableSeasonalityAnalysis,omitempty"`
	EnableTeamCapacity        *bool            `json:"enableTeamCapacityAnalysis,omitempty"`
	Thresholds                *LevelThresholds `json:"riskLevelThresholds,omitempty"`
	Heuristics                *Heuristics      `json:"heuristics,omitempty"`
}

// Apply merges a patch into a copy of the options.
func (o Options) Apply(p Patch) Options {
	if p.LookAheadDays != nil {
		o.LookAheadDays = *p.LookAheadDays
	}
	if p.HistoricalAnalysisMonths != nil {
		o.HistoricalAnalysisMonths = *p.HistoricalAnalysisMonths
	}
	if p.MinimumRiskScoreThreshold != nil {
		o.MinimumRiskScoreThreshold = *p.MinimumRiskScoreThreshold
	}
	if p.EnableHolidayDetection != nil {
		o.EnableHolidayDetection = *p.EnableHolidayDetection
	}
	if p.EnableSeasonalityAnalysis != nil {
		o.EnableSeasonalityAnalysis = *p.EnableSeasonalityAnalysis
	}
	if p.EnableTeamCapacity != nil {
		o.EnableTeamCapacity = *p.EnableTeamCapacity
	}
	if p.Thresholds != nil {
		o.Thresholds = *p.Thresholds
	}
	if p.Heuristics != nil {
		o.Heuristics = *p.Heuristics
	}
	return o
}
