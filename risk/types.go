package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/conflict"
)

// =============================================================================
// RISK LEVEL
// =============================================================================

// Level is the ordinal severity classification of a risk period.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Rank returns the ordinal value of a level, LOW lowest.
func (l Level) Rank() int {
	switch l {
	case LevelCritical:
		return 4
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	default:
		return 1
	}
}

// Max returns the higher of two levels.
func (l Level) Max(other Level) Level {
	if other.Rank() > l.Rank() {
		return other
	}
	return l
}

// Severe reports whether the level is HIGH or CRITICAL.
func (l Level) Severe() bool { return l.Rank() >= LevelHigh.Rank() }

// LevelForScore classifies a score against the configured thresholds.
func LevelForScore(score int, t LevelThresholds) Level {
	switch {
	case score >= t.Critical:
		return LevelCritical
	case score >= t.High:
		return LevelHigh
	case score >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// =============================================================================
// RISK PERIOD
// =============================================================================

// Period is a contiguous date range flagged as elevated conflict risk.
// Immutable once closed by the tracker, except for IsActive.
type Period struct {
	ID                     string          `json:"id"`
	Span                   calendar.Range  `json:"span"`
	Level                  Level           `json:"riskLevel"`
	Score                  int             `json:"riskScore"` // max daily score in the span
	AffectedTeams          []string        `json:"affectedTeams"`
	AffectedDepartments    []string        `json:"affectedDepartments"`
	Reason                 string          `json:"reason"`
	ConflictTypes          []conflict.Type `json:"conflictTypes"`
	ExpectedConflictCount  decimal.Decimal `json:"expectedConflictCount"`
	HistoricalConflictRate decimal.Decimal `json:"historicalConflictRate"`
	IsActive               bool            `json:"isActive"`
	CreatedAt              time.Time       `json:"createdAt"`
}

// Contains reports whether a day falls inside the period.
func (p Period) Contains(d calendar.Day) bool { return p.Span.Contains(d) }

// Ref returns the evaluator's view of this period.
func (p Period) Ref() conflict.RiskPeriodRef {
	return conflict.RiskPeriodRef{ID: p.ID, Span: p.Span, Severe: p.Level.Severe()}
}

// =============================================================================
// NOTIFIER - Outbound period notifications
// =============================================================================

// Notifier receives period lifecycle notifications from the tracker.
// The event coordinator implements it by publishing bus events.
type Notifier interface {
	PeriodDetected(Period)
	PeriodDeactivated(Period)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) PeriodDetected(Period)    {}
func (NopNotifier) PeriodDeactivated(Period) {}
