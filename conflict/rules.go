/*
rules.go - The ConflictRules configuration document

PURPOSE:
  ConflictRules is the versioned rule document that drives the Evaluator.
  It is owned by an external configuration service; this engine validates
  and reads it, never silently rewrites it.

VALIDATION:
  Malformed documents (percentages outside [0,100], negative day counts,
  inverted date ranges, duplicate special-period ids) are rejected with a
  field-level RuleValidationError before any evaluation or update. Errors
  wrap ErrInvalidRules for errors.Is checks.

SEE ALSO:
  - evaluator.go: Consumes the document
  - generic rules persistence: store/sqlite
*/
package conflict

import (
	"errors"
	"fmt"

	"github.com/medplan/risk-engine/calendar"
)

// ErrInvalidRules is the sentinel wrapped by all rule-validation failures.
var ErrInvalidRules = errors.New("invalid conflict rules")

// RuleValidationError pinpoints the offending field of a rules document.
type RuleValidationError struct {
	Field  string
	Reason string
}

func (e *RuleValidationError) Error() string {
	return fmt.Sprintf("invalid conflict rules: %s: %s", e.Field, e.Reason)
}

func (e *RuleValidationError) Unwrap() error { return ErrInvalidRules }

// =============================================================================
// RULE DOCUMENT
// =============================================================================

// RestrictionLevel controls how a special period affects leave requests.
type RestrictionLevel string

const (
	RestrictionNone   RestrictionLevel = "NONE"
	RestrictionLow    RestrictionLevel = "LOW"
	RestrictionMedium RestrictionLevel = "MEDIUM"
	RestrictionHigh   RestrictionLevel = "HIGH"
)

// HighWorkloadPeriod is an administrator-defined range where leave is
// discouraged or blocked regardless of computed risk.
type HighWorkloadPeriod struct {
	Span        calendar.Range `json:"span"`
	Description string         `json:"description"`
}

// SpecialPeriod is an administrator-defined range with its own restriction
// level (e.g., school holidays with rationed slots).
type SpecialPeriod struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Span        calendar.Range   `json:"span"`
	Restriction RestrictionLevel `json:"restriction"`
}

// Rules is the configurable conflict-rule document.
type Rules struct {
	Version int `json:"version"`

	// Numeric thresholds. Zero disables the corresponding check.
	MaxTeamAbsencePercentage float64 `json:"maxTeamAbsencePercentage,omitempty"`
	TeamMinCapacity          int     `json:"teamMinCapacity,omitempty"`
	SpecialtyMinCapacity     int     `json:"specialtyMinCapacity,omitempty"`
	MinDaysBeforeDeadline    int     `json:"minDaysBeforeDeadline,omitempty"`
	MinDaysBetweenLeaves     int     `json:"minDaysBetweenLeaves,omitempty"`

	// Toggles.
	BlockHolidayBridging              bool `json:"blockHolidayBridging"`
	AllowLeavesDuringDuty             bool `json:"allowLeavesDuringDuty"`
	BlockHighWorkloadPeriods          bool `json:"blockHighWorkloadPeriods"`
	CriticalRolesRequireBackup        bool `json:"criticalRolesRequireBackup"`
	StopCheckingAfterBlockingConflict bool `json:"stopCheckingAfterBlockingConflict"`

	// Caching.
	EnableCaching   bool `json:"enableCaching"`
	CacheTTLMinutes int  `json:"cacheTTLMinutes,omitempty"`

	// Ordered collections.
	HighWorkloadPeriods []HighWorkloadPeriod `json:"highWorkloadPeriods,omitempty"`
	SpecialPeriods      []SpecialPeriod      `json:"specialPeriods,omitempty"`
}

// DefaultRules returns the rule document used until a configuration service
// supplies one.
func DefaultRules() Rules {
	return Rules{
		Version:                           1,
		MaxTeamAbsencePercentage:          30,
		TeamMinCapacity:                   2,
		MinDaysBeforeDeadline:             3,
		CriticalRolesRequireBackup:        true,
		StopCheckingAfterBlockingConflict: true,
		EnableCaching:                     true,
		CacheTTLMinutes:                   5,
	}
}

// Validate checks the whole document and returns the first violation.
func (r Rules) Validate() error {
	if r.MaxTeamAbsencePercentage < 0 || r.MaxTeamAbsencePercentage > 100 {
		return &RuleValidationError{
			Field:  "maxTeamAbsencePercentage",
			Reason: fmt.Sprintf("%v outside [0,100]", r.MaxTeamAbsencePercentage),
		}
	}
	if r.TeamMinCapacity < 0 {
		return &RuleValidationError{Field: "teamMinCapacity", Reason: "negative"}
	}
	if r.SpecialtyMinCapacity < 0 {
		return &RuleValidationError{Field: "specialtyMinCapacity", Reason: "negative"}
	}
	if r.MinDaysBeforeDeadline < 0 {
		return &RuleValidationError{Field: "minDaysBeforeDeadline", Reason: "negative"}
	}
	if r.MinDaysBetweenLeaves < 0 {
		return &RuleValidationError{Field: "minDaysBetweenLeaves", Reason: "negative"}
	}
	if r.CacheTTLMinutes < 0 {
		return &RuleValidationError{Field: "cacheTTLMinutes", Reason: "negative"}
	}

	for i, p := range r.HighWorkloadPeriods {
		if err := p.Span.Validate(); err != nil {
			return &RuleValidationError{
				Field:  fmt.Sprintf("highWorkloadPeriods[%d]", i),
				Reason: err.Error(),
			}
		}
	}

	seen := make(map[string]bool, len(r.SpecialPeriods))
	for i, p := range r.SpecialPeriods {
		field := fmt.Sprintf("specialPeriods[%d]", i)
		if p.ID == "" {
			return &RuleValidationError{Field: field, Reason: "empty id"}
		}
		if seen[p.ID] {
			return &RuleValidationError{Field: field, Reason: fmt.Sprintf("duplicate id %q", p.ID)}
		}
		seen[p.ID] = true
		if err := p.Span.Validate(); err != nil {
			return &RuleValidationError{Field: field, Reason: err.Error()}
		}
		switch p.Restriction {
		case RestrictionNone, RestrictionLow, RestrictionMedium, RestrictionHigh:
		default:
			return &RuleValidationError{
				Field:  field,
				Reason: fmt.Sprintf("unknown restriction level %q", p.Restriction),
			}
		}
	}
	return nil
}
