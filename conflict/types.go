/*
Package conflict evaluates leave requests against a configurable rule set.

PURPOSE:
  Given a leave request, the current ConflictRules document, and caller-
  supplied context (existing leaves, roster capacity, deadlines, duty
  rosters, active risk periods), the Evaluator produces a list of typed
  LeaveConflict findings and an aggregate decision: auto-approve, needs
  manager review, or blocked.

KEY CONCEPTS IN THIS FILE (types.go):
  - Type:          The thirteen conflict categories
  - Severity:      INFORMATION / WARNING / BLOCKING
  - Leave:         A leave request (owned externally, read here)
  - LeaveConflict: One finding, with override and resolution metadata
  - CheckResult:   The aggregate decision

DECISION RULES:
  hasBlockers           = any BLOCKING finding with canOverride=false
  canAutoApprove        = no findings at all
  requiresManagerReview = findings exist but none are hard blockers

SEE ALSO:
  - rules.go:     ConflictRules document and validation
  - evaluator.go: The rule engine itself
*/
package conflict

import (
	"time"

	"github.com/medplan/risk-engine/calendar"
)

// =============================================================================
// CONFLICT TYPES AND SEVERITY
// =============================================================================

// Type identifies the category of a conflict finding.
type Type string

const (
	TypeUserLeaveOverlap  Type = "USER_LEAVE_OVERLAP"
	TypeTeamAbsence       Type = "TEAM_ABSENCE"
	TypeTeamCapacity      Type = "TEAM_CAPACITY"
	TypeSpecialtyCapacity Type = "SPECIALTY_CAPACITY"
	TypeCriticalRole      Type = "CRITICAL_ROLE"
	TypeDutyConflict      Type = "DUTY_CONFLICT"
	TypeAssignment        Type = "ASSIGNMENT_CONFLICT"
	TypeRecurringMeeting  Type = "RECURRING_MEETING"
	TypeDeadlineProximity Type = "DEADLINE_PROXIMITY"
	TypeHolidayProximity  Type = "HOLIDAY_PROXIMITY"
	TypeSpecialPeriod     Type = "SPECIAL_PERIOD"
	TypeHighWorkload      Type = "HIGH_WORKLOAD"
	TypeOther             Type = "OTHER"
)

// Severity classifies how a finding affects the approval decision.
type Severity string

const (
	SeverityInformation Severity = "INFORMATION"
	SeverityWarning     Severity = "WARNING"
	SeverityBlocking    Severity = "BLOCKING"
)

// =============================================================================
// LEAVE - The request under evaluation
// =============================================================================

// LeaveStatus is the lifecycle status of a leave request.
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "PENDING"
	LeaveApproved  LeaveStatus = "APPROVED"
	LeaveRejected  LeaveStatus = "REJECTED"
	LeaveCancelled LeaveStatus = "CANCELLED"
)

// Leave is a leave request. Persistence is owned by the scheduling app;
// this engine only reads it.
type Leave struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	TeamID    string       `json:"teamId,omitempty"`
	Specialty string       `json:"specialty,omitempty"`
	StartDate calendar.Day `json:"startDate"`
	EndDate   calendar.Day `json:"endDate"`
	Status    LeaveStatus  `json:"status"`
	Type      string       `json:"type,omitempty"`
}

// Span returns the leave's date range.
func (l Leave) Span() calendar.Range {
	return calendar.Range{Start: l.StartDate, End: l.EndDate}
}

// Countable reports whether the leave still occupies calendar days
// (pending or approved).
func (l Leave) Countable() bool {
	return l.Status == LeavePending || l.Status == LeaveApproved
}

// =============================================================================
// LEAVE CONFLICT - One finding
// =============================================================================

// LeaveConflict is a single incompatibility between a leave request and the
// schedule or rules.
type LeaveConflict struct {
	ID              string       `json:"id"`
	LeaveID         string       `json:"leaveId"`
	Type            Type         `json:"type"`
	Severity        Severity     `json:"severity"`
	Description     string       `json:"description"`
	StartDate       calendar.Day `json:"startDate"`
	EndDate         calendar.Day `json:"endDate"`
	AffectedUserIDs []string     `json:"affectedUserIds,omitempty"`
	CanOverride     bool         `json:"canOverride"`

	Resolved          bool       `json:"resolved"`
	ResolutionComment string     `json:"resolutionComment,omitempty"`
	ResolvedBy        string     `json:"resolvedBy,omitempty"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
}

// Resolve marks the conflict resolved with audit metadata.
func (c *LeaveConflict) Resolve(comment, by string, at time.Time) {
	c.Resolved = true
	c.ResolutionComment = comment
	c.ResolvedBy = by
	c.ResolvedAt = &at
}

// Blocks reports whether this finding prevents automatic approval outright.
func (c LeaveConflict) Blocks() bool {
	return c.Severity == SeverityBlocking && !c.CanOverride
}

// =============================================================================
// CHECK RESULT - Aggregate decision
// =============================================================================

// CheckResult is the aggregate outcome of evaluating one leave request.
type CheckResult struct {
	HasConflicts          bool            `json:"hasConflicts"`
	Conflicts             []LeaveConflict `json:"conflicts"`
	HasBlockers           bool            `json:"hasBlockers"`
	CanAutoApprove        bool            `json:"canAutoApprove"`
	RequiresManagerReview bool            `json:"requiresManagerReview"`

	// SkippedChecks lists rule categories that could not run because their
	// context was missing (degraded, not failed).
	SkippedChecks []Type `json:"skippedChecks,omitempty"`
}

func resultFrom(conflicts []LeaveConflict, skipped []Type) CheckResult {
	hasBlockers := false
	for _, c := range conflicts {
		if c.Blocks() {
			hasBlockers = true
			break
		}
	}
	return CheckResult{
		HasConflicts:          len(conflicts) > 0,
		Conflicts:             conflicts,
		HasBlockers:           hasBlockers,
		CanAutoApprove:        len(conflicts) == 0,
		RequiresManagerReview: len(conflicts) > 0 && !hasBlockers,
		SkippedChecks:         skipped,
	}
}
