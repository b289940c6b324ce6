/*
dto.go - Request/response types for the HTTP surface

PURPOSE:
  Decouples the engine's internal types from the JSON contract consumed by
  the scheduling UI. DTOs are pure data carriers; validation happens in
  handlers and the domain packages.

NAMING CONVENTION:
  - *Request:  request body types from clients
  - *Response: response wrappers

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/medplan/risk-engine/conflict"
	"github.com/medplan/risk-engine/risk"
)

// =============================================================================
// RISK PERIODS
// =============================================================================

// AnalyzeResponse wraps an analysis pass result. When a pass fails the
// engine keeps its last-known-good catalogue; Unavailable tells the UI to
// show "analysis unavailable, showing last known state".
type AnalyzeResponse struct {
	Periods     []risk.Period `json:"periods"`
	Unavailable bool          `json:"analysisUnavailable,omitempty"`
}

// PeriodsResponse lists periods for the query endpoints.
type PeriodsResponse struct {
	Periods []risk.Period `json:"periods"`
}

// =============================================================================
// LEAVE EVALUATION
// =============================================================================

// CheckLeaveRequest carries a leave request plus the caller-supplied
// evaluation context. Active risk periods are filled in server-side.
type CheckLeaveRequest struct {
	Leave             conflict.Leave              `json:"leave"`
	ExistingLeaves    []conflict.Leave            `json:"existingLeaves,omitempty"`
	Deadlines         []conflict.Deadline         `json:"deadlines,omitempty"`
	Duties            []conflict.DutyAssignment   `json:"duties,omitempty"`
	Assignments       []conflict.Assignment       `json:"assignments,omitempty"`
	Meetings          []conflict.RecurringMeeting `json:"meetings,omitempty"`
	CriticalRoles     []conflict.CriticalRole     `json:"criticalRoles,omitempty"`
	OverridePrivilege bool                        `json:"overridePrivilege,omitempty"`
}

// =============================================================================
// EVENT INJECTION
// =============================================================================

// LeaveEventRequest injects a leave domain event into the engine.
type LeaveEventRequest struct {
	Action string         `json:"action"` // created | updated | deleted
	Leave  conflict.Leave `json:"leave"`
}

// ConflictResolvedRequest injects a conflict.resolved domain event.
type ConflictResolvedRequest struct {
	ConflictID       string    `json:"conflictId"`
	LeaveID          string    `json:"leaveId"`
	ResolvedAt       time.Time `json:"resolvedAt"`
	ResolutionMethod string    `json:"resolutionMethod,omitempty"`
	ResolvedBy       string    `json:"resolvedBy,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
