/*
evaluator.go - The conflict rule engine

PURPOSE:
  Evaluates one leave request against the current Rules document and the
  caller-supplied scheduling context, producing typed LeaveConflict
  findings and the aggregate approval decision.

PROCESSING ORDER:
  1. User-overlap check runs first and alone: it is the cheapest check and
     the only one that can never be overridden, so when
     StopCheckingAfterBlockingConflict is set we can return early.
  2. The remaining categories are independent of each other and run
     concurrently (errgroup), each collecting findings into its own slice.
  3. Findings are concatenated back in fixed category order so results are
     deterministic regardless of goroutine scheduling.

DEGRADED CATEGORIES:
  A category whose context is missing (e.g. no roster provider for the
  capacity checks) is skipped and reported in CheckResult.SkippedChecks.
  Missing context never blocks the whole evaluation.

CACHING:
  When rules.EnableCaching is set, results are cached per
  (user, dates, leave id, rules version) for CacheTTLMinutes. Any rule
  update bumps the version, which orphans old entries.

SEE ALSO:
  - types.go: Finding and result types
  - rules.go: The rule document
  - cache.go: TTL cache
*/
package conflict

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/medplan/risk-engine/calendar"
)

// ErrInvalidLeave is returned when the request itself is malformed.
var ErrInvalidLeave = errors.New("invalid leave request")

// =============================================================================
// EVALUATION CONTEXT - External collaborators, supplied per call
// =============================================================================

// RosterProvider supplies live roster and absence data for capacity checks.
// Owned by the scheduling application.
type RosterProvider interface {
	// TeamSize returns the team headcount, 0 if the team is unknown.
	TeamSize(teamID string) int

	// TeamAbsentOn returns the ids of team members already absent on a day.
	TeamAbsentOn(teamID string, d calendar.Day) []string

	// SpecialtyHeadcount returns the number of staff with a specialty.
	SpecialtyHeadcount(specialty string) int

	// SpecialtyAbsentOn returns the ids of absent staff with a specialty.
	SpecialtyAbsentOn(specialty string, d calendar.Day) []string
}

// Deadline is a project deadline near which leave is discouraged.
type Deadline struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Project string       `json:"project,omitempty"`
	Date    calendar.Day `json:"date"`
}

// DutyAssignment is a duty or on-call slot assigned to a user.
type DutyAssignment struct {
	UserID string         `json:"userId"`
	Span   calendar.Range `json:"span"`
	Label  string         `json:"label,omitempty"`
}

// Assignment is a planned working assignment (e.g. an operating-room slot).
type Assignment struct {
	UserID string         `json:"userId"`
	Span   calendar.Range `json:"span"`
	Label  string         `json:"label,omitempty"`
}

// RecurringMeeting is a weekly meeting the user participates in.
type RecurringMeeting struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Weekday        time.Weekday `json:"weekday"`
	Required       bool         `json:"required"`
	ParticipantIDs []string     `json:"participantIds"`
}

// CriticalRole is a critical role held by the requesting user, with the
// users able to cover for it.
type CriticalRole struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	BackupUserIDs []string `json:"backupUserIds"`
}

// RiskPeriodRef is the evaluator's view of a detected risk period. The
// tracker owns the full record; only the span and severity matter here.
type RiskPeriodRef struct {
	ID     string         `json:"id"`
	Span   calendar.Range `json:"span"`
	Severe bool           `json:"severe"` // HIGH or CRITICAL level
}

// Context carries everything the evaluator needs beyond the leave and the
// rules. All fields are optional; missing data degrades single categories.
type Context struct {
	ExistingLeaves []Leave
	Roster         RosterProvider
	Deadlines      []Deadline
	Duties         []DutyAssignment
	Assignments    []Assignment
	Meetings       []RecurringMeeting
	CriticalRoles  []CriticalRole
	RiskPeriods    []RiskPeriodRef

	// OverridePrivilege marks the actor as allowed to bypass overridable
	// blocking findings. Looked up by the caller, never evaluated here.
	OverridePrivilege bool
}

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluator checks leave requests against the current rule document.
// Safe for concurrent use; Evaluate never mutates shared state.
type Evaluator struct {
	Facts calendar.FactsProvider

	mu    sync.RWMutex
	rules Rules
	cache *resultCache
}

// NewEvaluator creates an evaluator with validated initial rules.
func NewEvaluator(facts calendar.FactsProvider, rules Rules) (*Evaluator, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if facts == nil {
		facts = calendar.NullCalendar{}
	}
	return &Evaluator{Facts: facts, rules: rules, cache: newResultCache()}, nil
}

// Rules returns a copy of the current rule document.
func (e *Evaluator) Rules() Rules {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules
}

// SetRules replaces the rule document after validation. The result cache is
// cleared and the version bumped so stale entries can never be served.
func (e *Evaluator) SetRules(rules Rules) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if rules.Version <= e.rules.Version {
		rules.Version = e.rules.Version + 1
	}
	e.rules = rules
	e.cache.clear()
	return nil
}

// categoryOrder fixes the reporting order of rule categories.
var categoryOrder = []Type{
	TypeUserLeaveOverlap,
	TypeTeamAbsence,
	TypeTeamCapacity,
	TypeSpecialtyCapacity,
	TypeCriticalRole,
	TypeDutyConflict,
	TypeAssignment,
	TypeDeadlineProximity,
	TypeRecurringMeeting,
	TypeHolidayProximity,
	TypeHighWorkload,
	TypeSpecialPeriod,
}

// Evaluate checks a leave request and returns the findings and decision.
func (e *Evaluator) Evaluate(ctx context.Context, leave Leave, ec Context) (CheckResult, error) {
	if leave.UserID == "" {
		return CheckResult{}, fmt.Errorf("%w: missing user id", ErrInvalidLeave)
	}
	if err := leave.Span().Validate(); err != nil {
		return CheckResult{}, fmt.Errorf("%w: %v", ErrInvalidLeave, err)
	}

	rules := e.Rules()

	if rules.EnableCaching {
		if result, ok := e.cache.get(cacheKeyFor(leave, rules.Version)); ok {
			return result, nil
		}
	}

	findings := make(map[Type][]LeaveConflict, len(categoryOrder))
	var skipped []Type

	// Overlap first: cheapest check, and the only non-overridable category,
	// so it alone can justify an early return.
	findings[TypeUserLeaveOverlap] = e.checkUserOverlap(leave, ec)

	if rules.StopCheckingAfterBlockingConflict && hasHardBlocker(findings[TypeUserLeaveOverlap]) {
		result := resultFrom(findings[TypeUserLeaveOverlap], nil)
		e.cacheResult(leave, rules, result)
		return result, nil
	}

	type category struct {
		typ   Type
		run   func() []LeaveConflict
		needs bool // context available
	}
	categories := []category{
		{TypeTeamAbsence, func() []LeaveConflict { return e.checkTeamAbsence(leave, ec, rules) },
			ec.Roster != nil || rules.MaxTeamAbsencePercentage == 0},
		{TypeTeamCapacity, func() []LeaveConflict { return e.checkTeamCapacity(leave, ec, rules) },
			ec.Roster != nil || rules.TeamMinCapacity == 0},
		{TypeSpecialtyCapacity, func() []LeaveConflict { return e.checkSpecialtyCapacity(leave, ec, rules) },
			ec.Roster != nil || rules.SpecialtyMinCapacity == 0},
		{TypeCriticalRole, func() []LeaveConflict { return e.checkCriticalRoles(leave, ec, rules) }, true},
		{TypeDutyConflict, func() []LeaveConflict { return e.checkDuties(leave, ec, rules) }, true},
		{TypeAssignment, func() []LeaveConflict { return e.checkAssignments(leave, ec) }, true},
		{TypeDeadlineProximity, func() []LeaveConflict { return e.checkDeadlinesAndSpacing(leave, ec, rules) }, true},
		{TypeRecurringMeeting, func() []LeaveConflict { return e.checkMeetings(leave, ec) }, true},
		{TypeHolidayProximity, func() []LeaveConflict { return e.checkHolidayBridging(leave, rules) }, true},
		{TypeHighWorkload, func() []LeaveConflict { return e.checkHighWorkload(leave, ec, rules) }, true},
		{TypeSpecialPeriod, func() []LeaveConflict { return e.checkSpecialPeriods(leave, rules) }, true},
	}

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for _, cat := range categories {
		cat := cat
		if !cat.needs {
			log.Printf("[Evaluator] skipping %s check: missing roster data", cat.typ)
			skipped = append(skipped, cat.typ)
			continue
		}
		g.Go(func() error {
			result := cat.run()
			mu.Lock()
			findings[cat.typ] = result
			mu.Unlock()
			return nil
		})
	}
	// Checks only read immutable inputs; the group exists for parallelism,
	// not error propagation.
	_ = g.Wait()

	var ordered []LeaveConflict
	for _, typ := range categoryOrder {
		ordered = append(ordered, findings[typ]...)
		if rules.StopCheckingAfterBlockingConflict && hasHardBlocker(findings[typ]) {
			break
		}
	}

	result := resultFrom(ordered, skipped)
	e.cacheResult(leave, rules, result)
	return result, nil
}

func (e *Evaluator) cacheResult(leave Leave, rules Rules, result CheckResult) {
	if !rules.EnableCaching {
		return
	}
	ttl := time.Duration(rules.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	e.cache.put(cacheKeyFor(leave, rules.Version), result, ttl)
}

func hasHardBlocker(conflicts []LeaveConflict) bool {
	for _, c := range conflicts {
		if c.Blocks() {
			return true
		}
	}
	return false
}

// =============================================================================
// RULE CATEGORIES
// =============================================================================

func (e *Evaluator) checkUserOverlap(leave Leave, ec Context) []LeaveConflict {
	var out []LeaveConflict
	for _, other := range ec.ExistingLeaves {
		if other.UserID != leave.UserID || other.ID == leave.ID || !other.Countable() {
			continue
		}
		if !leave.Span().Overlaps(other.Span()) {
			continue
		}
		out = append(out, LeaveConflict{
			ID:       fmt.Sprintf("user-leave-overlap-%s", other.ID),
			LeaveID:  leave.ID,
			Type:     TypeUserLeaveOverlap,
			Severity: SeverityBlocking,
			Description: fmt.Sprintf("Overlaps an existing %s leave from %s to %s",
				other.Status, other.StartDate, other.EndDate),
			StartDate:       other.StartDate,
			EndDate:         other.EndDate,
			AffectedUserIDs: []string{leave.UserID},
			CanOverride:     false,
		})
	}
	return out
}

func (e *Evaluator) checkTeamAbsence(leave Leave, ec Context, rules Rules) []LeaveConflict {
	if rules.MaxTeamAbsencePercentage == 0 || leave.TeamID == "" || ec.Roster == nil {
		return nil
	}
	size := ec.Roster.TeamSize(leave.TeamID)
	if size == 0 {
		return nil
	}
	var out []LeaveConflict
	for _, d := range leave.Span().Days() {
		if d.IsWeekend() {
			continue
		}
		absent := ec.Roster.TeamAbsentOn(leave.TeamID, d)
		pct := float64(len(absent)+1) / float64(size) * 100 // +1: this request
		if pct < rules.MaxTeamAbsencePercentage {
			continue
		}
		out = append(out, LeaveConflict{
			ID:       fmt.Sprintf("team-absence-%s", d),
			LeaveID:  leave.ID,
			Type:     TypeTeamAbsence,
			Severity: SeverityWarning,
			Description: fmt.Sprintf("%.0f%% of team %s would be absent on %s",
				pct, leave.TeamID, d),
			StartDate:       d,
			EndDate:         d,
			AffectedUserIDs: absent,
			CanOverride:     true,
		})
	}
	return out
}

func (e *Evaluator) checkTeamCapacity(leave Leave, ec Context, rules Rules) []LeaveConflict {
	if rules.TeamMinCapacity == 0 || leave.TeamID == "" || ec.Roster == nil {
		return nil
	}
	size := ec.Roster.TeamSize(leave.TeamID)
	if size == 0 {
		return nil
	}
	var out []LeaveConflict
	for _, d := range leave.Span().Days() {
		if d.IsWeekend() {
			continue
		}
		absent := ec.Roster.TeamAbsentOn(leave.TeamID, d)
		remaining := size - len(absent) - 1
		if remaining >= rules.TeamMinCapacity {
			continue
		}
		severity := SeverityWarning
		if remaining <= 0 {
			severity = SeverityBlocking
		}
		out = append(out, LeaveConflict{
			ID:       fmt.Sprintf("team-capacity-%s", d),
			LeaveID:  leave.ID,
			Type:     TypeTeamCapacity,
			Severity: severity,
			Description: fmt.Sprintf("Team %s would drop to %d present on %s (minimum %d)",
				leave.TeamID, remaining, d, rules.TeamMinCapacity),
			StartDate:       d,
			EndDate:         d,
			AffectedUserIDs: absent,
			CanOverride:     true,
		})
	}
	return out
}

func (e *Evaluator) checkSpecialtyCapacity(leave Leave, ec Context, rules Rules) []LeaveConflict {
	if rules.SpecialtyMinCapacity == 0 || leave.Specialty == "" || ec.Roster == nil {
		return nil
	}
	size := ec.Roster.SpecialtyHeadcount(leave.Specialty)
	if size == 0 {
		return nil
	}
	var out []LeaveConflict
	for _, d := range leave.Span().Days() {
		if d.IsWeekend() {
			continue
		}
		absent := ec.Roster.SpecialtyAbsentOn(leave.Specialty, d)
		remaining := size - len(absent) - 1
		if remaining >= rules.SpecialtyMinCapacity {
			continue
		}
		severity := SeverityWarning
		if remaining <= 0 {
			severity = SeverityBlocking
		}
		out = append(out, LeaveConflict{
			ID:       fmt.Sprintf("specialty-capacity-%s-%s", leave.Specialty, d),
			LeaveID:  leave.ID,
			Type:     TypeSpecialtyCapacity,
			Severity: severity,
			Description: fmt.Sprintf("Specialty %s would drop to %d present on %s (minimum %d)",
				leave.Specialty, remaining, d, rules.SpecialtyMinCapacity),
			StartDate:       d,
			EndDate:         d,
			AffectedUserIDs: absent,
			CanOverride:     true,
		})
	}
	return out
}

func (e *Evaluator) checkCriticalRoles(leave Leave, ec Context, rules Rules) []LeaveConflict {
	if !rules.CriticalRolesRequireBackup {
		return nil
	}
	absentDuring := func(userID string) bool {
		for _, other := range ec.ExistingLeaves {
			if other.UserID == userID && other.Status == LeaveApproved &&
				leave.Span().Overlaps(other.Span()) {
				return true
			}
		}
		return false
	}

	var out []LeaveConflict
	for _, role := range ec.CriticalRoles {
		if len(role.BackupUserIDs) == 0 {
			out = append(out, LeaveConflict{
				ID:          fmt.Sprintf("critical-role-%s-no-backup", role.ID),
				LeaveID:     leave.ID,
				Type:        TypeCriticalRole,
				Severity:    SeverityBlocking,
				Description: fmt.Sprintf("No backup exists for critical role %q", role.Name),
				StartDate:   leave.StartDate,
				EndDate:     leave.EndDate,
				CanOverride: ec.OverridePrivilege,
			})
			continue
		}

		var unavailable []string
		for _, backup := range role.BackupUserIDs {
			if absentDuring(backup) {
				unavailable = append(unavailable, backup)
			}
		}
		if len(unavailable) == len(role.BackupUserIDs) {
			out = append(out, LeaveConflict{
				ID:       fmt.Sprintf("critical-role-%s-backups-absent", role.ID),
				LeaveID:  leave.ID,
				Type:     TypeCriticalRole,
				Severity: SeverityBlocking,
				Description: fmt.Sprintf("All backups for critical role %q are absent during this period",
					role.Name),
				StartDate:       leave.StartDate,
				EndDate:         leave.EndDate,
				AffectedUserIDs: unavailable,
				CanOverride:     ec.OverridePrivilege,
			})
		}
	}
	return out
}

func (e *Evaluator) checkDuties(leave Leave, ec Context, rules Rules) []LeaveConflict {
	if rules.AllowLeavesDuringDuty {
		return nil
	}
	var out []LeaveConflict
	for _, duty := range ec.Duties {
		if duty.UserID != leave.UserID || !leave.Span().Overlaps(duty.Span) {
			continue
		}
		label := duty.Label
		if label == "" {
			label = "duty"
		}
		out = append(out, LeaveConflict{
			ID:       fmt.Sprintf("duty-%s-%s", duty.UserID, duty.Span.Start),
			LeaveID:  leave.ID,
			Type:     TypeDutyConflict,
			Severity: SeverityBlocking,
			Description: fmt.Sprintf("Leave overlaps %s assignment %s", label,
				duty.Span),
			StartDate:       duty.Span.Start,
			EndDate:         duty.Span.End,
			AffectedUserIDs: []string{leave.UserID},
			CanOverride:     true,
		})
	}
	return out
}

func (e *Evaluator) checkAssignments(leave Leave, ec Context) []LeaveConflict {
	var out []LeaveConflict
	for _, a := range ec.Assignments {
		if a.UserID != leave.UserID || !leave.Span().Overlaps(a.Span) {
			continue
		}
		label := a.Label
		if label == "" {
			label = "planned assignment"
		}
		out = append(out, LeaveConflict{
			ID:              fmt.Sprintf("assignment-%s-%s", a.UserID, a.Span.Start),
			LeaveID:         leave.ID,
			Type:            TypeAssignment,
			Severity:        SeverityWarning,
			Description:     fmt.Sprintf("Leave overlaps %s %s", label, a.Span),
			StartDate:       a.Span.Start,
			EndDate:         a.Span.End,
			AffectedUserIDs: []string{leave.UserID},
			CanOverride:     true,
		})
	}
	return out
}

// checkDeadlinesAndSpacing covers the two WARNING-grade timing rules:
// deadline proximity and minimum spacing between the user's leaves.
func (e *Evaluator) checkDeadlinesAndSpacing(leave Leave, ec Context, rules Rules) []LeaveConflict {
	var out []LeaveConflict

	if rules.MinDaysBeforeDeadline > 0 {
		for _, deadline := range ec.Deadlines {
			gap := calendar.DaysBetween(leave.EndDate, deadline.Date)
			if gap < 0 || gap >= rules.MinDaysBeforeDeadline {
				continue
			}
			out = append(out, LeaveConflict{
				ID:       fmt.Sprintf("deadline-proximity-%s", deadline.ID),
				LeaveID:  leave.ID,
				Type:     TypeDeadlineProximity,
				Severity: SeverityWarning,
				Description: fmt.Sprintf("Leave ends %d day(s) before deadline %q (%s)",
					gap, deadline.Name, deadline.Date),
				StartDate:   leave.StartDate,
				EndDate:     leave.EndDate,
				CanOverride: true,
			})
		}
	}

	if rules.MinDaysBetweenLeaves > 0 {
		for _, other := range ec.ExistingLeaves {
			if other.UserID != leave.UserID || other.ID == leave.ID || !other.Countable() {
				continue
			}
			gap := spacingBetween(leave.Span(), other.Span())
			if gap < 0 || gap >= rules.MinDaysBetweenLeaves {
				continue
			}
			out = append(out, LeaveConflict{
				ID:       fmt.Sprintf("leave-spacing-%s", other.ID),
				LeaveID:  leave.ID,
				Type:     TypeDeadlineProximity,
				Severity: SeverityWarning,
				Description: fmt.Sprintf("Only %d day(s) between this leave and leave %s (minimum %d)",
					gap, other.ID, rules.MinDaysBetweenLeaves),
				StartDate:   leave.StartDate,
				EndDate:     leave.EndDate,
				CanOverride: true,
			})
		}
	}
	return out
}

// spacingBetween returns the number of free days separating two
// non-overlapping ranges, or -1 if they overlap.
func spacingBetween(a, b calendar.Range) int {
	if a.Overlaps(b) {
		return -1
	}
	if a.End.Before(b.Start) {
		return calendar.DaysBetween(a.End, b.Start) - 1
	}
	return calendar.DaysBetween(b.End, a.Start) - 1
}

func (e *Evaluator) checkMeetings(leave Leave, ec Context) []LeaveConflict {
	var out []LeaveConflict
	for _, d := range leave.Span().Days() {
		for _, m := range ec.Meetings {
			if d.Weekday() != m.Weekday || !contains(m.ParticipantIDs, leave.UserID) {
				continue
			}
			severity := SeverityInformation
			if m.Required {
				severity = SeverityWarning
			}
			out = append(out, LeaveConflict{
				ID:          fmt.Sprintf("recurring-meeting-%s-%s", m.ID, d),
				LeaveID:     leave.ID,
				Type:        TypeRecurringMeeting,
				Severity:    severity,
				Description: fmt.Sprintf("Conflicts with recurring meeting %q on %s", m.Name, d),
				StartDate:   d,
				EndDate:     d,
				CanOverride: true,
			})
		}
	}
	return out
}

func (e *Evaluator) checkHolidayBridging(leave Leave, rules Rules) []LeaveConflict {
	severity := SeverityInformation
	if rules.BlockHolidayBridging {
		severity = SeverityBlocking
	}

	var out []LeaveConflict
	// Bridge before a holiday: the leave ends on the eve of one.
	if name, ok := e.Facts.Holiday(leave.EndDate.AddDays(1)); ok {
		out = append(out, LeaveConflict{
			ID:          fmt.Sprintf("holiday-bridge-before-%s", leave.EndDate),
			LeaveID:     leave.ID,
			Type:        TypeHolidayProximity,
			Severity:    severity,
			Description: fmt.Sprintf("Leave bridges into holiday %q", name),
			StartDate:   leave.StartDate,
			EndDate:     leave.EndDate,
			CanOverride: true,
		})
	}
	// Bridge after a holiday: the leave starts the day after one.
	if name, ok := e.Facts.Holiday(leave.StartDate.AddDays(-1)); ok {
		out = append(out, LeaveConflict{
			ID:          fmt.Sprintf("holiday-bridge-after-%s", leave.StartDate),
			LeaveID:     leave.ID,
			Type:        TypeHolidayProximity,
			Severity:    severity,
			Description: fmt.Sprintf("Leave bridges out of holiday %q", name),
			StartDate:   leave.StartDate,
			EndDate:     leave.EndDate,
			CanOverride: true,
		})
	}
	return out
}

func (e *Evaluator) checkHighWorkload(leave Leave, ec Context, rules Rules) []LeaveConflict {
	severity := SeverityInformation
	if rules.BlockHighWorkloadPeriods {
		severity = SeverityBlocking
	}

	var out []LeaveConflict
	for _, period := range rules.HighWorkloadPeriods {
		if !leave.Span().Overlaps(period.Span) {
			continue
		}
		out = append(out, LeaveConflict{
			ID:          fmt.Sprintf("high-workload-%s", period.Span.Start),
			LeaveID:     leave.ID,
			Type:        TypeHighWorkload,
			Severity:    severity,
			Description: fmt.Sprintf("Leave falls in high-workload period: %s", period.Description),
			StartDate:   period.Span.Start,
			EndDate:     period.Span.End,
			CanOverride: true,
		})
	}
	for _, ref := range ec.RiskPeriods {
		if !ref.Severe || !leave.Span().Overlaps(ref.Span) {
			continue
		}
		out = append(out, LeaveConflict{
			ID:          fmt.Sprintf("risk-period-%s", ref.ID),
			LeaveID:     leave.ID,
			Type:        TypeHighWorkload,
			Severity:    severity,
			Description: fmt.Sprintf("Leave falls in detected high-risk period %s", ref.Span),
			StartDate:   ref.Span.Start,
			EndDate:     ref.Span.End,
			CanOverride: true,
		})
	}
	return out
}

func (e *Evaluator) checkSpecialPeriods(leave Leave, rules Rules) []LeaveConflict {
	var out []LeaveConflict
	for _, period := range rules.SpecialPeriods {
		if period.Restriction == RestrictionNone || !leave.Span().Overlaps(period.Span) {
			continue
		}
		var severity Severity
		switch period.Restriction {
		case RestrictionLow:
			severity = SeverityInformation
		case RestrictionMedium:
			severity = SeverityWarning
		case RestrictionHigh:
			severity = SeverityBlocking
		}
		out = append(out, LeaveConflict{
			ID:       fmt.Sprintf("special-period-%s", period.ID),
			LeaveID:  leave.ID,
			Type:     TypeSpecialPeriod,
			Severity: severity,
			Description: fmt.Sprintf("Leave overlaps special period %q (%s restriction)",
				period.Name, period.Restriction),
			StartDate:   period.Span.Start,
			EndDate:     period.Span.End,
			CanOverride: true,
		})
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
