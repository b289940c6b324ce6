/*
tracker.go - Risk period detection and catalogue

PURPOSE:
  Scans the forward-looking day window, merges contiguous at/above-threshold
  days into Period records, and owns the in-memory catalogue of detected
  periods. Each analysis pass fully recomputes the active set and replaces
  it atomically; manually deactivated periods survive passes untouched.

MERGE ALGORITHM:
  Walk the window day by day. A qualifying day (score >= minimum threshold)
  opens a run or extends the current one: the run's level only ever
  upgrades, its score is the running maximum, its conflict-type set is the
  union of daily predictions, and its expected conflict count is the mean
  of the daily predictions. The first non-qualifying day closes the run at
  the previous day; a run still open at the window edge closes there.

FAILURE SEMANTICS:
  Fail-safe, not fail-fast. A panic or deadline expiry during a pass is
  logged and Analyze returns nil; the previously published catalogue stays
  in place as last-known-good. A healthy pass that finds no qualifying day
  returns an empty, non-nil slice, so callers can tell "zero risk" apart
  from "no new information" (nil).

CONCURRENCY:
  analyzeMu serializes passes. catalogMu guards the published catalogue;
  readers take the read lock and receive copies, so a long pass never
  blocks queries and queries always see a consistent snapshot.

SEE ALSO:
  - scorer.go:            Daily scores and predictions
  - events/coordinator.go: Triggers passes and forwards notifications
*/
package risk

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/conflict"
)

// Tracker owns the risk period catalogue.
type Tracker struct {
	analyzeMu sync.Mutex
	catalogMu sync.RWMutex

	scorer   *Scorer
	opts     Options
	notifier Notifier
	now      func() calendar.Day

	periods []Period // active first-class catalogue plus preserved inactive periods
}

// NewTracker creates a tracker around a scorer. Options must be valid.
func NewTracker(scorer *Scorer, opts Options, notifier Notifier) (*Tracker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Tracker{
		scorer:   scorer,
		opts:     opts,
		notifier: notifier,
		now:      calendar.Today,
	}, nil
}

// SetClock overrides the "today" source. Intended for tests.
func (t *Tracker) SetClock(now func() calendar.Day) { t.now = now }

// SetNotifier swaps the notification sink. Called once during wiring,
// before any analysis pass runs.
func (t *Tracker) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	t.notifier = n
}

// Options returns a copy of the current detection options.
func (t *Tracker) Options() Options {
	t.catalogMu.RLock()
	defer t.catalogMu.RUnlock()
	return t.opts
}

// UpdateOptions merges a patch into the options, validates the result, and
// triggers a re-analysis.
func (t *Tracker) UpdateOptions(ctx context.Context, patch Patch) error {
	t.catalogMu.Lock()
	merged := t.opts.Apply(patch)
	if err := merged.Validate(); err != nil {
		t.catalogMu.Unlock()
		return err
	}
	t.opts = merged
	t.scorer.Opts = merged
	t.catalogMu.Unlock()

	t.Analyze(ctx)
	return nil
}

// =============================================================================
// ANALYSIS PASS
// =============================================================================

// Analyze recomputes the active period catalogue for the look-ahead window
// and publishes it atomically. Returns the freshly detected periods, empty
// but non-nil when the window is risk-free, or nil on failure (prior
// catalogue retained).
func (t *Tracker) Analyze(ctx context.Context) (result []Period) {
	t.analyzeMu.Lock()
	defer t.analyzeMu.Unlock()

	// A scoring panic must not poison the catalogue.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Tracker] analysis pass failed: %v", r)
			result = nil
		}
	}()

	opts := t.Options()
	today := t.now()
	window := calendar.Range{Start: today, End: today.AddDays(opts.LookAheadDays)}

	detected, err := t.scanWindow(ctx, window, opts)
	if err != nil {
		log.Printf("[Tracker] analysis pass aborted: %v", err)
		return nil
	}

	// Publish: replace the active set, preserve deactivated periods.
	t.catalogMu.Lock()
	var kept []Period
	for _, p := range t.periods {
		if !p.IsActive {
			kept = append(kept, p)
		}
	}
	t.periods = append(kept, detected...)
	t.catalogMu.Unlock()

	for _, p := range detected {
		t.notifier.PeriodDetected(p)
	}

	log.Printf("[Tracker] analysis pass complete: %d active period(s) in %s", len(detected), window)
	return detected
}

// run accumulates one in-progress period during a scan.
type run struct {
	start    calendar.Day
	level    Level
	score    int
	types    map[conflict.Type]bool
	countSum decimal.Decimal
	days     int
	reason   string
	histRate decimal.Decimal
}

func (t *Tracker) scanWindow(ctx context.Context, window calendar.Range, opts Options) ([]Period, error) {
	// Allocated even when empty: a nil return is reserved for failed passes.
	detected := make([]Period, 0)
	var current *run

	closeRun := func(end calendar.Day) {
		detected = append(detected, t.materialize(current, end))
		current = nil
	}

	for d := window.Start; d.BeforeOrEqual(window.End); d = d.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("window scan interrupted at %s: %w", d, err)
		}

		score := t.scorer.Score(d)
		if score < opts.MinimumRiskScoreThreshold {
			if current != nil {
				closeRun(d.AddDays(-1))
			}
			continue
		}

		level := LevelForScore(score, opts.Thresholds)
		if current == nil {
			current = &run{
				start:    d,
				level:    level,
				score:    score,
				types:    make(map[conflict.Type]bool),
				countSum: decimal.Zero,
				reason:   t.scorer.Reason(d),
				histRate: t.scorer.HistoricalConflictRate(d),
			}
		} else {
			// Level and score only ever upgrade within a run.
			current.level = current.level.Max(level)
			if score > current.score {
				current.score = score
			}
		}
		for _, typ := range t.scorer.PredictConflictTypes(d, score) {
			current.types[typ] = true
		}
		current.countSum = current.countSum.Add(t.scorer.PredictConflictCount(d, score))
		current.days++
	}

	if current != nil {
		closeRun(window.End)
	}
	return detected, nil
}

// materialize turns a closed run into an immutable Period. The expected
// conflict count is the mean of the daily predictions over the period.
func (t *Tracker) materialize(r *run, end calendar.Day) Period {
	expected := decimal.Zero
	if r.days > 0 {
		expected = r.countSum.Div(decimal.NewFromInt(int64(r.days)))
	}
	return Period{
		ID:                     uuid.NewString(),
		Span:                   calendar.Range{Start: r.start, End: end},
		Level:                  r.level,
		Score:                  r.score,
		AffectedTeams:          []string{},
		AffectedDepartments:    []string{},
		Reason:                 r.reason,
		ConflictTypes:          sortedTypes(r.types),
		ExpectedConflictCount:  expected,
		HistoricalConflictRate: r.histRate,
		IsActive:               true,
		CreatedAt:              time.Now().UTC(),
	}
}

// sortedTypes flattens the union set in the evaluator's category order so
// period payloads are deterministic.
func sortedTypes(set map[conflict.Type]bool) []conflict.Type {
	order := []conflict.Type{
		conflict.TypeUserLeaveOverlap,
		conflict.TypeTeamAbsence,
		conflict.TypeTeamCapacity,
		conflict.TypeSpecialtyCapacity,
		conflict.TypeCriticalRole,
		conflict.TypeDutyConflict,
		conflict.TypeAssignment,
		conflict.TypeRecurringMeeting,
		conflict.TypeDeadlineProximity,
		conflict.TypeHolidayProximity,
		conflict.TypeSpecialPeriod,
		conflict.TypeHighWorkload,
		conflict.TypeOther,
	}
	var out []conflict.Type
	for _, typ := range order {
		if set[typ] {
			out = append(out, typ)
		}
	}
	return out
}

// =============================================================================
// QUERIES
// =============================================================================

// Periods returns a copy of the whole catalogue, active and inactive.
func (t *Tracker) Periods() []Period {
	t.catalogMu.RLock()
	defer t.catalogMu.RUnlock()
	out := make([]Period, len(t.periods))
	copy(out, t.periods)
	return out
}

// CurrentPeriods returns active periods whose range contains today.
func (t *Tracker) CurrentPeriods() []Period {
	today := t.now()
	t.catalogMu.RLock()
	defer t.catalogMu.RUnlock()
	var out []Period
	for _, p := range t.periods {
		if p.IsActive && p.Contains(today) {
			out = append(out, p)
		}
	}
	return out
}

// UpcomingPeriods returns active periods starting strictly after today and
// within daysAhead days.
func (t *Tracker) UpcomingPeriods(daysAhead int) []Period {
	today := t.now()
	horizon := today.AddDays(daysAhead)
	t.catalogMu.RLock()
	defer t.catalogMu.RUnlock()
	var out []Period
	for _, p := range t.periods {
		if p.IsActive && p.Span.Start.After(today) && p.Span.Start.BeforeOrEqual(horizon) {
			out = append(out, p)
		}
	}
	return out
}

// ActiveRefs returns the evaluator's view of all active periods.
func (t *Tracker) ActiveRefs() []conflict.RiskPeriodRef {
	t.catalogMu.RLock()
	defer t.catalogMu.RUnlock()
	var out []conflict.RiskPeriodRef
	for _, p := range t.periods {
		if p.IsActive {
			out = append(out, p.Ref())
		}
	}
	return out
}

// Deactivate marks a period inactive and notifies. Returns false when the
// id is unknown or the period is already inactive (idempotent).
func (t *Tracker) Deactivate(id string) bool {
	t.catalogMu.Lock()
	var deactivated *Period
	for i := range t.periods {
		if t.periods[i].ID == id && t.periods[i].IsActive {
			t.periods[i].IsActive = false
			p := t.periods[i]
			deactivated = &p
			break
		}
	}
	t.catalogMu.Unlock()

	if deactivated == nil {
		return false
	}
	t.notifier.PeriodDeactivated(*deactivated)
	return true
}

// Restore reloads previously persisted periods (active and inactive) into
// the catalogue at startup.
func (t *Tracker) Restore(periods []Period) {
	t.catalogMu.Lock()
	defer t.catalogMu.Unlock()
	t.periods = append([]Period(nil), periods...)
}
