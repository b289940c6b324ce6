package risk_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/history"
	"github.com/medplan/risk-engine/risk"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTracker builds a tracker over a scorer whose only signal is the
// prior-year team absence rate, so tests control daily scores exactly.
func newTracker(t *testing.T, hist *history.Store, opts risk.Options, today calendar.Day) *risk.Tracker {
	t.Helper()
	scorer := risk.NewScorer(calendar.NullCalendar{}, hist, opts)
	tracker, err := risk.NewTracker(scorer, opts, nil)
	require.NoError(t, err)
	tracker.SetClock(func() calendar.Day { return today })
	return tracker
}

// quietOptions disables the calendar-driven signals; scores come only from
// history and weekday factors.
func quietOptions() risk.Options {
	opts := risk.DefaultOptions()
	opts.EnableHolidayDetection = false
	opts.EnableSeasonalityAnalysis = false
	return opts
}

// markRisky sets a full prior-year absence rate so the anniversary day
// scores at least 50.
func markRisky(t *testing.T, hist *history.Store, d calendar.Day) {
	t.Helper()
	prior := calendar.NewDay(d.Year()-1, d.Month(), d.DayOfMonth())
	require.NoError(t, hist.SetTeamAbsenceRate(prior, "icu", decimal.NewFromInt(1)))
}

// =============================================================================
// ANALYSIS PASS
// =============================================================================

func TestAnalyze_MergesContiguousDaysIntoOnePeriod(t *testing.T) {
	// GIVEN: Five consecutive risky days inside the window
	// WHEN: Running an analysis pass
	// THEN: They merge into a single MEDIUM period

	today := calendar.NewDay(2026, time.March, 2) // a Monday
	hist := history.NewStore()
	for i := 0; i < 5; i++ {
		markRisky(t, hist, today.AddDays(i))
	}

	opts := quietOptions()
	opts.LookAheadDays = 20
	tracker := newTracker(t, hist, opts, today)

	detected := tracker.Analyze(context.Background())
	require.Len(t, detected, 1)

	p := detected[0]
	assert.Equal(t, today, p.Span.Start)
	assert.Equal(t, today.AddDays(4), p.Span.End)
	assert.Equal(t, risk.LevelMedium, p.Level)
	assert.Equal(t, 60, p.Score, "score is the running max (Friday: 50+10)")
	assert.True(t, p.IsActive)
	assert.NotEmpty(t, p.ID)
	assert.NotEmpty(t, p.Reason)
	assert.NotEmpty(t, p.ConflictTypes)
	assert.False(t, p.ExpectedConflictCount.IsNegative())
}

func TestAnalyze_GapSplitsPeriods(t *testing.T) {
	// GIVEN: Two risky stretches separated by quiet days
	today := calendar.NewDay(2026, time.March, 2)
	hist := history.NewStore()
	for i := 0; i < 5; i++ { // Mar 2-6
		markRisky(t, hist, today.AddDays(i))
	}
	for i := 9; i < 12; i++ { // Mar 11-13
		markRisky(t, hist, today.AddDays(i))
	}

	opts := quietOptions()
	opts.LookAheadDays = 11 // window ends Mar 13, second run closes at the edge
	tracker := newTracker(t, hist, opts, today)

	detected := tracker.Analyze(context.Background())
	require.Len(t, detected, 2)

	assert.Equal(t, today.AddDays(4), detected[0].Span.End)
	assert.Equal(t, today.AddDays(9), detected[1].Span.Start)
	assert.Equal(t, today.AddDays(11), detected[1].Span.End)
}

func TestAnalyze_Idempotent(t *testing.T) {
	// Two passes over unchanged data detect the same spans and levels.
	today := calendar.NewDay(2026, time.March, 2)
	hist := history.NewStore()
	for i := 0; i < 5; i++ {
		markRisky(t, hist, today.AddDays(i))
	}
	tracker := newTracker(t, hist, quietOptions(), today)

	first := tracker.Analyze(context.Background())
	second := tracker.Analyze(context.Background())

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Span, second[i].Span)
		assert.Equal(t, first[i].Level, second[i].Level)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
	// The catalogue holds only the latest pass
	assert.Len(t, tracker.Periods(), len(second))
}

func TestAnalyze_RaisesThreshold_ShrinksCatalogue(t *testing.T) {
	today := calendar.NewDay(2026, time.March, 2)
	hist := history.NewStore()
	for i := 0; i < 5; i++ {
		markRisky(t, hist, today.AddDays(i))
	}
	tracker := newTracker(t, hist, quietOptions(), today)

	require.Len(t, tracker.Analyze(context.Background()), 1)

	// Raising the floor above the daily scores empties the active set
	threshold, medium, high, critical := 70, 75, 80, 90
	err := tracker.UpdateOptions(context.Background(), risk.Patch{
		MinimumRiskScoreThreshold: &threshold,
		Thresholds:                &risk.LevelThresholds{Medium: medium, High: high, Critical: critical},
	})
	require.NoError(t, err)
	assert.Empty(t, tracker.Periods())
}

func TestUpdateOptions_RejectsInvalidMerge(t *testing.T) {
	today := calendar.NewDay(2026, time.March, 2)
	tracker := newTracker(t, history.NewStore(), quietOptions(), today)

	bad := -5
	err := tracker.UpdateOptions(context.Background(), risk.Patch{LookAheadDays: &bad})
	assert.ErrorIs(t, err, risk.ErrInvalidOptions)

	// The options are untouched after a failed merge
	assert.Equal(t, quietOptions().LookAheadDays, tracker.Options().LookAheadDays)
}

func TestAnalyze_QuietWindow_SucceedsWithEmptyResult(t *testing.T) {
	// GIVEN: A window with no qualifying day
	// WHEN: Running an analysis pass
	// THEN: The result is empty but non-nil; nil is reserved for failed passes

	today := calendar.NewDay(2026, time.March, 2)
	tracker := newTracker(t, history.NewStore(), quietOptions(), today)

	detected := tracker.Analyze(context.Background())
	assert.NotNil(t, detected, "a risk-free pass is a success, not a failure")
	assert.Empty(t, detected)
}

func TestAnalyze_QuietWindow_ClearsStaleActivePeriods(t *testing.T) {
	// A restored active period from an earlier run must not outlive a pass
	// that finds the window risk-free.
	today := calendar.NewDay(2026, time.March, 2)
	tracker := newTracker(t, history.NewStore(), quietOptions(), today)
	tracker.Restore([]risk.Period{{
		ID:       "stale-1",
		Span:     calendar.NewRange(today, today.AddDays(4)),
		Level:    risk.LevelMedium,
		Score:    50,
		IsActive: true,
	}})

	detected := tracker.Analyze(context.Background())
	require.NotNil(t, detected)
	assert.Empty(t, detected)
	assert.Empty(t, tracker.Periods())
}

func TestAnalyze_CancelledContext_KeepsPriorCatalogue(t *testing.T) {
	today := calendar.NewDay(2026, time.March, 2)
	hist := history.NewStore()
	for i := 0; i < 5; i++ {
		markRisky(t, hist, today.AddDays(i))
	}
	tracker := newTracker(t, hist, quietOptions(), today)

	first := tracker.Analyze(context.Background())
	require.Len(t, first, 1)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, tracker.Analyze(cancelled), "aborted pass returns nil")

	// Last-known-good catalogue stands
	assert.Len(t, tracker.Periods(), 1)
	assert.Equal(t, first[0].Span, tracker.Periods()[0].Span)
}

// =============================================================================
// QUERIES AND LIFECYCLE
// =============================================================================

func TestCurrentAndUpcomingPeriods(t *testing.T) {
	today := calendar.NewDay(2026, time.March, 2)
	hist := history.NewStore()
	for i := 0; i < 3; i++ { // current: Mar 2-4
		markRisky(t, hist, today.AddDays(i))
	}
	for i := 9; i < 12; i++ { // upcoming: Mar 11-13
		markRisky(t, hist, today.AddDays(i))
	}
	tracker := newTracker(t, hist, quietOptions(), today)
	require.Len(t, tracker.Analyze(context.Background()), 2)

	current := tracker.CurrentPeriods()
	require.Len(t, current, 1)
	assert.True(t, current[0].Contains(today))

	upcoming := tracker.UpcomingPeriods(30)
	require.Len(t, upcoming, 1)
	assert.True(t, upcoming[0].Span.Start.After(today))

	// A horizon short of the second period hides it
	assert.Empty(t, tracker.UpcomingPeriods(5))
}

func TestDeactivate_IdempotentAndPreservedAcrossPasses(t *testing.T) {
	today := calendar.NewDay(2026, time.March, 2)
	hist := history.NewStore()
	for i := 0; i < 3; i++ {
		markRisky(t, hist, today.AddDays(i))
	}
	tracker := newTracker(t, hist, quietOptions(), today)

	detected := tracker.Analyze(context.Background())
	require.Len(t, detected, 1)
	id := detected[0].ID

	assert.True(t, tracker.Deactivate(id))
	assert.False(t, tracker.Deactivate(id), "second deactivation is a no-op")
	assert.False(t, tracker.Deactivate("no-such-period"))

	assert.Empty(t, tracker.CurrentPeriods())

	// A new pass redetects the span but keeps the deactivated record
	tracker.Analyze(context.Background())
	var inactive int
	for _, p := range tracker.Periods() {
		if !p.IsActive {
			inactive++
			assert.Equal(t, id, p.ID)
		}
	}
	assert.Equal(t, 1, inactive)
}

func TestActiveRefs_SevereOnlyForHighLevels(t *testing.T) {
	today := calendar.NewDay(2026, time.March, 2)
	hist := history.NewStore()
	for i := 0; i < 3; i++ {
		markRisky(t, hist, today.AddDays(i))
	}
	tracker := newTracker(t, hist, quietOptions(), today)
	require.NotEmpty(t, tracker.Analyze(context.Background()))

	refs := tracker.ActiveRefs()
	require.Len(t, refs, 1)
	assert.False(t, refs[0].Severe, "MEDIUM periods are not severe")
}

func TestRestore_ReloadsCatalogue(t *testing.T) {
	today := calendar.NewDay(2026, time.March, 2)
	tracker := newTracker(t, history.NewStore(), quietOptions(), today)

	span := calendar.NewRange(today, today.AddDays(3))
	tracker.Restore([]risk.Period{
		{ID: "p-1", Span: span, Level: risk.LevelHigh, Score: 70, IsActive: true},
		{ID: "p-2", Span: span, Level: risk.LevelMedium, Score: 45, IsActive: false},
	})

	assert.Len(t, tracker.Periods(), 2)
	require.Len(t, tracker.CurrentPeriods(), 1)
	assert.Equal(t, "p-1", tracker.CurrentPeriods()[0].ID)

	refs := tracker.ActiveRefs()
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Severe)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

type recordingNotifier struct {
	detected    []risk.Period
	deactivated []risk.Period
}

func (n *recordingNotifier) PeriodDetected(p risk.Period)    { n.detected = append(n.detected, p) }
func (n *recordingNotifier) PeriodDeactivated(p risk.Period) { n.deactivated = append(n.deactivated, p) }

func TestTracker_Notifications(t *testing.T) {
	today := calendar.NewDay(2026, time.March, 2)
	hist := history.NewStore()
	for i := 0; i < 3; i++ {
		markRisky(t, hist, today.AddDays(i))
	}
	tracker := newTracker(t, hist, quietOptions(), today)

	notifier := &recordingNotifier{}
	tracker.SetNotifier(notifier)

	detected := tracker.Analyze(context.Background())
	require.Len(t, detected, 1)
	require.Len(t, notifier.detected, 1)
	assert.Equal(t, detected[0].ID, notifier.detected[0].ID)

	tracker.Deactivate(detected[0].ID)
	require.Len(t, notifier.deactivated, 1)
	assert.False(t, notifier.deactivated[0].IsActive)
}
