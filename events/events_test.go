package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/conflict"
	"github.com/medplan/risk-engine/events"
	"github.com/medplan/risk-engine/history"
	"github.com/medplan/risk-engine/risk"
)

// =============================================================================
// BUS TESTS
// =============================================================================

func TestBus_PublishReachesSubscribers(t *testing.T) {
	bus := events.NewBus()

	var got []events.Event
	bus.Subscribe("leave.created", func(e events.Event) { got = append(got, e) })

	leave := conflict.Leave{ID: "l-1", UserID: "u-1"}
	bus.Publish(events.LeaveCreated{Leave: leave})
	bus.Publish(events.LeaveDeleted{Leave: leave}) // no subscriber

	require.Len(t, got, 1)
	created, ok := got[0].(events.LeaveCreated)
	require.True(t, ok)
	assert.Equal(t, "l-1", created.Leave.ID)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := events.NewBus()

	count := 0
	unsub := bus.Subscribe("leave.created", func(events.Event) { count++ })
	stays := 0
	bus.Subscribe("leave.created", func(events.Event) { stays++ })

	bus.Publish(events.LeaveCreated{})
	unsub()
	unsub() // second call is a no-op
	bus.Publish(events.LeaveCreated{})

	assert.Equal(t, 1, count)
	assert.Equal(t, 2, stays, "other subscribers are unaffected")
}

// =============================================================================
// COORDINATOR TESTS
// =============================================================================

func newTestCoordinator(t *testing.T) (*events.Coordinator, *events.Bus, *history.Store, *risk.Tracker) {
	t.Helper()

	hist := history.NewStore()
	opts := risk.DefaultOptions()
	opts.EnableHolidayDetection = false
	opts.EnableSeasonalityAnalysis = false

	scorer := risk.NewScorer(calendar.NullCalendar{}, hist, opts)
	tracker, err := risk.NewTracker(scorer, opts, nil)
	require.NoError(t, err)
	tracker.SetClock(func() calendar.Day { return calendar.NewDay(2026, time.March, 2) })

	bus := events.NewBus()
	c := events.NewCoordinator(bus, tracker, hist)
	tracker.SetNotifier(c)
	return c, bus, hist, tracker
}

func TestCoordinator_LeaveCreated_RecordsHistory(t *testing.T) {
	// GIVEN: A started coordinator
	// WHEN: A leave.created event arrives
	// THEN: Every day of the leave lands in the historical store

	c, bus, hist, _ := newTestCoordinator(t)
	c.Start()
	defer c.Stop()

	bus.Publish(events.LeaveCreated{Leave: conflict.Leave{
		ID:        "l-1",
		UserID:    "u-1",
		StartDate: calendar.NewDay(2026, time.April, 1),
		EndDate:   calendar.NewDay(2026, time.April, 3),
		Status:    conflict.LeavePending,
	}})

	for i := 0; i < 3; i++ {
		point, ok := hist.At(calendar.NewDay(2026, time.April, 1).AddDays(i))
		require.True(t, ok)
		assert.Equal(t, 1, point.LeaveCount)
	}
}

func TestCoordinator_ConflictResolved_RecordsResolutionDay(t *testing.T) {
	c, bus, hist, _ := newTestCoordinator(t)
	c.Start()
	defer c.Stop()

	resolvedAt := time.Date(2026, time.February, 10, 14, 30, 0, 0, time.UTC)
	bus.Publish(events.ConflictResolved{
		ConflictID: "c-1",
		LeaveID:    "l-1",
		ResolvedAt: resolvedAt,
	})

	point, ok := hist.At(calendar.NewDay(2026, time.February, 10))
	require.True(t, ok)
	assert.Equal(t, 1, point.ConflictCount)
}

func TestCoordinator_StopUnsubscribes(t *testing.T) {
	c, bus, hist, _ := newTestCoordinator(t)
	c.Start()
	c.Stop()
	c.Stop() // idempotent

	bus.Publish(events.ConflictResolved{ConflictID: "c-1", ResolvedAt: time.Now()})
	assert.Equal(t, 0, hist.Len(), "stopped coordinator ignores events")
}

func TestCoordinator_PublishesPeriodNotifications(t *testing.T) {
	c, bus, _, tracker := newTestCoordinator(t)

	var names []string
	bus.Subscribe("risk.period.detected", func(e events.Event) { names = append(names, e.Name()) })
	bus.Subscribe("risk.period.deactivated", func(e events.Event) { names = append(names, e.Name()) })

	period := risk.Period{
		ID:       "p-1",
		Span:     calendar.NewRange(calendar.NewDay(2026, time.March, 2), calendar.NewDay(2026, time.March, 4)),
		Level:    risk.LevelMedium,
		IsActive: true,
	}
	c.PeriodDetected(period)

	tracker.Restore([]risk.Period{period})
	require.True(t, tracker.Deactivate("p-1"))

	assert.Equal(t, []string{"risk.period.detected", "risk.period.deactivated"}, names)
}

func TestCoordinator_StateTransitions(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)
	assert.Equal(t, events.StateIdle, c.State())

	c.Start()
	defer c.Stop()

	// Dispatch runs synchronously, so by the time Publish returns the
	// coordinator is idle again.
	c.Bus.Publish(events.ConflictResolved{ConflictID: "c-1", ResolvedAt: time.Now()})
	assert.Equal(t, events.StateIdle, c.State())
}

func TestCoordinator_RestartAfterStop(t *testing.T) {
	c, bus, hist, _ := newTestCoordinator(t)
	c.Start()
	c.Stop()
	c.Start()
	defer c.Stop()

	bus.Publish(events.ConflictResolved{ConflictID: "c-1", ResolvedAt: time.Now()})
	assert.Equal(t, 1, hist.Len(), "restarted coordinator handles events again")
}
