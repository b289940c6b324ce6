/*
coordinator.go - Event-driven re-analysis and statistics updates

PURPOSE:
  Subscribes to leave and conflict-resolution events, keeps the historical
  statistics store current, and triggers tracker re-analysis. A periodic
  ticker also re-analyzes on a fixed interval so the catalogue has a
  bounded staleness even with no leave activity.

DESIGN:
  - Each event moves the coordinator Idle -> Processing -> Idle; the
    analysis itself runs on a background goroutine with a bounded timeout,
    so event dispatch never blocks behind a slow pass.
  - Implements risk.Notifier: tracker notifications become outbound
    risk.period.* bus events.
  - Start/Stop own the ticker goroutine and the subscription handles;
    Stop is idempotent and waits for in-flight work.

CONFIGURATION:
  - Interval:       periodic re-analysis cadence (default: 24h)
  - AnalyzeTimeout: per-pass deadline (default: 30s); on expiry the pass
    counts as a scoring failure and the prior catalogue stands

SEE ALSO:
  - bus.go:          Event payloads
  - risk/tracker.go: Analysis pass and failure semantics
*/
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/history"
	"github.com/medplan/risk-engine/risk"
)

// State reflects what the coordinator is currently doing.
type State string

const (
	StateIdle       State = "IDLE"
	StateProcessing State = "PROCESSING"
)

// Coordinator connects the bus, the tracker, and the historical store.
type Coordinator struct {
	Bus      *Bus
	Tracker  *risk.Tracker
	History  *history.Store
	Interval time.Duration
	// AnalyzeTimeout bounds a single analysis pass so a pathological
	// historical dataset cannot stall the periodic trigger.
	AnalyzeTimeout time.Duration

	mu      sync.Mutex
	state   State
	started bool
	unsubs  []func()
	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewCoordinator wires a coordinator with default cadence.
func NewCoordinator(bus *Bus, tracker *risk.Tracker, hist *history.Store) *Coordinator {
	return &Coordinator{
		Bus:            bus,
		Tracker:        tracker,
		History:        hist,
		Interval:       24 * time.Hour,
		AnalyzeTimeout: 30 * time.Second,
		state:          StateIdle,
		stop:           make(chan struct{}),
	}
}

// State returns the coordinator's current processing state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Start subscribes the handlers and launches the periodic ticker.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.unsubs = []func(){
		c.Bus.Subscribe("leave.created", c.handleEvent),
		c.Bus.Subscribe("leave.updated", c.handleEvent),
		c.Bus.Subscribe("leave.deleted", c.handleEvent),
		c.Bus.Subscribe("conflict.resolved", c.handleEvent),
	}
	c.ticker = time.NewTicker(c.Interval)
	c.stop = make(chan struct{})
	c.wg.Add(1)
	c.mu.Unlock()

	go c.run()
	log.Printf("[Coordinator] started, re-analysis interval %v", c.Interval)
}

// Stop unsubscribes, stops the ticker, and waits for in-flight analysis.
// Safe to call more than once.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
	c.ticker.Stop()
	close(c.stop)
	c.mu.Unlock()

	c.wg.Wait()
	log.Printf("[Coordinator] stopped")
}

func (c *Coordinator) run() {
	defer c.wg.Done()

	// Immediate pass on startup so the catalogue is warm before the
	// first tick.
	c.analyze()

	for {
		select {
		case <-c.ticker.C:
			c.analyze()
		case <-c.stop:
			return
		}
	}
}

// =============================================================================
// EVENT HANDLING
// =============================================================================

func (c *Coordinator) handleEvent(e Event) {
	c.setState(StateProcessing)
	defer c.setState(StateIdle)

	switch ev := e.(type) {
	case LeaveCreated:
		c.History.RecordLeaveRange(ev.Leave.Span())
		c.analyzeAsync()
	case LeaveUpdated:
		c.analyzeAsync()
	case LeaveDeleted:
		c.analyzeAsync()
	case ConflictResolved:
		resolvedAt := ev.ResolvedAt
		if resolvedAt.IsZero() {
			resolvedAt = time.Now()
		}
		c.History.RecordConflictResolution(calendar.DayOf(resolvedAt))
	default:
		log.Printf("[Coordinator] unexpected event %q (%T)", e.Name(), e)
	}
}

// analyzeAsync runs an analysis pass off the event-dispatch path.
func (c *Coordinator) analyzeAsync() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.analyze()
	}()
}

func (c *Coordinator) analyze() {
	ctx, cancel := context.WithTimeout(context.Background(), c.AnalyzeTimeout)
	defer cancel()
	c.Tracker.Analyze(ctx)
}

// =============================================================================
// OUTBOUND NOTIFICATIONS - risk.Notifier implementation
// =============================================================================

// PeriodDetected publishes a risk.period.detected event.
func (c *Coordinator) PeriodDetected(p risk.Period) {
	c.Bus.Publish(RiskPeriodDetected{Period: p})
}

// PeriodDeactivated publishes a risk.period.deactivated event.
func (c *Coordinator) PeriodDeactivated(p risk.Period) {
	c.Bus.Publish(RiskPeriodDeactivated{Period: p})
}
