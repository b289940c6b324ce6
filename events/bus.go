/*
Package events wires the risk engine to the scheduling application's
domain events.

PURPOSE:
  This file defines the in-process event bus and the typed payloads. Each
  event name has exactly one payload struct; handlers receive the concrete
  type and switch on it, so there are no "any"-typed payloads anywhere.

EVENTS CONSUMED:
  leave.created / leave.updated / leave.deleted  -> LeaveCreated/Updated/Deleted
  conflict.resolved                              -> ConflictResolved

EVENTS EMITTED:
  risk.period.detected / risk.period.deactivated -> RiskPeriodDetected/Deactivated

LIFECYCLE:
  Subscribe returns an unsubscribe handle; the coordinator keeps its
  handles and releases them on Stop so a restarted coordinator never
  double-handles events.

SEE ALSO:
  - coordinator.go: The only built-in subscriber
*/
package events

import (
	"sync"
	"time"

	"github.com/medplan/risk-engine/conflict"
	"github.com/medplan/risk-engine/risk"
)

// =============================================================================
// EVENT TYPES - One payload struct per event name
// =============================================================================

// Event is implemented by every payload struct.
type Event interface {
	Name() string
}

// LeaveCreated is published when a leave request is created.
type LeaveCreated struct {
	Leave conflict.Leave
}

func (LeaveCreated) Name() string { return "leave.created" }

// LeaveUpdated is published when a leave request changes.
type LeaveUpdated struct {
	Leave conflict.Leave
}

func (LeaveUpdated) Name() string { return "leave.updated" }

// LeaveDeleted is published when a leave request is removed.
type LeaveDeleted struct {
	Leave conflict.Leave
}

func (LeaveDeleted) Name() string { return "leave.deleted" }

// ConflictResolved is published when a previously reported conflict is
// resolved; it feeds the historical statistics store.
type ConflictResolved struct {
	ConflictID       string
	LeaveID          string
	ResolvedAt       time.Time
	ResolutionMethod string
	ResolvedBy       string
}

func (ConflictResolved) Name() string { return "conflict.resolved" }

// RiskPeriodDetected is emitted when an analysis pass closes a new period.
type RiskPeriodDetected struct {
	Period risk.Period
}

func (RiskPeriodDetected) Name() string { return "risk.period.detected" }

// RiskPeriodDeactivated is emitted when a period is manually deactivated.
type RiskPeriodDeactivated struct {
	Period risk.Period
}

func (RiskPeriodDeactivated) Name() string { return "risk.period.deactivated" }

// =============================================================================
// BUS - In-process pub/sub
// =============================================================================

// Handler processes one event. Handlers run synchronously on the
// publisher's goroutine; long work belongs in the handler's own goroutine.
type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus is a minimal in-process event bus. Safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]subscription)}
}

// Subscribe registers a handler for an event name and returns the
// unsubscribe handle.
func (b *Bus) Subscribe(name string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, handler: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[name]
		for i, s := range subs {
			if s.id == id {
				b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish dispatches an event to all current subscribers. The handler list
// is copied first so handlers may unsubscribe during dispatch.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[e.Name()]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(e)
	}
}
