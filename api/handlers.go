/*
handlers.go - HTTP handlers for the risk engine API

PURPOSE:
  Thin translation layer between HTTP and the engine packages. Handlers
  decode, delegate, persist, and encode; no scoring or rule logic lives
  here.

ENDPOINTS:
  POST   /api/risk/analyze            Run an analysis pass now
  GET    /api/risk/periods            Full catalogue (active and inactive)
  GET    /api/risk/periods/current    Active periods containing today
  GET    /api/risk/periods/upcoming   Active periods starting within ?days
  DELETE /api/risk/periods/{id}       Deactivate a period
  PATCH  /api/risk/options            Partial detection-option update
  GET    /api/rules                   Current conflict rules
  PUT    /api/rules                   Replace conflict rules
  POST   /api/leaves/check            Evaluate a leave request
  POST   /api/events/leave            Inject a leave domain event
  POST   /api/events/conflict-resolved Inject a conflict.resolved event

PERSISTENCE:
  Mutations write through to the SQLite store when one is wired: the period
  catalogue after analyze/deactivate, the rule document on PUT. Persistence
  failures are logged, not surfaced; the in-memory state is authoritative.

SEE ALSO:
  - dto.go:    Request/response types
  - server.go: Router wiring
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/medplan/risk-engine/conflict"
	"github.com/medplan/risk-engine/events"
	"github.com/medplan/risk-engine/history"
	"github.com/medplan/risk-engine/risk"
	"github.com/medplan/risk-engine/store/sqlite"
)

// Handler holds the engine components the HTTP surface exposes.
type Handler struct {
	Tracker   *risk.Tracker
	Evaluator *conflict.Evaluator
	Bus       *events.Bus
	History   *history.Store
	Store     *sqlite.Store // optional; nil disables write-through
}

// NewHandler creates a handler over the engine components.
func NewHandler(tracker *risk.Tracker, evaluator *conflict.Evaluator, bus *events.Bus, hist *history.Store, store *sqlite.Store) *Handler {
	return &Handler{
		Tracker:   tracker,
		Evaluator: evaluator,
		Bus:       bus,
		History:   hist,
		Store:     store,
	}
}

// =============================================================================
// RISK PERIODS
// =============================================================================

// AnalyzeNow runs an analysis pass and returns the fresh active periods.
func (h *Handler) AnalyzeNow(w http.ResponseWriter, r *http.Request) {
	detected := h.Tracker.Analyze(r.Context())
	if detected == nil {
		// Pass failed; the prior catalogue stands.
		writeJSON(w, http.StatusOK, AnalyzeResponse{Periods: []risk.Period{}, Unavailable: true})
		return
	}
	h.persistPeriods(r.Context())
	writeJSON(w, http.StatusOK, AnalyzeResponse{Periods: detected})
}

// ListPeriods returns the full period catalogue.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PeriodsResponse{Periods: nonNil(h.Tracker.Periods())})
}

// CurrentPeriods returns active periods containing today.
func (h *Handler) CurrentPeriods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PeriodsResponse{Periods: nonNil(h.Tracker.CurrentPeriods())})
}

// UpcomingPeriods returns active periods starting within ?days (default 30).
func (h *Handler) UpcomingPeriods(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}
	writeJSON(w, http.StatusOK, PeriodsResponse{Periods: nonNil(h.Tracker.UpcomingPeriods(days))})
}

// DeactivatePeriod marks a period inactive.
func (h *Handler) DeactivatePeriod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.Tracker.Deactivate(id) {
		writeError(w, http.StatusNotFound, "unknown or already inactive period: "+id)
		return
	}
	h.persistPeriods(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// UpdateOptions merges a partial option update and re-analyzes.
func (h *Handler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	var patch risk.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.Tracker.UpdateOptions(r.Context(), patch); err != nil {
		if errors.Is(err, risk.ErrInvalidOptions) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.persistPeriods(r.Context())
	writeJSON(w, http.StatusOK, h.Tracker.Options())
}

// =============================================================================
// CONFLICT RULES
// =============================================================================

// GetRules returns the current rule document.
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Evaluator.Rules())
}

// PutRules replaces the rule document.
func (h *Handler) PutRules(w http.ResponseWriter, r *http.Request) {
	var rules conflict.Rules
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.Evaluator.SetRules(rules); err != nil {
		if errors.Is(err, conflict.ErrInvalidRules) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	current := h.Evaluator.Rules()
	if h.Store != nil {
		if _, err := h.Store.SaveRules(r.Context(), current); err != nil {
			log.Printf("[API] failed to persist rules: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, current)
}

// =============================================================================
// LEAVE EVALUATION
// =============================================================================

// CheckLeave evaluates a leave request against the current rules. Active
// risk periods are supplied by the tracker; roster data is not available
// over HTTP, so capacity checks degrade to skippedChecks.
func (h *Handler) CheckLeave(w http.ResponseWriter, r *http.Request) {
	var req CheckLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ec := conflict.Context{
		ExistingLeaves:    req.ExistingLeaves,
		Deadlines:         req.Deadlines,
		Duties:            req.Duties,
		Assignments:       req.Assignments,
		Meetings:          req.Meetings,
		CriticalRoles:     req.CriticalRoles,
		RiskPeriods:       h.Tracker.ActiveRefs(),
		OverridePrivilege: req.OverridePrivilege,
	}

	result, err := h.Evaluator.Evaluate(r.Context(), req.Leave, ec)
	if err != nil {
		if errors.Is(err, conflict.ErrInvalidLeave) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// EVENT INJECTION
// =============================================================================

// InjectLeaveEvent publishes a leave domain event on the bus.
func (h *Handler) InjectLeaveEvent(w http.ResponseWriter, r *http.Request) {
	var req LeaveEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	switch req.Action {
	case "created":
		h.Bus.Publish(events.LeaveCreated{Leave: req.Leave})
	case "updated":
		h.Bus.Publish(events.LeaveUpdated{Leave: req.Leave})
	case "deleted":
		h.Bus.Publish(events.LeaveDeleted{Leave: req.Leave})
	default:
		writeError(w, http.StatusBadRequest, "action must be created, updated, or deleted")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// InjectConflictResolved publishes a conflict.resolved event on the bus.
func (h *Handler) InjectConflictResolved(w http.ResponseWriter, r *http.Request) {
	var req ConflictResolvedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ConflictID == "" {
		writeError(w, http.StatusBadRequest, "conflictId is required")
		return
	}
	h.Bus.Publish(events.ConflictResolved{
		ConflictID:       req.ConflictID,
		LeaveID:          req.LeaveID,
		ResolvedAt:       req.ResolvedAt,
		ResolutionMethod: req.ResolutionMethod,
		ResolvedBy:       req.ResolvedBy,
	})
	w.WriteHeader(http.StatusAccepted)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) persistPeriods(ctx context.Context) {
	if h.Store == nil {
		return
	}
	if err := h.Store.ReplacePeriods(ctx, h.Tracker.Periods()); err != nil {
		log.Printf("[API] failed to persist period catalogue: %v", err)
	}
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil(periods []risk.Period) []risk.Period {
	if periods == nil {
		return []risk.Period{}
	}
	return periods
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
