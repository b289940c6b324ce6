/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the MedPlan leave risk engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open the SQLite store
  3. Hydrate the historical store, rules, and period catalogue
  4. Wire scorer, tracker, evaluator, bus, and coordinator
  5. Start the coordinator (immediate analysis pass + periodic ticker)
  6. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: risk.db)
             Use ":memory:" for in-memory database
  -interval  Periodic re-analysis cadence (default: 24h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the coordinator and wait for in-flight analysis
  4. Persist the period catalogue and historical points
  5. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/risk.db"

  # Run with hourly re-analysis
  ./server -interval=1h

SEE ALSO:
  - api/server.go: Router configuration
  - events/coordinator.go: Event wiring and re-analysis
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medplan/risk-engine/api"
	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/conflict"
	"github.com/medplan/risk-engine/events"
	"github.com/medplan/risk-engine/history"
	"github.com/medplan/risk-engine/risk"
	"github.com/medplan/risk-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "risk.db", "SQLite database path")
	interval := flag.Duration("interval", 24*time.Hour, "periodic re-analysis cadence")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	facts := calendar.NewFrenchCalendar()

	// Hydrate the historical statistics store
	hist := history.NewStore()
	points, err := store.LoadDataPoints(ctx)
	if err != nil {
		log.Fatalf("Failed to load historical data: %v", err)
	}
	hist.Load(points)
	log.Printf("[Main] loaded %d historical data point(s)", len(points))

	// Conflict evaluator, with persisted rules when present
	rules := conflict.DefaultRules()
	if persisted, found, err := store.LoadLatestRules(ctx); err != nil {
		log.Fatalf("Failed to load conflict rules: %v", err)
	} else if found {
		rules = persisted
		log.Printf("[Main] loaded conflict rules v%d", rules.Version)
	}
	evaluator, err := conflict.NewEvaluator(facts, rules)
	if err != nil {
		log.Fatalf("Failed to initialize evaluator: %v", err)
	}

	// Risk tracker, restored from the persisted catalogue
	scorer := risk.NewScorer(facts, hist, risk.DefaultOptions())
	tracker, err := risk.NewTracker(scorer, risk.DefaultOptions(), nil)
	if err != nil {
		log.Fatalf("Failed to initialize tracker: %v", err)
	}
	periods, err := store.LoadPeriods(ctx)
	if err != nil {
		log.Fatalf("Failed to load risk periods: %v", err)
	}
	tracker.Restore(periods)
	log.Printf("[Main] restored %d risk period(s)", len(periods))

	// Event wiring
	bus := events.NewBus()
	coordinator := events.NewCoordinator(bus, tracker, hist)
	coordinator.Interval = *interval
	tracker.SetNotifier(coordinator)
	coordinator.Start()
	defer coordinator.Stop()

	// HTTP surface
	handler := api.NewHandler(tracker, evaluator, bus, hist, store)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Risk engine listening on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	coordinator.Stop()

	// Final persistence pass so a restart picks up where we left off
	if err := store.ReplacePeriods(shutdownCtx, tracker.Periods()); err != nil {
		log.Printf("Warning: failed to persist period catalogue: %v", err)
	}
	if err := store.SaveDataPoints(shutdownCtx, hist.All()); err != nil {
		log.Printf("Warning: failed to persist historical data: %v", err)
	}

	log.Println("Server stopped")
}
