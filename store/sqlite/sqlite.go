/*
Package sqlite provides the SQLite-backed persistence for the risk engine.

PURPOSE:
  The engine's working state is in-memory (the tracker and the historical
  store own their data); this package is the durable mirror loaded at
  startup and written through as things change:

    historical_points: per-date conflict/leave aggregates
    risk_periods:      the period catalogue (active set replaced per pass)
    conflict_rules:    versioned rule documents, latest wins

WAL MODE:
  Opened with WAL and foreign keys on: multiple readers don't block, single
  writer at a time, better crash recovery.

CONCURRENCY:
  sync.RWMutex around all statements. SQLite serializes writers anyway;
  the mutex keeps replace-all operations atomic from the caller's view.

USAGE:
  store, err := sqlite.New("./data/risk.db")   // ":memory:" for tests
  defer store.Close()

SEE ALSO:
  - history: The in-memory store these points hydrate
  - risk/tracker.go: Restore() consumes LoadPeriods
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/conflict"
	"github.com/medplan/risk-engine/history"
	"github.com/medplan/risk-engine/risk"
)

// Store persists historical points, risk periods, and rule documents.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at path. Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS historical_points (
		date TEXT PRIMARY KEY,
		conflict_count INTEGER NOT NULL DEFAULT 0,
		leave_count INTEGER NOT NULL DEFAULT 0,
		team_absence_rates_json TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS risk_periods (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		risk_score INTEGER NOT NULL,
		reason TEXT NOT NULL,
		conflict_types_json TEXT NOT NULL,
		affected_teams_json TEXT NOT NULL,
		affected_departments_json TEXT NOT NULL,
		expected_conflict_count TEXT NOT NULL,
		historical_conflict_rate TEXT NOT NULL,
		is_active INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_risk_periods_dates
		ON risk_periods(start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_risk_periods_active
		ON risk_periods(is_active);

	CREATE TABLE IF NOT EXISTS conflict_rules (
		version INTEGER PRIMARY KEY,
		document_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HISTORICAL POINTS
// =============================================================================

// SaveDataPoints upserts a batch of historical data points.
func (s *Store) SaveDataPoints(ctx context.Context, points []history.DataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO historical_points (date, conflict_count, leave_count, team_absence_rates_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			conflict_count = excluded.conflict_count,
			leave_count = excluded.leave_count,
			team_absence_rates_json = excluded.team_absence_rates_json`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		rates, err := json.Marshal(p.TeamAbsenceRates)
		if err != nil {
			return fmt.Errorf("failed to encode absence rates for %s: %w", p.Date, err)
		}
		if _, err := stmt.ExecContext(ctx, p.Date.String(), p.ConflictCount, p.LeaveCount, string(rates)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadDataPoints returns every persisted historical data point.
func (s *Store) LoadDataPoints(ctx context.Context) ([]history.DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, conflict_count, leave_count, team_absence_rates_json
		FROM historical_points ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []history.DataPoint
	for rows.Next() {
		var dateStr, ratesJSON string
		var p history.DataPoint
		if err := rows.Scan(&dateStr, &p.ConflictCount, &p.LeaveCount, &ratesJSON); err != nil {
			return nil, err
		}
		if p.Date, err = calendar.ParseDay(dateStr); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ratesJSON), &p.TeamAbsenceRates); err != nil {
			return nil, fmt.Errorf("corrupt absence rates for %s: %w", dateStr, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// =============================================================================
// RISK PERIODS
// =============================================================================

// ReplacePeriods persists the full period catalogue (active and inactive),
// replacing whatever was stored before. Mirrors the tracker's
// replace-not-patch publication model.
func (s *Store) ReplacePeriods(ctx context.Context, periods []risk.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM risk_periods`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO risk_periods (
			id, start_date, end_date, risk_level, risk_score, reason,
			conflict_types_json, affected_teams_json, affected_departments_json,
			expected_conflict_count, historical_conflict_rate, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range periods {
		types, err := json.Marshal(p.ConflictTypes)
		if err != nil {
			return err
		}
		teams, err := json.Marshal(p.AffectedTeams)
		if err != nil {
			return err
		}
		departments, err := json.Marshal(p.AffectedDepartments)
		if err != nil {
			return err
		}
		active := 0
		if p.IsActive {
			active = 1
		}
		_, err = stmt.ExecContext(ctx,
			p.ID, p.Span.Start.String(), p.Span.End.String(), string(p.Level), p.Score, p.Reason,
			string(types), string(teams), string(departments),
			p.ExpectedConflictCount.String(), p.HistoricalConflictRate.String(),
			active, p.CreatedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadPeriods returns the persisted period catalogue.
func (s *Store) LoadPeriods(ctx context.Context) ([]risk.Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, risk_level, risk_score, reason,
			conflict_types_json, affected_teams_json, affected_departments_json,
			expected_conflict_count, historical_conflict_rate, is_active, created_at
		FROM risk_periods ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []risk.Period
	for rows.Next() {
		var p risk.Period
		var startStr, endStr, levelStr, typesJSON, teamsJSON, depsJSON string
		var expectedStr, rateStr, createdStr string
		var active int
		if err := rows.Scan(&p.ID, &startStr, &endStr, &levelStr, &p.Score, &p.Reason,
			&typesJSON, &teamsJSON, &depsJSON, &expectedStr, &rateStr, &active, &createdStr); err != nil {
			return nil, err
		}
		if p.Span.Start, err = calendar.ParseDay(startStr); err != nil {
			return nil, err
		}
		if p.Span.End, err = calendar.ParseDay(endStr); err != nil {
			return nil, err
		}
		p.Level = risk.Level(levelStr)
		if err := json.Unmarshal([]byte(typesJSON), &p.ConflictTypes); err != nil {
			return nil, fmt.Errorf("corrupt conflict types for period %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(teamsJSON), &p.AffectedTeams); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(depsJSON), &p.AffectedDepartments); err != nil {
			return nil, err
		}
		if p.ExpectedConflictCount, err = decimal.NewFromString(expectedStr); err != nil {
			return nil, err
		}
		if p.HistoricalConflictRate, err = decimal.NewFromString(rateStr); err != nil {
			return nil, err
		}
		p.IsActive = active == 1
		if p.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// =============================================================================
// CONFLICT RULES
// =============================================================================

// SaveRules persists a validated rule document under the next version and
// returns that version.
func (s *Store) SaveRules(ctx context.Context, rules conflict.Rules) (int, error) {
	if err := rules.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var maxVersion sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(version) FROM conflict_rules`).Scan(&maxVersion); err != nil {
		return 0, err
	}
	version := int(maxVersion.Int64) + 1
	rules.Version = version

	doc, err := json.Marshal(rules)
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO conflict_rules (version, document_json, updated_at)
		VALUES (?, ?, ?)`,
		version, string(doc), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return version, tx.Commit()
}

// LoadLatestRules returns the highest-version rule document, if any.
func (s *Store) LoadLatestRules(ctx context.Context) (conflict.Rules, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, `
		SELECT document_json FROM conflict_rules ORDER BY version DESC LIMIT 1`).Scan(&doc)
	if err == sql.ErrNoRows {
		return conflict.Rules{}, false, nil
	}
	if err != nil {
		return conflict.Rules{}, false, err
	}

	var rules conflict.Rules
	if err := json.Unmarshal([]byte(doc), &rules); err != nil {
		return conflict.Rules{}, false, fmt.Errorf("corrupt rules document: %w", err)
	}
	return rules, true, nil
}
