// Package results persists study output in SQLite: one row per run with its
// final metrics, plus an optional per-step decision log written through the
// logging package.
package results

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/metrics"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	scenario     TEXT NOT NULL,
	composition  TEXT NOT NULL,
	seed         INTEGER NOT NULL,
	steps        INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_metrics (
	run_id             TEXT PRIMARY KEY,
	avg_speed          REAL NOT NULL,
	speed_std          REAL NOT NULL,
	accel_std          REAL NOT NULL,
	total_collisions   INTEGER NOT NULL,
	ttc_event_count    INTEGER NOT NULL,
	min_ttc            REAL,
	avg_ttc            REAL,
	merge_attempts     INTEGER NOT NULL,
	merge_success_rate REAL NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS step_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	step        INTEGER NOT NULL,
	agent       INTEGER NOT NULL,
	action      TEXT NOT NULL,
	accel       REAL NOT NULL,
	intent      TEXT NOT NULL,
	active_laws TEXT,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store

// Store manages study results in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region runs

// RunRecord identifies one completed run.
type RunRecord struct {
	RunID       string
	Scenario    string
	Composition string
	Seed        int64
	Steps       int
	CreatedAt   time.Time
}

// CreateRun inserts a new run row and returns its generated id.
func (s *Store) CreateRun(scenario, composition string, seed int64, steps int) (RunRecord, error) {
	rec := RunRecord{
		RunID:       uuid.New().String(),
		Scenario:    scenario,
		Composition: composition,
		Seed:        seed,
		Steps:       steps,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, scenario, composition, seed, steps, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Scenario, rec.Composition, rec.Seed, rec.Steps,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// CommitMetrics writes a run's final metrics atomically with its lookup row.
func (s *Store) CommitMetrics(runID string, m metrics.RunMetrics) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO run_metrics (run_id, avg_speed, speed_std, accel_std,
		     total_collisions, ttc_event_count, min_ttc, avg_ttc,
		     merge_attempts, merge_success_rate)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, m.AvgSpeed, m.SpeedStd, m.AccelStd,
		m.TotalCollisions, m.TTCEventCount, finiteOrNull(m.MinTTC), finiteOrNull(m.AvgTTC),
		m.MergeAttempts, m.MergeSuccessRate,
	)
	if err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, scenario, composition, seed, steps, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.Scenario, &rec.Composition, &rec.Seed, &rec.Steps, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetMetrics reads one run's final metrics.
func (s *Store) GetMetrics(runID string) (metrics.RunMetrics, error) {
	var m metrics.RunMetrics
	var minTTC, avgTTC sql.NullFloat64
	err := s.db.QueryRow(
		`SELECT avg_speed, speed_std, accel_std, total_collisions,
		        ttc_event_count, min_ttc, avg_ttc, merge_attempts, merge_success_rate
		 FROM run_metrics WHERE run_id = ?`, runID,
	).Scan(&m.AvgSpeed, &m.SpeedStd, &m.AccelStd, &m.TotalCollisions,
		&m.TTCEventCount, &minTTC, &avgTTC, &m.MergeAttempts, &m.MergeSuccessRate)
	if err != nil {
		return metrics.RunMetrics{}, fmt.Errorf("get metrics %s: %w", runID, err)
	}
	m.MinTTC = nullToInf(minTTC)
	m.AvgTTC = nullToInf(avgTTC)
	return m, nil
}

// #endregion runs

// #region null-helpers

// Infinite TTC (no events) is stored as NULL; REAL columns cannot hold Inf.
func finiteOrNull(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func nullToInf(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}

// #endregion null-helpers
