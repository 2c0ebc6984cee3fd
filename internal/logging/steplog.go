// Package logging writes per-step decision rows into the results database:
// which action each agent chose, the resulting acceleration, any lane-change
// intent, and the set of social laws active that step.
package logging

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/traffic-laws/go-policy/internal/policy"
)

// #region log-step

// StepEntry is one agent's decision for one step of one run.
type StepEntry struct {
	RunID string
	Agent int
	Trace policy.StepTrace
}

// LogStep writes a decision entry to the step_log table.
func LogStep(db *sql.DB, entry StepEntry) error {
	_, err := db.Exec(
		`INSERT INTO step_log (run_id, step, agent, action, accel, intent, active_laws)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Trace.Step,
		entry.Agent,
		entry.Trace.Action.String(),
		entry.Trace.Accel,
		entry.Trace.Intent.String(),
		nullIfEmpty(strings.Join(entry.Trace.ActiveLaws, ",")),
	)
	if err != nil {
		return fmt.Errorf("log step: %w", err)
	}
	return nil
}

// #endregion log-step

// #region batch

// Batcher accumulates step entries and flushes them in one transaction, so
// long runs do not pay one fsync per agent-step.
type Batcher struct {
	db      *sql.DB
	pending []StepEntry
	size    int
}

// NewBatcher builds a batcher flushing every size entries.
func NewBatcher(db *sql.DB, size int) *Batcher {
	if size <= 0 {
		size = 256
	}
	return &Batcher{db: db, size: size}
}

// Add queues one entry, flushing when the batch fills.
func (b *Batcher) Add(entry StepEntry) error {
	b.pending = append(b.pending, entry)
	if len(b.pending) >= b.size {
		return b.Flush()
	}
	return nil
}

// Flush writes all queued entries in one transaction.
func (b *Batcher) Flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO step_log (run_id, step, agent, action, accel, intent, active_laws)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, entry := range b.pending {
		_, err := stmt.Exec(
			entry.RunID, entry.Trace.Step, entry.Agent,
			entry.Trace.Action.String(), entry.Trace.Accel, entry.Trace.Intent.String(),
			nullIfEmpty(strings.Join(entry.Trace.ActiveLaws, ",")),
		)
		if err != nil {
			return fmt.Errorf("insert step: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	b.pending = b.pending[:0]
	return nil
}

// #endregion batch

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
