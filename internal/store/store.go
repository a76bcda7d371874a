// Package store implements the persistence surface over the conversation
// database: CRUD for conversations, messages, project contexts and code
// artifacts, plus aggregate statistics, export/import and cleanup.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// TimeLayout is the canonical on-disk timestamp format, matching SQLite's
// CURRENT_TIMESTAMP output.
const TimeLayout = "2006-01-02 15:04:05"

// Store owns all database access. One scoped transaction per mutating
// operation; no retries.
type Store struct {
	db     *sql.DB
	dbPath string
	log    *log.Entry
}

// New constructs a Store. dbPath is used only for on-disk size reporting.
func New(db *sql.DB, dbPath string) *Store {
	return &Store{
		db:     db,
		dbPath: dbPath,
		log:    log.WithField("component", "store"),
	}
}

// withTx runs fn inside a transaction: commit on success, rollback and
// re-raise on any error.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		s.log.WithError(err).WithField("op", op).Error("transaction rolled back")
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func nowString() string {
	return formatTime(time.Now())
}

// timeOrZero parses a canonical timestamp, yielding the zero time for
// anything unparsable.
func timeOrZero(s string) time.Time {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
