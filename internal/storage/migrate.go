package storage

import (
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Migration is one forward-only schema change. Apply must be safe to run
// against any older on-disk schema, including one that already carries the
// change: the ledger normally prevents re-runs, but a step interrupted
// after committing DDL may be retried.
type Migration struct {
	Version     string
	Description string
	Apply       func(tx *sql.Tx) error
}

// Migrate brings an older on-disk schema forward. Applied versions are
// recorded in schema_migrations; re-running is a no-op. Any step failure
// aborts the migration and propagates.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at DATETIME NOT NULL
	)`); err != nil {
		return fmt.Errorf("create migration ledger: %w", err)
	}

	for _, m := range migrations() {
		var done int
		err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, m.Version).Scan(&done)
		if err != nil {
			return fmt.Errorf("read migration ledger: %w", err)
		}
		if done > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.Version, err)
		}
		if err := m.Apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
			m.Version, m.Description, time.Now().UTC().Format("2006-01-02 15:04:05"),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Version, err)
		}
		log.WithFields(log.Fields{"version": m.Version, "description": m.Description}).Info("applied schema migration")
	}
	return nil
}

func migrations() []Migration {
	return []Migration{
		{
			Version:     "001",
			Description: "add artifact classification and metadata columns",
			Apply: func(tx *sql.Tx) error {
				columns := []struct {
					table, column, ctype, dflt string
				}{
					{"code_artifacts", "is_executable", "INTEGER", "0"},
					{"code_artifacts", "language", "TEXT", "'markup'"},
					{"code_artifacts", "metadata", "TEXT", "'{}'"},
					{"project_contexts", "metadata", "TEXT", "'{}'"},
				}
				for _, c := range columns {
					if err := addColumnIfMissing(tx, c.table, c.column, c.ctype, c.dflt); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Version:     "002",
			Description: "add composite artifact indexes",
			Apply: func(tx *sql.Tx) error {
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_art_conv_lang ON code_artifacts(conversation_id, language)`,
					`CREATE INDEX IF NOT EXISTS idx_art_exec ON code_artifacts(is_executable)`,
				}
				for _, stmt := range indexes {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

// addColumnIfMissing adds a column with a default and backfills existing
// NULL values. A column already present is left untouched.
func addColumnIfMissing(tx *sql.Tx, table, column, ctype, dflt string) error {
	exists, err := columnExists(tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := tx.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s DEFAULT %s`, table, column, ctype, dflt,
	)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	if _, err := tx.Exec(fmt.Sprintf(
		`UPDATE %s SET %s = %s WHERE %s IS NULL`, table, column, dflt, column,
	)); err != nil {
		return fmt.Errorf("backfill column %s.%s: %w", table, column, err)
	}
	log.WithFields(log.Fields{"table": table, "column": column}).Info("added column")
	return nil
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
