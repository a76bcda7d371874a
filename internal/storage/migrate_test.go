package storage

import (
	"database/sql"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitializeAndMigrateAreIdempotent(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 2; i++ {
		if err := Initialize(db); err != nil {
			t.Fatalf("initialize run %d: %v", i+1, err)
		}
		if err := Migrate(db); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}

	var applied int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		t.Fatalf("count applied migrations: %v", err)
	}
	if applied != len(migrations()) {
		t.Fatalf("expected %d ledger entries, got %d", len(migrations()), applied)
	}
}

func TestMigrateUpgradesLegacySchema(t *testing.T) {
	db := openTestDB(t)

	// Older on-disk layout: artifact and context tables without the
	// columns later versions added.
	legacy := []string{
		`CREATE TABLE conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
			total_input_tokens INTEGER DEFAULT 0,
			total_output_tokens INTEGER DEFAULT 0,
			is_deleted INTEGER DEFAULT 0,
			is_favorite INTEGER DEFAULT 0,
			metadata TEXT DEFAULT '{}'
		)`,
		`CREATE TABLE messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER,
			role TEXT,
			content TEXT NOT NULL,
			tokens_input INTEGER DEFAULT 0,
			tokens_output INTEGER DEFAULT 0,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			metadata TEXT DEFAULT '{}'
		)`,
		`CREATE TABLE project_contexts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER,
			file_path TEXT NOT NULL,
			file_content TEXT NOT NULL,
			file_type TEXT,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE code_artifacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER,
			content TEXT NOT NULL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`INSERT INTO code_artifacts (conversation_id, content) VALUES (1, 'print(1)')`,
	}
	for _, stmt := range legacy {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create legacy schema: %v", err)
		}
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate legacy schema: %v", err)
	}

	// New columns must exist and carry the declared defaults.
	var language, metadata string
	var executable int
	err := db.QueryRow(
		`SELECT language, is_executable, metadata FROM code_artifacts WHERE conversation_id = 1`,
	).Scan(&language, &executable, &metadata)
	if err != nil {
		t.Fatalf("read migrated artifact: %v", err)
	}
	if language != "markup" {
		t.Fatalf("expected backfilled language 'markup', got %q", language)
	}
	if executable != 0 {
		t.Fatalf("expected backfilled is_executable 0, got %d", executable)
	}
	if metadata != "{}" {
		t.Fatalf("expected backfilled metadata '{}', got %q", metadata)
	}

	// Re-running against the upgraded schema is a no-op.
	if err := Migrate(db); err != nil {
		t.Fatalf("re-run migrate: %v", err)
	}
}
