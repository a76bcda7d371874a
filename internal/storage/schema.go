package storage

import (
	"database/sql"
	"fmt"
)

// Initialize ensures the base tables and lookup indexes exist. Safe to call
// on an already-initialized store.
func Initialize(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT DEFAULT 'Unnamed Conversation',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
			total_input_tokens INTEGER DEFAULT 0,
			total_output_tokens INTEGER DEFAULT 0,
			is_deleted INTEGER DEFAULT 0,
			is_favorite INTEGER DEFAULT 0,
			metadata TEXT DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER,
			role TEXT CHECK(role IN ('user', 'assistant', 'system')),
			content TEXT NOT NULL,
			tokens_input INTEGER DEFAULT 0,
			tokens_output INTEGER DEFAULT 0,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			metadata TEXT DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS project_contexts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER,
			file_path TEXT NOT NULL,
			file_content TEXT NOT NULL,
			file_type TEXT,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
			metadata TEXT DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS code_artifacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER,
			content TEXT NOT NULL,
			language TEXT DEFAULT 'markup',
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			is_executable INTEGER DEFAULT 0,
			metadata TEXT DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_deleted ON conversations(is_deleted)`,
		`CREATE INDEX IF NOT EXISTS idx_conv_updated ON conversations(last_updated)`,
		`CREATE INDEX IF NOT EXISTS idx_msg_conv ON messages(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ctx_conv ON project_contexts(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_art_conv ON code_artifacts(conversation_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
	}
	return nil
}
