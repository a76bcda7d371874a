package store

import (
	"context"
	"database/sql"
	"fmt"

	"codechat/internal/models"
)

// UpsertProjectContext stores a file context keyed on (conversation, path).
// An existing row is updated in place, preserving its id; otherwise a new
// row is inserted. Returns the resulting id either way.
func (s *Store) UpsertProjectContext(ctx context.Context, conversationID int64, filePath, fileContent, fileType string, metadata models.Metadata) (int64, error) {
	var id int64
	err := s.withTx(ctx, "upsert project context", func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM project_contexts WHERE conversation_id = ? AND file_path = ?`,
			conversationID, filePath,
		).Scan(&existing)
		switch {
		case err == sql.ErrNoRows:
			res, err := tx.ExecContext(ctx,
				`INSERT INTO project_contexts (conversation_id, file_path, file_content, file_type, last_updated, metadata)
					VALUES (?, ?, ?, ?, ?, ?)`,
				conversationID, filePath, fileContent, fileType, nowString(), metadata,
			)
			if err != nil {
				return fmt.Errorf("insert project context: %w", err)
			}
			id, err = res.LastInsertId()
			if err != nil {
				return fmt.Errorf("project context id: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("lookup project context: %w", err)
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE project_contexts SET file_content = ?, file_type = ?, metadata = ?, last_updated = ? WHERE id = ?`,
				fileContent, fileType, metadata, nowString(), existing,
			); err != nil {
				return fmt.Errorf("update project context: %w", err)
			}
			id = existing
			return nil
		}
	})
	return id, err
}

// GetProjectContexts returns all file contexts attached to a conversation.
func (s *Store) GetProjectContexts(ctx context.Context, conversationID int64) ([]models.ProjectContext, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, file_path, file_content, file_type, last_updated, metadata
			FROM project_contexts WHERE conversation_id = ?`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list project contexts: %w", err)
	}
	defer rows.Close()

	var contexts []models.ProjectContext
	for rows.Next() {
		var (
			pc       models.ProjectContext
			fileType sql.NullString
			updated  string
		)
		if err := rows.Scan(&pc.ID, &pc.ConversationID, &pc.FilePath, &pc.FileContent,
			&fileType, &updated, &pc.Metadata); err != nil {
			return nil, fmt.Errorf("scan project context: %w", err)
		}
		pc.FileType = fileType.String
		pc.LastUpdated = timeOrZero(updated)
		contexts = append(contexts, pc)
	}
	return contexts, rows.Err()
}
