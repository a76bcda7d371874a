package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"codechat/internal/models"
)

// ExportConversation builds the full archival snapshot of a non-deleted
// conversation. ok is false when the conversation is absent or deleted.
func (s *Store) ExportConversation(ctx context.Context, conversationID int64) (models.ConversationExport, bool, error) {
	var (
		c                    models.Conversation
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, last_updated, total_input_tokens,
			total_output_tokens, is_deleted, is_favorite, metadata
		FROM conversations WHERE id = ? AND is_deleted = 0`,
		conversationID,
	).Scan(&c.ID, &c.Name, &createdAt, &updatedAt,
		&c.TotalInputTokens, &c.TotalOutputTokens, &c.IsDeleted, &c.IsFavorite, &c.Metadata)
	if err == sql.ErrNoRows {
		return models.ConversationExport{}, false, nil
	}
	if err != nil {
		return models.ConversationExport{}, false, fmt.Errorf("export conversation: %w", err)
	}
	c.CreatedAt = timeOrZero(createdAt)
	c.LastUpdated = timeOrZero(updatedAt)

	messages, err := s.GetMessages(ctx, conversationID)
	if err != nil {
		return models.ConversationExport{}, false, err
	}
	contexts, err := s.GetProjectContexts(ctx, conversationID)
	if err != nil {
		return models.ConversationExport{}, false, err
	}
	artifacts, err := s.GetCodeArtifacts(ctx, conversationID)
	if err != nil {
		return models.ConversationExport{}, false, err
	}
	stats, _, err := s.GetConversationStats(ctx, conversationID)
	if err != nil {
		return models.ConversationExport{}, false, err
	}

	return models.ConversationExport{
		ExportID:     uuid.NewString(),
		ExportedAt:   time.Now().UTC(),
		Conversation: c,
		Messages:     messages,
		Contexts:     contexts,
		Artifacts:    artifacts,
		Stats:        stats,
	}, true, nil
}

// ImportConversation inserts a new conversation and all child rows from a
// snapshot. Original ids are not preserved: every row is re-parented under
// the freshly assigned conversation id.
func (s *Store) ImportConversation(ctx context.Context, snapshot models.ConversationExport) (int64, error) {
	var newID int64
	err := s.withTx(ctx, "import conversation", func(tx *sql.Tx) error {
		conv := snapshot.Conversation
		res, err := tx.ExecContext(ctx,
			`INSERT INTO conversations
				(name, created_at, last_updated, total_input_tokens, total_output_tokens, is_favorite, metadata)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			conv.Name, formatTime(conv.CreatedAt), nowString(),
			conv.TotalInputTokens, conv.TotalOutputTokens, conv.IsFavorite, conv.Metadata,
		)
		if err != nil {
			return fmt.Errorf("import conversation row: %w", err)
		}
		newID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("imported conversation id: %w", err)
		}

		for _, m := range snapshot.Messages {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO messages (conversation_id, role, content, tokens_input, tokens_output, timestamp, metadata)
					VALUES (?, ?, ?, ?, ?, ?, ?)`,
				newID, m.Role, m.Content, m.TokensInput, m.TokensOutput, formatTime(m.Timestamp), m.Metadata,
			); err != nil {
				return fmt.Errorf("import message: %w", err)
			}
		}
		for _, pc := range snapshot.Contexts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO project_contexts (conversation_id, file_path, file_content, file_type, last_updated, metadata)
					VALUES (?, ?, ?, ?, ?, ?)`,
				newID, pc.FilePath, pc.FileContent, pc.FileType, formatTime(pc.LastUpdated), pc.Metadata,
			); err != nil {
				return fmt.Errorf("import project context: %w", err)
			}
		}
		for _, a := range snapshot.Artifacts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO code_artifacts (conversation_id, content, language, timestamp, is_executable, metadata)
					VALUES (?, ?, ?, ?, ?, ?)`,
				newID, a.Content, a.Language, formatTime(a.Timestamp), a.IsExecutable, a.Metadata,
			); err != nil {
				return fmt.Errorf("import code artifact: %w", err)
			}
		}
		return nil
	})
	return newID, err
}
