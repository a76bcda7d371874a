package store

import (
	"context"
	"database/sql"
	"fmt"

	"codechat/internal/models"
)

// CreateConversation inserts a new conversation and returns its id.
func (s *Store) CreateConversation(ctx context.Context, name string, metadata models.Metadata) (int64, error) {
	var id int64
	err := s.withTx(ctx, "create conversation", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (name, created_at, last_updated, metadata) VALUES (?, ?, ?, ?)`,
			name, nowString(), nowString(), metadata,
		)
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("conversation id: %w", err)
		}
		return nil
	})
	return id, err
}

// RenameConversation updates the name of a non-deleted conversation.
// Returns false when the conversation is missing or already deleted.
func (s *Store) RenameConversation(ctx context.Context, id int64, newName string) (bool, error) {
	var renamed bool
	err := s.withTx(ctx, "rename conversation", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE conversations SET name = ?, last_updated = ? WHERE id = ? AND is_deleted = 0`,
			newName, nowString(), id,
		)
		if err != nil {
			return fmt.Errorf("rename conversation: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rename rows affected: %w", err)
		}
		renamed = affected > 0
		return nil
	})
	return renamed, err
}

// SoftDeleteConversation flags a conversation as deleted without removing
// any rows. Returns false when nothing was affected.
func (s *Store) SoftDeleteConversation(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, "delete conversation", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE conversations SET is_deleted = 1, last_updated = ? WHERE id = ? AND is_deleted = 0`,
			nowString(), id,
		)
		if err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete rows affected: %w", err)
		}
		deleted = affected > 0
		return nil
	})
	return deleted, err
}

// GetConversationName returns the name of a non-deleted conversation.
// ok is false when the conversation is absent or deleted.
func (s *Store) GetConversationName(ctx context.Context, id int64) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM conversations WHERE id = ? AND is_deleted = 0`, id,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get conversation name: %w", err)
	}
	return name, true, nil
}

// ListConversations returns conversations ordered by last activity,
// newest first, capped at limit. Soft-deleted rows are excluded unless
// includeDeleted is set.
func (s *Store) ListConversations(ctx context.Context, limit int, includeDeleted bool) ([]models.Conversation, error) {
	query := `SELECT id, name, created_at, last_updated, total_input_tokens,
			total_output_tokens, is_deleted, is_favorite, metadata
		FROM conversations`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY last_updated DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var (
			c                    models.Conversation
			createdAt, updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.Name, &createdAt, &updatedAt,
			&c.TotalInputTokens, &c.TotalOutputTokens, &c.IsDeleted, &c.IsFavorite, &c.Metadata); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.CreatedAt = timeOrZero(createdAt)
		c.LastUpdated = timeOrZero(updatedAt)
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// GetConversationTokens returns the accumulated token counters, zeros when
// the conversation is absent.
func (s *Store) GetConversationTokens(ctx context.Context, id int64) (models.TokenUsage, error) {
	var usage models.TokenUsage
	err := s.db.QueryRowContext(ctx,
		`SELECT total_input_tokens, total_output_tokens FROM conversations WHERE id = ?`, id,
	).Scan(&usage.InputTokens, &usage.OutputTokens)
	if err == sql.ErrNoRows {
		return models.TokenUsage{}, nil
	}
	if err != nil {
		return models.TokenUsage{}, fmt.Errorf("get conversation tokens: %w", err)
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	return usage, nil
}

// ToggleFavorite flips the favorite flag of a non-deleted conversation.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	var toggled bool
	err := s.withTx(ctx, "toggle favorite", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE conversations
				SET is_favorite = CASE WHEN is_favorite = 0 THEN 1 ELSE 0 END, last_updated = ?
				WHERE id = ? AND is_deleted = 0`,
			nowString(), id,
		)
		if err != nil {
			return fmt.Errorf("toggle favorite: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("favorite rows affected: %w", err)
		}
		toggled = affected > 0
		return nil
	})
	return toggled, err
}
