package store

import (
	"context"
	"database/sql"
	"fmt"

	"codechat/internal/models"
)

// AddMessage inserts a message and accrues its token counts onto the parent
// conversation. Both writes happen in one transaction: they succeed or fail
// together, keeping the conversation counters equal to the sum over its
// messages.
func (s *Store) AddMessage(ctx context.Context, conversationID int64, role models.Role, content string, inputTokens, outputTokens int64, metadata models.Metadata) (int64, error) {
	var id int64
	err := s.withTx(ctx, "add message", func(tx *sql.Tx) error {
		now := nowString()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, role, content, tokens_input, tokens_output, timestamp, metadata)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			conversationID, role, content, inputTokens, outputTokens, now, metadata,
		)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("message id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations
				SET total_input_tokens = total_input_tokens + ?,
					total_output_tokens = total_output_tokens + ?,
					last_updated = ?
				WHERE id = ?`,
			inputTokens, outputTokens, now, conversationID,
		); err != nil {
			return fmt.Errorf("accrue tokens: %w", err)
		}
		return nil
	})
	return id, err
}

// GetMessages returns a conversation's messages ordered by timestamp.
func (s *Store) GetMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, tokens_input, tokens_output, timestamp, metadata
			FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			m  models.Message
			ts string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content,
			&m.TokensInput, &m.TokensOutput, &ts, &m.Metadata); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Timestamp = timeOrZero(ts)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
