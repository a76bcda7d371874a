package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"codechat/internal/models"
)

// AddCodeArtifact stores an extracted code block and bumps the parent
// conversation's last activity. The language is normalized to lower case,
// falling back to the generic markup label; metadata is augmented with the
// insertion time, content size and detected language.
func (s *Store) AddCodeArtifact(ctx context.Context, conversationID int64, content, language string, isExecutable bool, metadata models.Metadata) (int64, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = models.DefaultArtifactLanguage
	}

	meta := metadata.Clone()
	meta["added_at"] = time.Now().UTC().Format(time.RFC3339)
	meta["size"] = len(content)
	meta["language_detected"] = language

	var id int64
	err := s.withTx(ctx, "add code artifact", func(tx *sql.Tx) error {
		now := nowString()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO code_artifacts (conversation_id, content, language, timestamp, is_executable, metadata)
				VALUES (?, ?, ?, ?, ?, ?)`,
			conversationID, content, language, now, isExecutable, meta,
		)
		if err != nil {
			return fmt.Errorf("insert code artifact: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("code artifact id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET last_updated = ? WHERE id = ?`, now, conversationID,
		); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		return nil
	})
	return id, err
}

// GetCodeArtifacts returns a conversation's artifacts ordered by timestamp.
// Malformed stored metadata is repaired to an empty map and a malformed
// timestamp is replaced with the current time; both repairs are logged so
// the substitution is auditable.
func (s *Store) GetCodeArtifacts(ctx context.Context, conversationID int64) ([]models.CodeArtifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, content, language, timestamp, is_executable, metadata
			FROM code_artifacts WHERE conversation_id = ? ORDER BY timestamp ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list code artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []models.CodeArtifact
	for rows.Next() {
		var (
			a       models.CodeArtifact
			ts      string
			rawMeta sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.ConversationID, &a.Content, &a.Language,
			&ts, &a.IsExecutable, &rawMeta); err != nil {
			return nil, fmt.Errorf("scan code artifact: %w", err)
		}

		a.Metadata = models.Metadata{}
		if rawMeta.Valid && rawMeta.String != "" {
			if err := json.Unmarshal([]byte(rawMeta.String), &a.Metadata); err != nil {
				s.log.WithField("artifact_id", a.ID).Warn("repaired malformed artifact metadata")
				a.Metadata = models.Metadata{}
			}
		}

		parsed, err := time.Parse(TimeLayout, ts)
		if err != nil {
			s.log.WithField("artifact_id", a.ID).Warn("repaired malformed artifact timestamp")
			parsed = time.Now().UTC()
		}
		a.Timestamp = parsed

		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
