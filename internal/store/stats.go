package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"codechat/internal/models"
)

// GetConversationStats aggregates counts, token totals and a coarse
// human-readable duration for one conversation. ok is false when the
// conversation is absent or deleted.
func (s *Store) GetConversationStats(ctx context.Context, conversationID int64) (models.ConversationStats, bool, error) {
	var (
		stats                models.ConversationStats
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT c.total_input_tokens, c.total_output_tokens, c.created_at, c.last_updated,
			(SELECT COUNT(*) FROM messages WHERE conversation_id = c.id),
			(SELECT COUNT(*) FROM code_artifacts WHERE conversation_id = c.id),
			(SELECT COUNT(*) FROM project_contexts WHERE conversation_id = c.id)
		FROM conversations c WHERE c.id = ? AND c.is_deleted = 0`,
		conversationID,
	).Scan(&stats.InputTokens, &stats.OutputTokens, &createdAt, &updatedAt,
		&stats.MessageCount, &stats.ArtifactCount, &stats.ContextCount)
	if err == sql.ErrNoRows {
		return models.ConversationStats{}, false, nil
	}
	if err != nil {
		return models.ConversationStats{}, false, fmt.Errorf("get conversation stats: %w", err)
	}

	stats.TotalTokens = stats.InputTokens + stats.OutputTokens
	stats.CreatedAt = timeOrZero(createdAt)
	stats.LastUpdated = timeOrZero(updatedAt)
	stats.Duration = coarseDuration(stats.CreatedAt, stats.LastUpdated)
	return stats, true, nil
}

// coarseDuration renders the created-to-updated delta using the largest
// nonzero unit: days, else hours, else minutes, else seconds.
func coarseDuration(start, end time.Time) string {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return "unknown duration"
	}
	d := end.Sub(start)
	if days := int(d.Hours()) / 24; days > 0 {
		return fmt.Sprintf("%d days", days)
	}
	if hours := int(d.Hours()); hours > 0 {
		return fmt.Sprintf("%d hours", hours)
	}
	if minutes := int(d.Minutes()); minutes > 0 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	return fmt.Sprintf("%d seconds", int(d.Seconds()))
}

// GetDatabaseStats returns store-wide counters and the on-disk size.
func (s *Store) GetDatabaseStats(ctx context.Context) (models.DatabaseStats, error) {
	var stats models.DatabaseStats

	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM conversations WHERE is_deleted = 0`, &stats.ActiveConversations},
		{`SELECT COUNT(*) FROM messages`, &stats.TotalMessages},
		{`SELECT COUNT(*) FROM code_artifacts`, &stats.TotalArtifacts},
		{`SELECT COUNT(*) FROM project_contexts`, &stats.TotalContexts},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return models.DatabaseStats{}, fmt.Errorf("database stats: %w", err)
		}
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_input_tokens), 0), COALESCE(SUM(total_output_tokens), 0)
			FROM conversations WHERE is_deleted = 0`,
	).Scan(&stats.TotalInputTokens, &stats.TotalOutputTokens); err != nil {
		return models.DatabaseStats{}, fmt.Errorf("token stats: %w", err)
	}
	stats.TotalTokens = stats.TotalInputTokens + stats.TotalOutputTokens

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}
