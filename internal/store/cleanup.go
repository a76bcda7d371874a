package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CleanupStale soft-deletes non-favorite conversations whose last activity
// predates the retention window. Returns the number of conversations
// flagged. Child rows are left in place.
func (s *Store) CleanupStale(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := formatTime(time.Now().AddDate(0, 0, -retentionDays))

	var count int64
	err := s.withTx(ctx, "cleanup stale conversations", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE conversations SET is_deleted = 1
				WHERE last_updated < ? AND is_deleted = 0 AND is_favorite = 0`,
			cutoff,
		)
		if err != nil {
			return fmt.Errorf("cleanup conversations: %w", err)
		}
		count, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("cleanup rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.WithField("count", count).Info("soft-deleted stale conversations")
	}
	return count, nil
}
