package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RestoreLockStaleAfter is how long a restore lock is honoured before another
// restore may take it over. It covers holders that crashed without releasing.
var RestoreLockStaleAfter = 15 * time.Minute

// AcquireRestoreLock takes the single restore lock for holder.
// Returns ErrRestoreInProgress if a non-stale lock is already held.
func (s *SQLiteStorage) AcquireRestoreLock(ctx context.Context, holder string) error {
	staleModifier := fmt.Sprintf("-%d seconds", int64(RestoreLockStaleAfter/time.Second))

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM restore_lock WHERE acquired_at < datetime('now', ?)", staleModifier,
		); err != nil {
			return fmt.Errorf("failed to clear stale restore lock: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO restore_lock (id, holder) VALUES (1, ?)", holder,
		); err != nil {
			if isConstraintError(err) {
				return ErrRestoreInProgress
			}
			return fmt.Errorf("failed to acquire restore lock: %w", err)
		}
		return nil
	})
}

// ReleaseRestoreLock drops the restore lock if it is held by holder.
// Returns ErrNotFound if holder does not hold the lock.
func (s *SQLiteStorage) ReleaseRestoreLock(ctx context.Context, holder string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM restore_lock WHERE holder = ?", holder)
	if err != nil {
		return fmt.Errorf("failed to release restore lock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
