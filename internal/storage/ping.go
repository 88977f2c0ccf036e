package storage

import (
	"context"
	"fmt"
)

// Ping runs a trivial query; /ready uses it to report database health.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
