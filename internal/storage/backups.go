package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DefaultBackupListLimit is the number of backups returned by ListBackups when limit <= 0.
const DefaultBackupListLimit = 50

// CreateBackup stores a serialized snapshot and returns its summary.
func (s *SQLiteStorage) CreateBackup(ctx context.Context, label string, recordCount int, data []byte) (*BackupSummary, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO backups (label, record_count, data) VALUES (?, ?, ?)",
		label, recordCount, string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create backup: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	var summary BackupSummary
	err = s.db.QueryRowContext(ctx,
		"SELECT id, label, record_count, created_at FROM backups WHERE id = ?", id,
	).Scan(&summary.ID, &summary.Label, &summary.RecordCount, &summary.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read created backup: %w", err)
	}
	return &summary, nil
}

// GetBackup retrieves a backup including its payload.
// Returns ErrNotFound if the backup does not exist.
func (s *SQLiteStorage) GetBackup(ctx context.Context, id int64) (*Backup, error) {
	var (
		b    Backup
		data string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, label, record_count, created_at, data FROM backups WHERE id = ?", id,
	).Scan(&b.ID, &b.Label, &b.RecordCount, &b.CreatedAt, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}
	b.Data = []byte(data)
	return &b, nil
}

// ListBackups returns backup summaries, newest first.
// Returns an empty slice (not nil) if there are no backups.
func (s *SQLiteStorage) ListBackups(ctx context.Context, limit int) ([]*BackupSummary, error) {
	if limit <= 0 {
		limit = DefaultBackupListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, label, record_count, created_at FROM backups ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backups: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	backups := make([]*BackupSummary, 0)
	for rows.Next() {
		var b BackupSummary
		if err := rows.Scan(&b.ID, &b.Label, &b.RecordCount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		backups = append(backups, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backups: %w", err)
	}

	return backups, nil
}

// DeleteBackup removes a backup by id.
// Returns ErrNotFound if the backup does not exist.
func (s *SQLiteStorage) DeleteBackup(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM backups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
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
