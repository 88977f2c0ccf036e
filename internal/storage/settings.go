package storage

import (
	"context"
	"fmt"
)

// ListSettings returns all site settings rows ordered by id.
func (s *SQLiteStorage) ListSettings(ctx context.Context) ([]*SiteSettings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, about_text, contact_text FROM site_settings ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query site settings: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	settings := make([]*SiteSettings, 0)
	for rows.Next() {
		var st SiteSettings
		if err := rows.Scan(&st.ID, &st.AboutText, &st.ContactText); err != nil {
			return nil, fmt.Errorf("failed to scan site settings: %w", err)
		}
		settings = append(settings, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating site settings: %w", err)
	}

	return settings, nil
}

// UpdateSettings overwrites the texts of an existing settings row.
// Returns ErrNotFound if no row has the given id; rows are never created here.
func (s *SQLiteStorage) UpdateSettings(ctx context.Context, st *SiteSettings) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE site_settings SET about_text = ?, contact_text = ? WHERE id = ?",
		st.AboutText, st.ContactText, st.ID)
	if err != nil {
		return fmt.Errorf("failed to update site settings: %w", err)
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
