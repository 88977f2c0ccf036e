package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// sqliteReplacement stages rows in products_staging and swaps them into
// products on Commit.
type sqliteReplacement struct {
	s *SQLiteStorage
}

// BeginReplace starts a catalog replacement. Any rows left in the staging
// table by an earlier, interrupted replacement are discarded.
func (s *SQLiteStorage) BeginReplace(ctx context.Context) (CatalogReplacement, error) {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM products_staging"); err != nil {
		return nil, fmt.Errorf("failed to clear staging table: %w", err)
	}
	return &sqliteReplacement{s: s}, nil
}

// InsertBatch writes products to the staging table in one transaction.
// Either the whole batch is staged or none of it is.
func (r *sqliteReplacement) InsertBatch(ctx context.Context, products []*Product) error {
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO products_staging ("+productColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare staging insert: %w", err)
		}
		defer stmt.Close() //nolint:errcheck

		for _, p := range products {
			images, err := encodeImages(p.Images)
			if err != nil {
				return err
			}
			var id any
			if p.ID != 0 {
				id = p.ID
			}
			if _, err := stmt.ExecContext(ctx,
				id, p.Title, p.Description, images, nullString(p.Tag), p.Fav, p.Views, p.SortOrder, p.CreatedAt, nullString(p.UserID),
			); err != nil {
				if isConstraintError(err) {
					return fmt.Errorf("%w: product id %d", ErrDuplicate, p.ID)
				}
				return fmt.Errorf("failed to stage product %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// Commit verifies that exactly expected rows are staged and then replaces the
// live catalog with them in a single transaction. On ErrCountMismatch the
// live catalog is untouched and the staged rows remain until Abort.
func (r *sqliteReplacement) Commit(ctx context.Context, expected int) error {
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		var staged int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM products_staging").Scan(&staged); err != nil {
			return fmt.Errorf("failed to count staged products: %w", err)
		}
		if staged != expected {
			return fmt.Errorf("%w: staged %d, expected %d", ErrCountMismatch, staged, expected)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO products ("+productColumns+") SELECT "+productColumns+" FROM products_staging ORDER BY id IS NULL, seq",
		); err != nil {
			return fmt.Errorf("failed to swap staged products: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM products_staging"); err != nil {
			return fmt.Errorf("failed to clear staging table: %w", err)
		}
		return nil
	})
}

// Abort discards all staged rows. The live catalog is not touched.
func (r *sqliteReplacement) Abort(ctx context.Context) error {
	if _, err := r.s.db.ExecContext(ctx, "DELETE FROM products_staging"); err != nil {
		return fmt.Errorf("failed to clear staging table: %w", err)
	}
	return nil
}
