package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p      Product
		images string
		tag    sql.NullString
		userID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &images, &tag, &p.Fav, &p.Views, &p.SortOrder, &p.CreatedAt, &userID); err != nil {
		return nil, err
	}

	p.Images = []string{}
	if images != "" {
		if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images for product %d: %w", p.ID, err)
		}
	}
	if tag.Valid {
		p.Tag = &tag.String
	}
	if userID.Valid {
		p.UserID = &userID.String
	}
	return &p, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("failed to encode images: %w", err)
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// ListProducts returns the live catalog ordered by sort_order, then id.
// Returns an empty slice (not nil) when the catalog is empty.
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]*Product, error) {
	query := "SELECT " + productColumns + " FROM products ORDER BY sort_order ASC, id ASC"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	products := make([]*Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetProduct retrieves a single product by id.
// Returns ErrNotFound if the product does not exist.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id int64) (*Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = ?"
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// CreateProduct inserts a product and returns the stored row.
// A zero ID lets SQLite assign one; an empty CreatedAt is set to the current time.
// Returns ErrDuplicate if a product with the given ID already exists.
func (s *SQLiteStorage) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	images, err := encodeImages(p.Images)
	if err != nil {
		return nil, err
	}
	createdAt := p.CreatedAt
	if createdAt == "" {
		createdAt = FormatTimestamp(time.Now())
	}

	var id any
	if p.ID != 0 {
		id = p.ID
	}

	query := "INSERT INTO products (" + productColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	result, err := s.db.ExecContext(ctx, query,
		id, p.Title, p.Description, images, nullString(p.Tag), p.Fav, p.Views, p.SortOrder, createdAt, nullString(p.UserID))
	if err != nil {
		if isConstraintError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetProduct(ctx, newID)
}

// UpdateProduct applies the non-nil fields of patch to the product.
// Returns ErrNotFound if the product does not exist.
func (s *SQLiteStorage) UpdateProduct(ctx context.Context, id int64, patch *ProductPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Images != nil {
		images, err := encodeImages(*patch.Images)
		if err != nil {
			return err
		}
		sets = append(sets, "images = ?")
		args = append(args, images)
	}
	if patch.Tag != nil {
		// An empty tag clears it.
		sets = append(sets, "tag = ?")
		if *patch.Tag == "" {
			args = append(args, nil)
		} else {
			args = append(args, *patch.Tag)
		}
	}
	if patch.Fav != nil {
		sets = append(sets, "fav = ?")
		args = append(args, *patch.Fav)
	}
	if patch.Views != nil {
		sets = append(sets, "views = ?")
		args = append(args, *patch.Views)
	}
	if patch.SortOrder != nil {
		sets = append(sets, "sort_order = ?")
		args = append(args, *patch.SortOrder)
	}

	if len(sets) == 0 {
		// Nothing to change, but the product must still exist.
		_, err := s.GetProduct(ctx, id)
		return err
	}

	query := "UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
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

// DeleteProduct removes a product by id.
// Returns ErrNotFound if the product does not exist.
func (s *SQLiteStorage) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
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

// UpdateSortOrders applies each update in order. Updates are not atomic as a
// group: a failure leaves earlier updates applied. Unknown ids are skipped.
func (s *SQLiteStorage) UpdateSortOrders(ctx context.Context, updates []SortOrderUpdate) error {
	for _, u := range updates {
		if _, err := s.db.ExecContext(ctx, "UPDATE products SET sort_order = ? WHERE id = ?", u.SortOrder, u.ID); err != nil {
			return fmt.Errorf("failed to update sort order for product %d: %w", u.ID, err)
		}
	}
	return nil
}

// IncrementCounter adds one to the views or fav counter and returns the new value.
// Returns ErrNotFound if the product does not exist.
func (s *SQLiteStorage) IncrementCounter(ctx context.Context, id int64, counter Counter) (int64, error) {
	var column string
	switch counter {
	case CounterViews:
		column = "views"
	case CounterFav:
		column = "fav"
	default:
		return 0, fmt.Errorf("unknown counter %q", counter)
	}

	query := "UPDATE products SET " + column + " = " + column + " + 1 WHERE id = ? RETURNING " + column
	var value int64
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return value, nil
}
