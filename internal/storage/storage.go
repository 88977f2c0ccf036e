// Package storage provides types and interfaces for SQLite persistence operations.
package storage

import (
	"context"
)

// Storage defines the interface for SQLite persistence operations.
type Storage interface {
	// Product catalog operations
	ListProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, patch *ProductPatch) error
	DeleteProduct(ctx context.Context, id int64) error
	UpdateSortOrders(ctx context.Context, updates []SortOrderUpdate) error
	IncrementCounter(ctx context.Context, id int64, counter Counter) (int64, error)
	BeginReplace(ctx context.Context) (CatalogReplacement, error)

	// Site settings operations
	ListSettings(ctx context.Context) ([]*SiteSettings, error)
	UpdateSettings(ctx context.Context, s *SiteSettings) error

	// Backup operations
	CreateBackup(ctx context.Context, label string, recordCount int, data []byte) (*BackupSummary, error)
	GetBackup(ctx context.Context, id int64) (*Backup, error)
	ListBackups(ctx context.Context, limit int) ([]*BackupSummary, error)
	DeleteBackup(ctx context.Context, id int64) error

	// Restore coordination
	AcquireRestoreLock(ctx context.Context, holder string) error
	ReleaseRestoreLock(ctx context.Context, holder string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// CatalogReplacement stages a full replacement of the product catalog.
// Rows written with InsertBatch are invisible to readers until Commit swaps
// them into the live catalog in a single transaction.
type CatalogReplacement interface {
	InsertBatch(ctx context.Context, products []*Product) error
	Commit(ctx context.Context, expected int) error
	Abort(ctx context.Context) error
}
