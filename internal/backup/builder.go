// Package backup builds catalog snapshots and restores the catalog from them.
package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/sipico/catalog-backend/internal/metrics"
	"github.com/sipico/catalog-backend/internal/storage"
)

// DisplayLayout formats timestamps inside default backup labels.
const DisplayLayout = "2006/1/2 15:04:05"

// CatalogReader lists the live catalog ordered by sort_order, then id.
type CatalogReader interface {
	ListProducts(ctx context.Context) ([]*storage.Product, error)
}

// SettingsReader lists all site settings rows.
type SettingsReader interface {
	ListSettings(ctx context.Context) ([]*storage.SiteSettings, error)
}

// BackupStore persists and retrieves labelled snapshots.
type BackupStore interface {
	CreateBackup(ctx context.Context, label string, recordCount int, data []byte) (*storage.BackupSummary, error)
	GetBackup(ctx context.Context, id int64) (*storage.Backup, error)
	ListBackups(ctx context.Context, limit int) ([]*storage.BackupSummary, error)
	DeleteBackup(ctx context.Context, id int64) error
}

// Builder reads the catalog and settings and writes snapshots to a BackupStore.
type Builder struct {
	catalog  CatalogReader
	settings SettingsReader
	store    BackupStore
	location *time.Location
	now      func() time.Time
}

// NewBuilder creates a Builder. Labels are rendered in loc; a nil loc means UTC.
func NewBuilder(catalog CatalogReader, settings SettingsReader, store BackupStore, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{
		catalog:  catalog,
		settings: settings,
		store:    store,
		location: loc,
		now:      time.Now,
	}
}

// WithClock returns a copy of the builder that reads the time from now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	c := *b
	c.now = now
	return &c
}

// BuildSnapshot reads the current catalog and settings into a payload.
// It has no side effects.
func (b *Builder) BuildSnapshot(ctx context.Context) (*SnapshotPayload, error) {
	products, err := b.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup failed: %w", err)
	}
	settings, err := b.settings.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup failed: %w", err)
	}

	payload := &SnapshotPayload{
		Version:      SnapshotVersion,
		Timestamp:    storage.FormatTimestamp(b.now()),
		Products:     make([]SnapshotProduct, 0, len(products)),
		SiteSettings: make([]storage.SiteSettings, 0, len(settings)),
	}
	for _, p := range products {
		payload.Products = append(payload.Products, FromProduct(p))
	}
	for _, s := range settings {
		payload.SiteSettings = append(payload.SiteSettings, *s)
	}
	count := len(payload.Products)
	payload.RecordCount = &count

	return payload, nil
}

// DefaultLabel returns the label used when a backup is created without one.
func (b *Builder) DefaultLabel() string {
	return "Backup " + b.now().In(b.location).Format(DisplayLayout)
}

// CreateLabeledBackup snapshots the catalog and stores it under label,
// or under DefaultLabel when label is empty.
func (b *Builder) CreateLabeledBackup(ctx context.Context, label string) (*storage.BackupSummary, error) {
	if label == "" {
		label = b.DefaultLabel()
	}
	summary, _, err := b.persist(ctx, label)
	if err != nil {
		return nil, err
	}
	metrics.RecordBackupCreated("manual")
	return summary, nil
}

// createSafetySnapshot stores the pre-restore snapshot and returns it with its summary.
func (b *Builder) createSafetySnapshot(ctx context.Context) (*storage.BackupSummary, *SnapshotPayload, error) {
	label := "⚠️ Pre-restore safety snapshot " + b.now().In(b.location).Format(DisplayLayout)
	summary, payload, err := b.persist(ctx, label)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordBackupCreated("safety")
	return summary, payload, nil
}

func (b *Builder) persist(ctx context.Context, label string) (*storage.BackupSummary, *SnapshotPayload, error) {
	payload, err := b.BuildSnapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := payload.Marshal()
	if err != nil {
		return nil, nil, fmt.Errorf("backup failed: %w", err)
	}
	summary, err := b.store.CreateBackup(ctx, label, *payload.RecordCount, data)
	if err != nil {
		return nil, nil, fmt.Errorf("backup failed: %w", err)
	}
	return summary, payload, nil
}

// Download returns the stored payload bytes of backup id verbatim, or a
// freshly built snapshot of the live catalog when id is zero.
func (b *Builder) Download(ctx context.Context, id int64) ([]byte, error) {
	if id == 0 {
		payload, err := b.BuildSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		return payload.Marshal()
	}

	rec, err := b.store.GetBackup(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}
