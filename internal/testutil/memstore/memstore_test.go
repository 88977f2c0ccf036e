package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/sipico/catalog-backend/internal/storage"
)

// TestStore_ImplementsStorageInterface verifies that Store implements storage.Storage.
func TestStore_ImplementsStorageInterface(t *testing.T) {
	t.Parallel()
	var _ storage.Storage = (*Store)(nil)
}

// TestStore_ZeroValueUsable verifies that a zero Store behaves like New().
func TestStore_ZeroValueUsable(t *testing.T) {
	t.Parallel()
	s := &Store{}
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", products)
	}

	settings, err := s.ListSettings(ctx)
	if err != nil || len(settings) != 1 {
		t.Errorf("expected seeded settings row, got %v, %v", settings, err)
	}
}

// TestStore_ProductOrdering verifies sort_order then id ordering.
func TestStore_ProductOrdering(t *testing.T) {
	t.Parallel()
	s := New()
	s.Seed(
		&storage.Product{ID: 3, SortOrder: 1},
		&storage.Product{ID: 1, SortOrder: 2},
		&storage.Product{ID: 2, SortOrder: 1},
	)

	products, _ := s.ListProducts(context.Background())
	if products[0].ID != 2 || products[1].ID != 3 || products[2].ID != 1 {
		t.Errorf("unexpected order: %d %d %d", products[0].ID, products[1].ID, products[2].ID)
	}
}

// TestStore_FuncOverride verifies that function fields take precedence.
func TestStore_FuncOverride(t *testing.T) {
	t.Parallel()
	want := errors.New("boom")
	s := &Store{
		ListProductsFunc: func(ctx context.Context) ([]*storage.Product, error) {
			return nil, want
		},
	}

	if _, err := s.ListProducts(context.Background()); !errors.Is(err, want) {
		t.Errorf("expected override error, got %v", err)
	}
}

// TestStore_ReplaceAndHook verifies staged batches, hook injection and commit.
func TestStore_ReplaceAndHook(t *testing.T) {
	t.Parallel()
	s := New()
	s.Seed(&storage.Product{ID: 1})
	s.InsertBatchHook = func(call int, _ []*storage.Product) error {
		if call == 2 {
			return errors.New("batch failed")
		}
		return nil
	}
	ctx := context.Background()

	r, _ := s.BeginReplace(ctx)
	if err := r.InsertBatch(ctx, []*storage.Product{{ID: 10}}); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}
	if err := r.InsertBatch(ctx, []*storage.Product{{ID: 11}}); err == nil {
		t.Fatal("expected second batch to fail")
	}
	if err := r.Commit(ctx, 2); !errors.Is(err, storage.ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
	if err := r.Commit(ctx, 1); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	products, _ := s.ListProducts(ctx)
	if len(products) != 1 || products[0].ID != 10 {
		t.Errorf("unexpected catalog after commit: %+v", products)
	}
	if sizes := s.BatchSizes(); len(sizes) != 2 {
		t.Errorf("expected 2 recorded batches, got %v", sizes)
	}
}

// TestStore_RestoreLock verifies single-holder locking.
func TestStore_RestoreLock(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	if err := s.AcquireRestoreLock(ctx, "a"); err != nil {
		t.Fatalf("AcquireRestoreLock failed: %v", err)
	}
	if err := s.AcquireRestoreLock(ctx, "b"); !errors.Is(err, storage.ErrRestoreInProgress) {
		t.Errorf("expected ErrRestoreInProgress, got %v", err)
	}
	if err := s.ReleaseRestoreLock(ctx, "a"); err != nil {
		t.Errorf("ReleaseRestoreLock failed: %v", err)
	}
	if s.LockHolder() != "" {
		t.Errorf("expected lock free, held by %q", s.LockHolder())
	}
}

// TestStore_Backups verifies newest-first listing and verbatim payloads.
func TestStore_Backups(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	first, _ := s.CreateBackup(ctx, "first", 0, []byte(`{"a":1}`))
	_, _ = s.CreateBackup(ctx, "second", 0, []byte(`{}`))

	list, _ := s.ListBackups(ctx, 0)
	if len(list) != 2 || list[0].Label != "second" {
		t.Errorf("unexpected list: %+v", list)
	}

	b, err := s.GetBackup(ctx, first.ID)
	if err != nil || string(b.Data) != `{"a":1}` {
		t.Errorf("unexpected backup %v, %v", b, err)
	}

	if err := s.DeleteBackup(ctx, first.ID); err != nil {
		t.Errorf("DeleteBackup failed: %v", err)
	}
	if s.BackupCount() != 1 {
		t.Errorf("expected 1 backup, got %d", s.BackupCount())
	}
}
