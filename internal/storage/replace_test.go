package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedProducts(t *testing.T, s *SQLiteStorage, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		if _, err := s.CreateProduct(context.Background(), &Product{ID: id, Title: "live"}); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}
	}
}

func TestReplace_Commit(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()
	seedProducts(t, s, 1, 2, 3)

	r, err := s.BeginReplace(ctx)
	if err != nil {
		t.Fatalf("BeginReplace failed: %v", err)
	}
	batch := []*Product{
		{ID: 10, Title: "ten", CreatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: 11, Title: "eleven", Images: []string{"i.png"}, CreatedAt: "2024-01-01T00:00:00.000Z"},
	}
	if err := r.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	// Staged rows are not visible before commit.
	live, _ := s.ListProducts(ctx)
	if len(live) != 3 {
		t.Fatalf("expected live catalog untouched before commit, got %d rows", len(live))
	}

	if err := r.Commit(ctx, 2); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	live, err = s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(live) != 2 || live[0].ID != 10 || live[1].ID != 11 {
		t.Fatalf("unexpected catalog after commit: %+v", live)
	}
	if live[1].Images[0] != "i.png" {
		t.Errorf("images not carried: %v", live[1].Images)
	}

	var staged int
	_ = s.getDB().QueryRow("SELECT COUNT(*) FROM products_staging").Scan(&staged)
	if staged != 0 {
		t.Errorf("expected staging cleared, got %d rows", staged)
	}
}

func TestReplace_ExplicitIDsSwappedBeforeAssigned(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	r, err := s.BeginReplace(ctx)
	if err != nil {
		t.Fatalf("BeginReplace failed: %v", err)
	}
	batch := []*Product{
		{Title: "a", CreatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: 1, Title: "b", CreatedAt: "2024-01-01T00:00:00.000Z"},
	}
	if err := r.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if err := r.Commit(ctx, 2); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	b, err := s.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("GetProduct(1) failed: %v", err)
	}
	if b.Title != "b" {
		t.Errorf("id 1 holds %q, want the explicitly numbered product", b.Title)
	}
	live, _ := s.ListProducts(ctx)
	if len(live) != 2 {
		t.Fatalf("expected 2 products, got %+v", live)
	}
}

func TestReplace_CountMismatchLeavesCatalog(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()
	seedProducts(t, s, 1, 2)

	r, err := s.BeginReplace(ctx)
	if err != nil {
		t.Fatalf("BeginReplace failed: %v", err)
	}
	if err := r.InsertBatch(ctx, []*Product{{ID: 5, CreatedAt: "x"}}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	if err := r.Commit(ctx, 2); !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
	live, _ := s.ListProducts(ctx)
	if len(live) != 2 || live[0].ID != 1 {
		t.Errorf("live catalog changed after mismatch: %+v", live)
	}

	if err := r.Abort(ctx); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
}

func TestReplace_BatchIsAtomic(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	r, err := s.BeginReplace(ctx)
	if err != nil {
		t.Fatalf("BeginReplace failed: %v", err)
	}
	if err := r.InsertBatch(ctx, []*Product{{ID: 1, CreatedAt: "x"}}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	// Second batch repeats id 1 after a fresh row; neither row may be staged.
	err = r.InsertBatch(ctx, []*Product{{ID: 2, CreatedAt: "x"}, {ID: 1, CreatedAt: "x"}})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	var staged int
	_ = s.getDB().QueryRow("SELECT COUNT(*) FROM products_staging").Scan(&staged)
	if staged != 1 {
		t.Errorf("expected only first batch staged, got %d rows", staged)
	}
}

func TestBeginReplace_ClearsLeftovers(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	r, _ := s.BeginReplace(ctx)
	_ = r.InsertBatch(ctx, []*Product{{ID: 1, CreatedAt: "x"}})

	r2, err := s.BeginReplace(ctx)
	if err != nil {
		t.Fatalf("BeginReplace failed: %v", err)
	}
	if err := r2.Commit(ctx, 0); err != nil {
		t.Fatalf("expected empty staging after BeginReplace, got %v", err)
	}
}

func TestRestoreLock(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.AcquireRestoreLock(ctx, "a"); err != nil {
		t.Fatalf("AcquireRestoreLock failed: %v", err)
	}
	if err := s.AcquireRestoreLock(ctx, "b"); !errors.Is(err, ErrRestoreInProgress) {
		t.Fatalf("expected ErrRestoreInProgress, got %v", err)
	}
	if err := s.ReleaseRestoreLock(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound releasing someone else's lock, got %v", err)
	}
	if err := s.ReleaseRestoreLock(ctx, "a"); err != nil {
		t.Fatalf("ReleaseRestoreLock failed: %v", err)
	}
	if err := s.AcquireRestoreLock(ctx, "b"); err != nil {
		t.Fatalf("expected lock free after release, got %v", err)
	}
}

func TestRestoreLock_StaleIsTakenOver(t *testing.T) {
	t.Parallel()
	s := newTestStorage(t)
	ctx := context.Background()

	stale := time.Now().UTC().Add(-time.Hour).Format("2006-01-02 15:04:05")
	if _, err := s.getDB().Exec("INSERT INTO restore_lock (id, holder, acquired_at) VALUES (1, 'crashed', ?)", stale); err != nil {
		t.Fatalf("failed to seed stale lock: %v", err)
	}

	if err := s.AcquireRestoreLock(ctx, "fresh"); err != nil {
		t.Fatalf("expected stale lock to be taken over, got %v", err)
	}
}
