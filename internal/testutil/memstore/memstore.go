// Package memstore provides an in-memory implementation of storage.Storage for testing.
//
// Store keeps products, settings, backups and the restore lock in maps guarded by
// a mutex. Each method can be overridden by setting the corresponding function
// field, which is how tests inject failures. If a function field is nil, the
// in-memory behavior is used.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sipico/catalog-backend/internal/storage"
)

// Store is an in-memory storage.Storage with overridable methods.
type Store struct {
	// Product operations
	ListProductsFunc     func(ctx context.Context) ([]*storage.Product, error)
	GetProductFunc       func(ctx context.Context, id int64) (*storage.Product, error)
	CreateProductFunc    func(ctx context.Context, p *storage.Product) (*storage.Product, error)
	UpdateProductFunc    func(ctx context.Context, id int64, patch *storage.ProductPatch) error
	DeleteProductFunc    func(ctx context.Context, id int64) error
	UpdateSortOrdersFunc func(ctx context.Context, updates []storage.SortOrderUpdate) error
	IncrementCounterFunc func(ctx context.Context, id int64, counter storage.Counter) (int64, error)
	BeginReplaceFunc     func(ctx context.Context) (storage.CatalogReplacement, error)

	// InsertBatchHook runs before each staged batch with the 1-based call number.
	// A non-nil error fails that batch without staging any of its rows.
	InsertBatchHook func(call int, products []*storage.Product) error
	// CommitFunc replaces the in-memory commit when set.
	CommitFunc func(ctx context.Context, expected int) error

	// Settings operations
	ListSettingsFunc   func(ctx context.Context) ([]*storage.SiteSettings, error)
	UpdateSettingsFunc func(ctx context.Context, s *storage.SiteSettings) error

	// Backup operations
	CreateBackupFunc func(ctx context.Context, label string, recordCount int, data []byte) (*storage.BackupSummary, error)
	GetBackupFunc    func(ctx context.Context, id int64) (*storage.Backup, error)
	ListBackupsFunc  func(ctx context.Context, limit int) ([]*storage.BackupSummary, error)
	DeleteBackupFunc func(ctx context.Context, id int64) error

	// Restore lock
	AcquireRestoreLockFunc func(ctx context.Context, holder string) error
	ReleaseRestoreLockFunc func(ctx context.Context, holder string) error

	// Lifecycle
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error

	// Now returns the time used for created_at values. Defaults to time.Now.
	Now func() time.Time

	mu            sync.Mutex
	products      map[int64]*storage.Product
	nextProductID int64
	settings      map[int64]*storage.SiteSettings
	backups       []*storage.Backup
	nextBackupID  int64
	lockHolder    string
	batchSizes    []int
}

var _ storage.Storage = (*Store)(nil)

// New returns an empty store with the default settings row seeded.
func New() *Store {
	s := &Store{}
	s.init()
	return s
}

func (s *Store) init() {
	if s.products != nil {
		return
	}
	s.products = make(map[int64]*storage.Product)
	s.settings = map[int64]*storage.SiteSettings{
		storage.DefaultSettingsID: {ID: storage.DefaultSettingsID},
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cloneProduct(p *storage.Product) *storage.Product {
	c := *p
	c.Images = append([]string{}, p.Images...)
	if p.Tag != nil {
		tag := *p.Tag
		c.Tag = &tag
	}
	if p.UserID != nil {
		uid := *p.UserID
		c.UserID = &uid
	}
	return &c
}

// Seed adds products directly, bypassing function fields. Zero ids are assigned.
func (s *Store) Seed(products ...*storage.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	for _, p := range products {
		c := cloneProduct(p)
		if c.ID == 0 {
			s.nextProductID++
			c.ID = s.nextProductID
		} else if c.ID > s.nextProductID {
			s.nextProductID = c.ID
		}
		s.products[c.ID] = c
	}
}

// BatchSizes returns the sizes of every staged batch attempted so far, in order.
func (s *Store) BatchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int{}, s.batchSizes...)
}

// BackupCount returns the number of stored backups.
func (s *Store) BackupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.backups)
}

// LockHolder returns the current restore lock holder, or "" when free.
func (s *Store) LockHolder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockHolder
}

func (s *Store) sortedProducts() []*storage.Product {
	products := make([]*storage.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, cloneProduct(p))
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].SortOrder != products[j].SortOrder {
			return products[i].SortOrder < products[j].SortOrder
		}
		return products[i].ID < products[j].ID
	})
	return products
}

// ListProducts returns products ordered by sort_order, then id.
func (s *Store) ListProducts(ctx context.Context) ([]*storage.Product, error) {
	if s.ListProductsFunc != nil {
		return s.ListProductsFunc(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	return s.sortedProducts(), nil
}

// GetProduct returns a product by id.
func (s *Store) GetProduct(ctx context.Context, id int64) (*storage.Product, error) {
	if s.GetProductFunc != nil {
		return s.GetProductFunc(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	p, ok := s.products[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneProduct(p), nil
}

// CreateProduct stores a product, assigning an id when zero.
func (s *Store) CreateProduct(ctx context.Context, p *storage.Product) (*storage.Product, error) {
	if s.CreateProductFunc != nil {
		return s.CreateProductFunc(ctx, p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	c := cloneProduct(p)
	if c.ID == 0 {
		s.nextProductID++
		c.ID = s.nextProductID
	} else {
		if _, exists := s.products[c.ID]; exists {
			return nil, storage.ErrDuplicate
		}
		if c.ID > s.nextProductID {
			s.nextProductID = c.ID
		}
	}
	if c.CreatedAt == "" {
		c.CreatedAt = storage.FormatTimestamp(s.now())
	}
	s.products[c.ID] = c
	return cloneProduct(c), nil
}

// UpdateProduct applies the non-nil fields of patch.
func (s *Store) UpdateProduct(ctx context.Context, id int64, patch *storage.ProductPatch) error {
	if s.UpdateProductFunc != nil {
		return s.UpdateProductFunc(ctx, id, patch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	p, ok := s.products[id]
	if !ok {
		return storage.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Images != nil {
		p.Images = append([]string{}, (*patch.Images)...)
	}
	if patch.Tag != nil {
		if *patch.Tag == "" {
			p.Tag = nil
		} else {
			tag := *patch.Tag
			p.Tag = &tag
		}
	}
	if patch.Fav != nil {
		p.Fav = *patch.Fav
	}
	if patch.Views != nil {
		p.Views = *patch.Views
	}
	if patch.SortOrder != nil {
		p.SortOrder = *patch.SortOrder
	}
	return nil
}

// DeleteProduct removes a product.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	if s.DeleteProductFunc != nil {
		return s.DeleteProductFunc(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	if _, ok := s.products[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

// UpdateSortOrders applies each update in order, skipping unknown ids.
func (s *Store) UpdateSortOrders(ctx context.Context, updates []storage.SortOrderUpdate) error {
	if s.UpdateSortOrdersFunc != nil {
		return s.UpdateSortOrdersFunc(ctx, updates)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	for _, u := range updates {
		if p, ok := s.products[u.ID]; ok {
			p.SortOrder = u.SortOrder
		}
	}
	return nil
}

// IncrementCounter adds one to a product counter.
func (s *Store) IncrementCounter(ctx context.Context, id int64, counter storage.Counter) (int64, error) {
	if s.IncrementCounterFunc != nil {
		return s.IncrementCounterFunc(ctx, id, counter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	p, ok := s.products[id]
	if !ok {
		return 0, storage.ErrNotFound
	}
	switch counter {
	case storage.CounterViews:
		p.Views++
		return p.Views, nil
	case storage.CounterFav:
		p.Fav++
		return p.Fav, nil
	default:
		return 0, fmt.Errorf("unknown counter %q", counter)
	}
}

// replacement stages products in memory until Commit.
type replacement struct {
	s      *Store
	staged []*storage.Product
	calls  int
}

// BeginReplace starts an in-memory catalog replacement.
func (s *Store) BeginReplace(ctx context.Context) (storage.CatalogReplacement, error) {
	if s.BeginReplaceFunc != nil {
		return s.BeginReplaceFunc(ctx)
	}
	return &replacement{s: s}, nil
}

func (r *replacement) InsertBatch(_ context.Context, products []*storage.Product) error {
	r.calls++
	r.s.mu.Lock()
	r.s.batchSizes = append(r.s.batchSizes, len(products))
	r.s.mu.Unlock()

	if r.s.InsertBatchHook != nil {
		if err := r.s.InsertBatchHook(r.calls, products); err != nil {
			return err
		}
	}

	seen := make(map[int64]bool, len(r.staged))
	for _, p := range r.staged {
		if p.ID != 0 {
			seen[p.ID] = true
		}
	}
	for _, p := range products {
		if p.ID != 0 && seen[p.ID] {
			return fmt.Errorf("%w: product id %d", storage.ErrDuplicate, p.ID)
		}
		if p.ID != 0 {
			seen[p.ID] = true
		}
	}
	for _, p := range products {
		r.staged = append(r.staged, cloneProduct(p))
	}
	return nil
}

func (r *replacement) Commit(ctx context.Context, expected int) error {
	if r.s.CommitFunc != nil {
		return r.s.CommitFunc(ctx, expected)
	}
	if len(r.staged) != expected {
		return fmt.Errorf("%w: staged %d, expected %d", storage.ErrCountMismatch, len(r.staged), expected)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products = make(map[int64]*storage.Product, len(r.staged))
	// Explicit ids first so assigned ids cannot take one of them.
	for _, p := range r.staged {
		if p.ID == 0 {
			continue
		}
		if p.ID > r.s.nextProductID {
			r.s.nextProductID = p.ID
		}
		r.s.products[p.ID] = p
	}
	for _, p := range r.staged {
		if p.ID == 0 {
			r.s.nextProductID++
			p.ID = r.s.nextProductID
			r.s.products[p.ID] = p
		}
	}
	r.staged = nil
	return nil
}

func (r *replacement) Abort(context.Context) error {
	r.staged = nil
	return nil
}

// ListSettings returns settings rows ordered by id.
func (s *Store) ListSettings(ctx context.Context) ([]*storage.SiteSettings, error) {
	if s.ListSettingsFunc != nil {
		return s.ListSettingsFunc(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	settings := make([]*storage.SiteSettings, 0, len(s.settings))
	for _, st := range s.settings {
		c := *st
		settings = append(settings, &c)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].ID < settings[j].ID })
	return settings, nil
}

// UpdateSettings overwrites an existing settings row.
func (s *Store) UpdateSettings(ctx context.Context, st *storage.SiteSettings) error {
	if s.UpdateSettingsFunc != nil {
		return s.UpdateSettingsFunc(ctx, st)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
	existing, ok := s.settings[st.ID]
	if !ok {
		return storage.ErrNotFound
	}
	existing.AboutText = st.AboutText
	existing.ContactText = st.ContactText
	return nil
}

// CreateBackup stores a backup.
func (s *Store) CreateBackup(ctx context.Context, label string, recordCount int, data []byte) (*storage.BackupSummary, error) {
	if s.CreateBackupFunc != nil {
		return s.CreateBackupFunc(ctx, label, recordCount, data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBackupID++
	b := &storage.Backup{
		BackupSummary: storage.BackupSummary{
			ID:          s.nextBackupID,
			Label:       label,
			RecordCount: recordCount,
			CreatedAt:   s.now().UTC(),
		},
		Data: append([]byte{}, data...),
	}
	s.backups = append(s.backups, b)
	summary := b.BackupSummary
	return &summary, nil
}

// GetBackup returns a stored backup including its payload.
func (s *Store) GetBackup(ctx context.Context, id int64) (*storage.Backup, error) {
	if s.GetBackupFunc != nil {
		return s.GetBackupFunc(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.backups {
		if b.ID == id {
			c := *b
			c.Data = append([]byte{}, b.Data...)
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListBackups returns summaries newest first.
func (s *Store) ListBackups(ctx context.Context, limit int) ([]*storage.BackupSummary, error) {
	if s.ListBackupsFunc != nil {
		return s.ListBackupsFunc(ctx, limit)
	}
	if limit <= 0 {
		limit = storage.DefaultBackupListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries := make([]*storage.BackupSummary, 0, len(s.backups))
	for i := len(s.backups) - 1; i >= 0 && len(summaries) < limit; i-- {
		summary := s.backups[i].BackupSummary
		summaries = append(summaries, &summary)
	}
	return summaries, nil
}

// DeleteBackup removes a backup.
func (s *Store) DeleteBackup(ctx context.Context, id int64) error {
	if s.DeleteBackupFunc != nil {
		return s.DeleteBackupFunc(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.backups {
		if b.ID == id {
			s.backups = append(s.backups[:i], s.backups[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// AcquireRestoreLock takes the restore lock if it is free.
func (s *Store) AcquireRestoreLock(ctx context.Context, holder string) error {
	if s.AcquireRestoreLockFunc != nil {
		return s.AcquireRestoreLockFunc(ctx, holder)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockHolder != "" {
		return storage.ErrRestoreInProgress
	}
	s.lockHolder = holder
	return nil
}

// ReleaseRestoreLock frees the restore lock held by holder.
func (s *Store) ReleaseRestoreLock(ctx context.Context, holder string) error {
	if s.ReleaseRestoreLockFunc != nil {
		return s.ReleaseRestoreLockFunc(ctx, holder)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockHolder != holder {
		return storage.ErrNotFound
	}
	s.lockHolder = ""
	return nil
}

// Ping reports the store as healthy.
func (s *Store) Ping(ctx context.Context) error {
	if s.PingFunc != nil {
		return s.PingFunc(ctx)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	if s.CloseFunc != nil {
		return s.CloseFunc()
	}
	return nil
}
