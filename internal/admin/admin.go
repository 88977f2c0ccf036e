// Package admin provides the privileged catalog endpoints: login, token
// verification, backup management, restore, and product and settings edits.
package admin

import (
	"context"
	"log/slog"
	"time"

	"github.com/sipico/catalog-backend/internal/auth"
	"github.com/sipico/catalog-backend/internal/backup"
	"github.com/sipico/catalog-backend/internal/middleware"
	"github.com/sipico/catalog-backend/internal/storage"
)

// Handler provides admin endpoints
type Handler struct {
	storage  Storage
	auth     *auth.Authenticator
	builder  *backup.Builder
	restorer *backup.Restorer
	limiter  *middleware.RateLimiter
	logger   *slog.Logger
	logLevel *slog.LevelVar
}

// Storage interface for admin operations
type Storage interface {
	// Health check
	Ping(ctx context.Context) error

	// Catalog edits
	ListProducts(ctx context.Context) ([]*storage.Product, error)
	CreateProduct(ctx context.Context, p *storage.Product) (*storage.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch *storage.ProductPatch) error
	DeleteProduct(ctx context.Context, id int64) error
	UpdateSortOrders(ctx context.Context, updates []storage.SortOrderUpdate) error
	BeginReplace(ctx context.Context) (storage.CatalogReplacement, error)

	// Settings
	ListSettings(ctx context.Context) ([]*storage.SiteSettings, error)
	UpdateSettings(ctx context.Context, s *storage.SiteSettings) error

	// Backups
	CreateBackup(ctx context.Context, label string, recordCount int, data []byte) (*storage.BackupSummary, error)
	GetBackup(ctx context.Context, id int64) (*storage.Backup, error)
	ListBackups(ctx context.Context, limit int) ([]*storage.BackupSummary, error)
	DeleteBackup(ctx context.Context, id int64) error

	// Restore coordination
	AcquireRestoreLock(ctx context.Context, holder string) error
	ReleaseRestoreLock(ctx context.Context, holder string) error
}

// NewHandler creates an admin handler. Backup labels default to UTC until
// SetBackupServices installs a builder for the display timezone.
func NewHandler(store Storage, authenticator *auth.Authenticator, logLevel *slog.LevelVar, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if logLevel == nil {
		logLevel = new(slog.LevelVar)
	}

	h := &Handler{
		storage:  store,
		auth:     authenticator,
		logLevel: logLevel,
		logger:   logger,
	}
	if store != nil {
		builder := backup.NewBuilder(store, store, store, time.UTC)
		h.SetBackupServices(builder, backup.NewRestorer(builder, store, store, store, store, logger))
	}
	return h
}

// SetBackupServices replaces the backup builder and restore orchestrator.
func (h *Handler) SetBackupServices(builder *backup.Builder, restorer *backup.Restorer) {
	h.builder = builder
	h.restorer = restorer
}

// SetLoginLimiter throttles the login endpoint per client IP.
// A nil limiter leaves login unthrottled.
func (h *Handler) SetLoginLimiter(l *middleware.RateLimiter) {
	h.limiter = l
}
