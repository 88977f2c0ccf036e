package backup

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sipico/catalog-backend/internal/metrics"
	"github.com/sipico/catalog-backend/internal/storage"
)

// BatchSize is the number of products staged per InsertBatch call.
const BatchSize = 50

// State is a step of the restore state machine.
type State string

// Restore states in execution order, plus the terminal Failed state.
const (
	StateIdle               State = "idle"
	StateValidating         State = "validating"
	StateSafetySnapshotting State = "safety_snapshotting"
	StateWiping             State = "wiping"
	StateInserting          State = "inserting"
	StateSwapping           State = "swapping"
	StateRestoringSettings  State = "restoring_settings"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// CatalogWriter starts a staged replacement of the live catalog.
type CatalogWriter interface {
	BeginReplace(ctx context.Context) (storage.CatalogReplacement, error)
}

// SettingsWriter updates the texts of an existing settings row.
type SettingsWriter interface {
	UpdateSettings(ctx context.Context, s *storage.SiteSettings) error
}

// RestoreLock serializes restores across processes sharing one store.
type RestoreLock interface {
	AcquireRestoreLock(ctx context.Context, holder string) error
	ReleaseRestoreLock(ctx context.Context, holder string) error
}

// Source selects what to restore from. Exactly one field must be set.
type Source struct {
	BackupID int64
	Uploaded json.RawMessage
}

// RestoreResult summarizes a completed restore.
type RestoreResult struct {
	RestoredCount  int
	SafetyBackupID int64
	Batches        int
}

// Restorer replaces the live catalog with the contents of a snapshot.
type Restorer struct {
	builder  *Builder
	backups  BackupStore
	catalog  CatalogWriter
	settings SettingsWriter
	lock     RestoreLock
	logger   *slog.Logger
	now      func() time.Time
}

// NewRestorer creates a Restorer. The builder takes the safety snapshot.
func NewRestorer(builder *Builder, backups BackupStore, catalog CatalogWriter, settings SettingsWriter, lock RestoreLock, logger *slog.Logger) *Restorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Restorer{
		builder:  builder,
		backups:  backups,
		catalog:  catalog,
		settings: settings,
		lock:     lock,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock returns a copy of the restorer that reads the time from now.
func (r *Restorer) WithClock(now func() time.Time) *Restorer {
	c := *r
	c.now = now
	c.builder = r.builder.WithClock(now)
	return &c
}

func (r *Restorer) fail(step State, kind ErrorKind, err error) *RestoreError {
	metrics.RecordRestore(string(step), string(kind))
	r.logger.Warn("restore failed", "step", step, "kind", kind, "error", err)
	return &RestoreError{Step: step, Kind: kind, Err: err}
}

// Restore validates the snapshot named by src, stores a safety snapshot of the
// current catalog, stages the snapshot's products in batches of BatchSize and
// swaps them into the live catalog, then applies the snapshot's settings.
//
// Validation failures leave everything untouched. A failure while staging or
// swapping leaves the live catalog as it was; the safety snapshot is kept.
// All failures are returned as *RestoreError.
func (r *Restorer) Restore(ctx context.Context, src Source) (*RestoreResult, error) {
	payload, rerr := r.resolve(ctx, src)
	if rerr != nil {
		return nil, rerr
	}

	holder := uuid.NewString()
	if err := r.lock.AcquireRestoreLock(ctx, holder); err != nil {
		if errors.Is(err, storage.ErrRestoreInProgress) {
			return nil, r.fail(StateValidating, KindConflict, err)
		}
		return nil, r.fail(StateValidating, KindStore, err)
	}
	defer func() {
		if err := r.lock.ReleaseRestoreLock(context.WithoutCancel(ctx), holder); err != nil {
			r.logger.Error("failed to release restore lock", "holder", holder, "error", err)
		}
	}()

	// Safety snapshot first; never replace data without one.
	safety, _, err := r.builder.createSafetySnapshot(ctx)
	if err != nil {
		return nil, r.fail(StateSafetySnapshotting, KindStore, err)
	}
	r.logger.Info("safety snapshot stored", "backup_id", safety.ID, "record_count", safety.RecordCount)

	repl, err := r.catalog.BeginReplace(ctx)
	if err != nil {
		return nil, r.fail(StateWiping, KindStore, err)
	}

	now := r.now()
	products := make([]*storage.Product, 0, len(payload.Products))
	for _, sp := range payload.Products {
		products = append(products, sp.Normalize(now))
	}

	inserted, batches := 0, 0
	for start := 0; start < len(products); start += BatchSize {
		end := min(start+BatchSize, len(products))
		batches++
		if err := repl.InsertBatch(ctx, products[start:end]); err != nil {
			r.abort(ctx, repl)
			rerr := r.fail(StateInserting, KindPartialFailure, err)
			rerr.Batch = batches
			rerr.Inserted = inserted
			return nil, rerr
		}
		inserted += end - start
		r.logger.Debug("restore batch staged", "batch", batches, "staged", inserted, "total", len(products))
	}

	if err := repl.Commit(ctx, len(products)); err != nil {
		r.abort(ctx, repl)
		rerr := r.fail(StateSwapping, KindStore, err)
		rerr.Inserted = inserted
		return nil, rerr
	}

	// Settings are applied one row at a time; there is normally a single row.
	for i := range payload.SiteSettings {
		s := payload.SiteSettings[i]
		if err := r.settings.UpdateSettings(ctx, &s); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				r.logger.Debug("skipping unknown settings row", "id", s.ID)
				continue
			}
			rerr := r.fail(StateRestoringSettings, KindStore, err)
			rerr.Inserted = inserted
			return nil, rerr
		}
	}

	metrics.RecordRestore(string(StateDone), "success")
	metrics.RecordRestoredProducts(len(products))
	r.logger.Info("restore completed",
		"restored_count", len(products),
		"batches", batches,
		"safety_backup_id", safety.ID)

	return &RestoreResult{
		RestoredCount:  len(products),
		SafetyBackupID: safety.ID,
		Batches:        batches,
	}, nil
}

// resolve loads and validates the payload named by src.
func (r *Restorer) resolve(ctx context.Context, src Source) (*SnapshotPayload, *RestoreError) {
	hasUpload := len(src.Uploaded) > 0 && string(src.Uploaded) != "null"
	switch {
	case src.BackupID == 0 && !hasUpload:
		return nil, r.fail(StateValidating, KindInvalidFormat, ErrNoSource)
	case src.BackupID != 0 && hasUpload:
		return nil, r.fail(StateValidating, KindInvalidFormat, ErrAmbiguousSource)
	}

	data := []byte(src.Uploaded)
	if src.BackupID != 0 {
		rec, err := r.backups.GetBackup(ctx, src.BackupID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, r.fail(StateValidating, KindNotFound, err)
			}
			return nil, r.fail(StateValidating, KindStore, err)
		}
		data = rec.Data
	}

	payload, err := ParsePayload(data)
	if err != nil {
		if errors.Is(err, ErrIntegrityMismatch) {
			return nil, r.fail(StateValidating, KindIntegrityMismatch, err)
		}
		return nil, r.fail(StateValidating, KindInvalidFormat, err)
	}
	return payload, nil
}

func (r *Restorer) abort(ctx context.Context, repl storage.CatalogReplacement) {
	if err := repl.Abort(context.WithoutCancel(ctx)); err != nil {
		r.logger.Error("failed to discard staged products", "error", err)
	}
}
