package backup

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned for snapshot JSON that cannot be parsed or has no products list.
	ErrInvalidFormat = errors.New("invalid snapshot format")

	// ErrIntegrityMismatch is returned when record_count disagrees with the number of products.
	ErrIntegrityMismatch = errors.New("record_count does not match number of products")

	// ErrNoSource is returned when a restore names neither a backup id nor an uploaded payload.
	ErrNoSource = errors.New("either backupId or uploadedData is required")

	// ErrAmbiguousSource is returned when a restore names both a backup id and an uploaded payload.
	ErrAmbiguousSource = errors.New("backupId and uploadedData are mutually exclusive")
)

// ErrorKind classifies a restore failure for callers that map errors to responses.
type ErrorKind string

// Restore error kinds.
const (
	KindInvalidFormat     ErrorKind = "invalid_format"
	KindIntegrityMismatch ErrorKind = "integrity_mismatch"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindPartialFailure    ErrorKind = "partial_failure"
	KindStore             ErrorKind = "store_error"
)

// RestoreError reports which step of a restore failed and how far it got.
type RestoreError struct {
	Step State
	Kind ErrorKind
	// Inserted is the number of rows staged before the failure.
	Inserted int
	// Batch is the 1-based index of the failed batch, or 0 outside Inserting.
	Batch int
	Err   error
}

func (e *RestoreError) Error() string {
	if e.Kind == KindPartialFailure {
		return fmt.Sprintf("restore failed at %s: batch %d failed after %d products: %v", e.Step, e.Batch, e.Inserted, e.Err)
	}
	return fmt.Sprintf("restore failed at %s: %v", e.Step, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}
