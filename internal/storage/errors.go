package storage

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicate is returned when attempting to create a resource that already exists.
	ErrDuplicate = errors.New("resource already exists")

	// ErrRestoreInProgress is returned when the restore lock is held by another restore.
	ErrRestoreInProgress = errors.New("another restore is in progress")

	// ErrCountMismatch is returned when the staged row count differs from the expected count.
	ErrCountMismatch = errors.New("staged row count mismatch")
)
