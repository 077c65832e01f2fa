package store

import "errors"

// Failure categories reported by the engine. Causes are wrapped with %w, so
// callers can test with errors.Is.
var (
	// ErrBackupFailed is non-fatal: the save continues without a fresh backup.
	ErrBackupFailed = errors.New("backup failed")
	// ErrWriteFailed aborts the save; the dirty flag must stay set.
	ErrWriteFailed = errors.New("write failed")
	// ErrParseFailed marks an empty, unreadable or malformed document.
	ErrParseFailed = errors.New("parse failed")
	// ErrRecoveryFailed means neither the primary nor the backup was usable.
	ErrRecoveryFailed = errors.New("recovery failed")
	// ErrLockTimeout is returned when the file lock could not be acquired in time.
	ErrLockTimeout = errors.New("lock timeout")
	// ErrEmptyDocument is the parse cause for a zero-length or blank document.
	ErrEmptyDocument = errors.New("document is empty")
)
