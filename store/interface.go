package store

import (
	"context"

	"github.com/josephgoksu/tasksync/models"
)

// TaskStore defines the contract of the persistence engine.
// It serializes the whole task collection to a single document, keeps a
// backup of the previous document, and recovers from a corrupted primary.
type TaskStore interface {
	// Initialize configures the store with necessary parameters, such as
	// file path, data format, and backup location.
	// It should be called before any other store operations.
	Initialize(config map[string]string) error

	// Save writes the full collection. If a primary document already exists
	// it is copied to the backup path first; a failed backup does not abort
	// the save. Outcomes are reported in the result, never as a panic.
	Save(ctx context.Context, tasks []models.Task) SaveResult

	// Load reads the primary document. A missing primary is not an error.
	// An empty, unreadable or unparseable primary triggers LoadBackup.
	Load(ctx context.Context) LoadResult

	// LoadBackup reads the backup document with the same parse contract.
	LoadBackup(ctx context.Context) LoadResult

	// FilePath returns the primary document path.
	FilePath() string

	// BackupPath returns the backup document path.
	BackupPath() string

	// Close releases any resources held by the store, such as file locks.
	Close() error
}
