package store

import (
	"time"

	"github.com/josephgoksu/tasksync/models"
)

// SaveState is a step of a single save attempt:
// Idle → BackingUp → Writing → {Saved | Error} → Idle.
type SaveState string

const (
	StateIdle      SaveState = "idle"
	StateBackingUp SaveState = "backing-up"
	StateWriting   SaveState = "writing"
	StateSaved     SaveState = "saved"
	StateError     SaveState = "error"
)

// SaveOutcome is the terminal result of a save attempt.
type SaveOutcome string

const (
	OutcomeSaved     SaveOutcome = "saved"
	OutcomeSaveError SaveOutcome = "error"
)

// SaveResult reports what happened during Save.
type SaveResult struct {
	Outcome SaveOutcome
	// Err wraps ErrWriteFailed (or ErrLockTimeout) when Outcome is error.
	Err error
	// BackupErr wraps ErrBackupFailed when the pre-write copy failed.
	BackupErr error
	// BackedUp is true when an existing primary was copied to the backup.
	BackedUp bool
	Path     string
	Count    int
	Bytes    int
	At       time.Time
}

// OK reports whether the document was written.
func (r SaveResult) OK() bool {
	return r.Outcome == OutcomeSaved
}

// LoadOutcome is the result category of Load or LoadBackup.
type LoadOutcome string

const (
	// OutcomeLoaded: the document parsed and Tasks holds its contents.
	OutcomeLoaded LoadOutcome = "loaded"
	// OutcomeEmpty: no primary document exists; start with zero tasks.
	OutcomeEmpty LoadOutcome = "empty"
	// OutcomeRecovered: the primary was unusable and Tasks came from the backup.
	OutcomeRecovered LoadOutcome = "recovered"
	// OutcomeRecoveredEmpty: primary and backup were both unusable.
	OutcomeRecoveredEmpty LoadOutcome = "recovered-empty"
	// OutcomeBackupMissing: LoadBackup found no backup document.
	OutcomeBackupMissing LoadOutcome = "backup-missing"
	// OutcomeBackupCorrupt: the backup document exists but could not be parsed.
	OutcomeBackupCorrupt LoadOutcome = "backup-corrupt"
)

// LoadResult reports what happened during Load or LoadBackup.
type LoadResult struct {
	Outcome LoadOutcome
	Tasks   []models.Task
	// Err carries the parse or recovery cause. It is informational for
	// OutcomeRecovered and a warning for OutcomeRecoveredEmpty.
	Err error
	// Source is the path the tasks were read from.
	Source string
	// Quarantined is where a corrupt primary was moved, if it was.
	Quarantined string
	// Repaired counts tasks that received a new ID because theirs was
	// missing or duplicated.
	Repaired int
}

// Usable reports whether Tasks can be adopted by the caller.
// Every outcome except the backup-only ones is usable; a recovered-empty
// result simply carries zero tasks.
func (r LoadResult) Usable() bool {
	switch r.Outcome {
	case OutcomeLoaded, OutcomeEmpty, OutcomeRecovered, OutcomeRecoveredEmpty:
		return true
	default:
		return false
	}
}
