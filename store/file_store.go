package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/josephgoksu/tasksync/models"
	"github.com/spf13/afero"
)

const (
	defaultDataFile    = "tasks.json" // Default filename if only format implies extension
	dataFileKey        = "dataFile"
	dataFileFormatKey  = "dataFileFormat"
	backupFileKey      = "backupFile"
	lockTimeoutKey     = "lockTimeout"
	defaultDataFormat  = formatJSON
	defaultLockTimeout = 2 * time.Second
	lockRetryDelay     = 25 * time.Millisecond
	backupInfix        = ".backup"
	tmpSuffix          = ".tmp"
	lockSuffix         = ".lock"
	corruptInfix       = ".corrupt-"
	corruptStampLayout = "20060102-150405"
)

// FileTaskStore implements the TaskStore interface using a single document on
// an afero filesystem. It supports JSON, YAML, and TOML formats. Writes go to a
// temporary file that is renamed over the primary, so readers never observe a
// half-written document. On the OS filesystem a flock on <dataFile>.lock keeps
// other processes from interleaving with a save.
type FileTaskStore struct {
	fs          afero.Fs
	filePath    string
	backupPath  string
	format      string
	lockTimeout time.Duration
	flk         *flock.Flock
	logger      *slog.Logger
	now         func() time.Time

	// mu serializes Save/Load/LoadBackup within the process.
	mu        sync.Mutex
	state     atomic.Value // SaveState
	stateHook func(SaveState)
}

var _ TaskStore = (*FileTaskStore)(nil)

// NewFileTaskStore creates a new instance of FileTaskStore.
// A nil fs means the real OS filesystem; a nil logger means slog.Default().
// It does not initialize the store; Initialize must be called separately.
func NewFileTaskStore(fsys afero.Fs, logger *slog.Logger) *FileTaskStore {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileTaskStore{
		fs:     fsys,
		logger: logger,
		now:    time.Now,
	}
	s.state.Store(StateIdle)
	return s
}

// Initialize configures the FileTaskStore.
// Recognized keys: dataFile (default tasks.json), dataFileFormat (json, yaml
// or toml), backupFile (default <name>.backup<ext> next to the data file) and
// lockTimeout (a Go duration, default 2s). The data directory is created if it
// is missing. Initialize does not read the document; call Load for that.
func (s *FileTaskStore) Initialize(config map[string]string) error {
	if val, ok := config[dataFileKey]; ok && val != "" {
		s.filePath = val
	} else {
		s.filePath = defaultDataFile
	}

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		formatLower := strings.ToLower(val)
		switch formatLower {
		case formatJSON, formatYAML, formatTOML:
			s.format = formatLower
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s. Supported formats are %s", val, strings.Join(SupportedFormats, ", "))
		}
	} else {
		s.format = defaultDataFormat
	}

	// A default file name follows the chosen format's extension.
	if s.filePath == defaultDataFile && s.format != formatJSON {
		ext := filepath.Ext(s.filePath)
		s.filePath = strings.TrimSuffix(s.filePath, ext) + "." + s.format
	}

	if val, ok := config[backupFileKey]; ok && val != "" {
		s.backupPath = val
	} else {
		s.backupPath = DefaultBackupPath(s.filePath)
	}
	if filepath.Clean(s.backupPath) == filepath.Clean(s.filePath) {
		return fmt.Errorf("backup file must differ from data file %s", s.filePath)
	}

	s.lockTimeout = defaultLockTimeout
	if val, ok := config[lockTimeoutKey]; ok && val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid lockTimeout %q: %w", val, err)
		}
		if d > 0 {
			s.lockTimeout = d
		}
	}

	if err := s.ensureDir(filepath.Dir(s.filePath)); err != nil {
		return err
	}

	// flock needs real file descriptors; in-memory filesystems are process-local anyway.
	if _, isOS := s.fs.(*afero.OsFs); isOS {
		s.flk = flock.New(s.filePath + lockSuffix)
	}
	return nil
}

// DefaultBackupPath derives "<dir>/<name>.backup<ext>" from a data file path.
func DefaultBackupPath(dataFile string) string {
	ext := filepath.Ext(dataFile)
	return strings.TrimSuffix(dataFile, ext) + backupInfix + ext
}

// SetClock overrides the clock used for timestamps and quarantine names.
func (s *FileTaskStore) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// SetStateHook registers a callback that observes every save state
// transition. It is called synchronously from Save.
func (s *FileTaskStore) SetStateHook(hook func(SaveState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateHook = hook
}

// State returns the current save state.
func (s *FileTaskStore) State() SaveState {
	return s.state.Load().(SaveState)
}

// FilePath returns the primary document path.
func (s *FileTaskStore) FilePath() string { return s.filePath }

// BackupPath returns the backup document path.
func (s *FileTaskStore) BackupPath() string { return s.backupPath }

// Format returns the configured document format.
func (s *FileTaskStore) Format() string { return s.format }

func (s *FileTaskStore) setState(st SaveState) {
	s.state.Store(st)
	s.logger.Debug("save state", "state", string(st), "path", s.filePath)
	if s.stateHook != nil {
		s.stateHook(st)
	}
}

// Save backs up the existing primary and writes tasks in its place.
// Cancellation of ctx only bounds the wait for the file lock; once writing
// has started the save runs to completion.
func (s *FileTaskStore) Save(ctx context.Context, tasks []models.Task) SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := SaveResult{Path: s.filePath, Count: len(tasks)}
	fail := func(err error) SaveResult {
		s.setState(StateError)
		res.Outcome = OutcomeSaveError
		res.Err = err
		res.At = s.now()
		s.logger.Error("could not save tasks", "path", s.filePath, "error", err)
		s.setState(StateIdle)
		return res
	}

	unlock, err := s.lock(ctx, false)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}
	defer unlock()

	if err := s.ensureDir(filepath.Dir(s.filePath)); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}

	s.setState(StateBackingUp)
	backedUp, err := s.backupPrimary()
	if err != nil {
		res.BackupErr = fmt.Errorf("%w: %w", ErrBackupFailed, err)
		s.logger.Warn("could not create backup", "path", s.backupPath, "error", err)
	}
	res.BackedUp = backedUp

	s.setState(StateWriting)
	data, err := marshalTasks(s.format, tasks)
	if err != nil {
		return fail(fmt.Errorf("%w: marshal %s: %w", ErrWriteFailed, s.format, err))
	}
	if err := writeFileAtomic(s.fs, s.filePath, data, 0o644); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}

	res.Outcome = OutcomeSaved
	res.Bytes = len(data)
	res.At = s.now()
	s.setState(StateSaved)
	s.logger.Info("tasks saved", "path", s.filePath, "count", len(tasks), "backup", backedUp)
	s.setState(StateIdle)
	return res
}

// Load reads the primary document, falling back to the backup when the
// primary is empty, unreadable, or malformed.
func (s *FileTaskStore) Load(ctx context.Context) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx, true)
	if err != nil {
		// Reading without the lock can at worst observe the previous document,
		// since writers always rename into place.
		s.logger.Warn("loading without file lock", "path", s.filePath, "error", err)
		unlock = func() {}
	}
	defer unlock()

	data, readErr := afero.ReadFile(s.fs, s.filePath)
	if errors.Is(readErr, fs.ErrNotExist) {
		s.logger.Info("no saved tasks found, starting with an empty list", "path", s.filePath)
		return LoadResult{Outcome: OutcomeEmpty, Tasks: []models.Task{}, Source: s.filePath}
	}

	var cause error
	if readErr != nil {
		cause = fmt.Errorf("%w: read %s: %w", ErrParseFailed, s.filePath, readErr)
	} else {
		tasks, err := unmarshalTasks(s.format, data)
		if err == nil {
			repaired := s.repair(tasks, s.filePath)
			s.logger.Info("tasks loaded", "path", s.filePath, "count", len(tasks))
			return LoadResult{Outcome: OutcomeLoaded, Tasks: tasks, Source: s.filePath, Repaired: repaired}
		}
		cause = fmt.Errorf("%w: %s: %w", ErrParseFailed, s.filePath, err)
	}

	s.logger.Warn("primary task file unusable, trying backup", "path", s.filePath, "error", cause)

	// Move a readable-but-corrupt primary aside so the next save does not
	// copy it over the good backup.
	quarantined := ""
	if readErr == nil {
		quarantined = s.quarantine()
	}

	backup := s.loadBackupLocked()
	if backup.Outcome == OutcomeLoaded {
		s.logger.Info("recovered tasks from backup", "path", s.backupPath, "count", len(backup.Tasks))
		return LoadResult{
			Outcome:     OutcomeRecovered,
			Tasks:       backup.Tasks,
			Err:         cause,
			Source:      s.backupPath,
			Quarantined: quarantined,
			Repaired:    backup.Repaired,
		}
	}

	err = fmt.Errorf("%w: %w", ErrRecoveryFailed, cause)
	if backup.Err != nil {
		err = fmt.Errorf("%w (backup: %w)", err, backup.Err)
	}
	s.logger.Warn("starting with an empty task list", "error", err)
	return LoadResult{
		Outcome:     OutcomeRecoveredEmpty,
		Tasks:       []models.Task{},
		Err:         err,
		Quarantined: quarantined,
	}
}

// LoadBackup reads the backup document.
func (s *FileTaskStore) LoadBackup(ctx context.Context) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx, true)
	if err != nil {
		s.logger.Warn("loading backup without file lock", "path", s.backupPath, "error", err)
		unlock = func() {}
	}
	defer unlock()

	return s.loadBackupLocked()
}

func (s *FileTaskStore) loadBackupLocked() LoadResult {
	data, err := afero.ReadFile(s.fs, s.backupPath)
	if errors.Is(err, fs.ErrNotExist) {
		return LoadResult{Outcome: OutcomeBackupMissing, Source: s.backupPath}
	}
	if err != nil {
		return LoadResult{
			Outcome: OutcomeBackupCorrupt,
			Source:  s.backupPath,
			Err:     fmt.Errorf("%w: read %s: %w", ErrParseFailed, s.backupPath, err),
		}
	}
	tasks, err := unmarshalTasks(s.format, data)
	if err != nil {
		s.logger.Warn("could not load backup", "path", s.backupPath, "error", err)
		return LoadResult{
			Outcome: OutcomeBackupCorrupt,
			Source:  s.backupPath,
			Err:     fmt.Errorf("%w: %s: %w", ErrParseFailed, s.backupPath, err),
		}
	}
	repaired := s.repair(tasks, s.backupPath)
	return LoadResult{Outcome: OutcomeLoaded, Tasks: tasks, Source: s.backupPath, Repaired: repaired}
}

func (s *FileTaskStore) repair(tasks []models.Task, path string) int {
	n := sanitizeTasks(tasks)
	if n > 0 {
		s.logger.Warn("assigned new IDs to tasks with missing or duplicate IDs", "path", path, "count", n)
	}
	return n
}

// backupPrimary copies the current primary byte-for-byte to the backup path.
// It reports false without error when there is no primary yet.
func (s *FileTaskStore) backupPrimary() (bool, error) {
	exists, err := afero.Exists(s.fs, s.filePath)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", s.filePath, err)
	}
	if !exists {
		return false, nil
	}
	data, err := afero.ReadFile(s.fs, s.filePath)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", s.filePath, err)
	}
	if err := s.ensureDir(filepath.Dir(s.backupPath)); err != nil {
		return false, err
	}
	if err := writeFileAtomic(s.fs, s.backupPath, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// quarantine renames the primary to <primary>.corrupt-<stamp> and returns the
// new path, or "" if the rename failed.
func (s *FileTaskStore) quarantine() string {
	target := s.filePath + corruptInfix + s.now().Format(corruptStampLayout)
	if err := s.fs.Rename(s.filePath, target); err != nil {
		s.logger.Warn("could not move corrupt task file aside", "path", s.filePath, "error", err)
		return ""
	}
	s.logger.Warn("moved corrupt task file aside", "from", s.filePath, "to", target)
	return target
}

func (s *FileTaskStore) ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return fmt.Errorf("stat directory %s: %w", dir, err)
	}
	if exists {
		return nil
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// lock acquires the cross-process file lock, bounded by lockTimeout.
func (s *FileTaskStore) lock(ctx context.Context, shared bool) (func(), error) {
	if s.flk == nil {
		return func() {}, nil
	}
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = s.flk.TryRLockContext(lctx, lockRetryDelay)
	} else {
		locked, err = s.flk.TryLockContext(lctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, s.flk.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, s.flk.Path())
	}
	return func() { _ = s.flk.Unlock() }, nil
}

// Close releases any resources held by the store, such as file locks.
// flock.Unlock() is idempotent and can be called even if the lock is not held by this process.
func (s *FileTaskStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}

// writeFileAtomic writes data to <path>.tmp, syncs it, and renames it over
// path. The temporary file is removed on any failure.
func writeFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	tmp := path + tmpSuffix
	committed := false
	defer func() {
		if !committed {
			_ = fsys.Remove(tmp)
		}
	}()

	f, err := fsys.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open temporary file %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write temporary file %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync temporary file %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %s: %w", tmp, err)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename temporary file %s to %s: %w", tmp, path, err)
	}
	committed = true
	return nil
}
