package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/josephgoksu/tasksync/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataFile = "/data/tasks.json"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T, fsys afero.Fs, config map[string]string) *FileTaskStore {
	t.Helper()

	if config == nil {
		config = map[string]string{}
	}
	if _, ok := config["dataFile"]; !ok {
		config["dataFile"] = testDataFile
	}

	s := NewFileTaskStore(fsys, quietLogger())
	s.SetClock(func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) })
	require.NoError(t, s.Initialize(config))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTasks(n int) []models.Task {
	due := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	tasks := make([]models.Task, 0, n)
	for i := 0; i < n; i++ {
		t := models.NewTask("task "+string(rune('A'+i)), "work, urgent", nil)
		if i%2 == 0 {
			d := due.AddDate(0, 0, i)
			t.DueDate = &d
		}
		t.Completed = i%3 == 0
		tasks = append(tasks, t)
	}
	return tasks
}

func assertSameTasks(t *testing.T, want, got []models.Task) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Completed, got[i].Completed)
		assert.Equal(t, want[i].Tags, got[i].Tags)
		if want[i].DueDate == nil {
			assert.Nil(t, got[i].DueDate)
		} else {
			require.NotNil(t, got[i].DueDate)
			assert.True(t, want[i].DueDate.Equal(*got[i].DueDate), "dueDate %v != %v", want[i].DueDate, got[i].DueDate)
		}
	}
}

func TestInitializeDefaults(t *testing.T) {
	s := setupTestStore(t, afero.NewMemMapFs(), nil)
	assert.Equal(t, testDataFile, s.FilePath())
	assert.Equal(t, "/data/tasks.backup.json", s.BackupPath())
	assert.Equal(t, "json", s.Format())
	assert.Equal(t, StateIdle, s.State())
}

func TestInitializeRejectsBadConfig(t *testing.T) {
	tests := []map[string]string{
		{"dataFile": testDataFile, "dataFileFormat": "xml"},
		{"dataFile": testDataFile, "backupFile": testDataFile},
		{"dataFile": testDataFile, "lockTimeout": "soon"},
	}
	for _, cfg := range tests {
		s := NewFileTaskStore(afero.NewMemMapFs(), quietLogger())
		assert.Error(t, s.Initialize(cfg), "%v", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	for _, format := range SupportedFormats {
		t.Run(format, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			s := setupTestStore(t, fsys, map[string]string{
				"dataFile":       "/data/tasks." + format,
				"dataFileFormat": format,
			})
			tasks := sampleTasks(5)

			res := s.Save(context.Background(), tasks)
			require.True(t, res.OK(), "save error: %v", res.Err)
			assert.Equal(t, 5, res.Count)
			assert.False(t, res.BackedUp, "no primary existed yet")

			loaded := s.Load(context.Background())
			require.Equal(t, OutcomeLoaded, loaded.Outcome, "load error: %v", loaded.Err)
			assertSameTasks(t, tasks, loaded.Tasks)
		})
	}
}

func TestSaveWritesPrettyJSONArrayWithoutDerivedFields(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := setupTestStore(t, fsys, nil)
	require.True(t, s.Save(context.Background(), sampleTasks(2)).OK())

	data, err := afero.ReadFile(fsys, testDataFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {"), "document should be an indented array")

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, obj := range raw {
		for key := range obj {
			assert.Contains(t, []string{"id", "title", "isCompleted", "tags", "dueDate"}, key)
		}
	}

	exists, err := afero.Exists(fsys, testDataFile+".tmp")
	require.NoError(t, err)
	assert.False(t, exists, "temporary file must not be left behind")
}

func TestSaveBacksUpPreviousPrimary(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := setupTestStore(t, fsys, nil)
	ctx := context.Background()

	require.True(t, s.Save(ctx, sampleTasks(1)).OK())
	first, err := afero.ReadFile(fsys, testDataFile)
	require.NoError(t, err)

	res := s.Save(ctx, sampleTasks(3))
	require.True(t, res.OK())
	assert.True(t, res.BackedUp)
	assert.NoError(t, res.BackupErr)

	backup, err := afero.ReadFile(fsys, s.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, first, backup, "backup must be byte-identical to the previous primary")

	fromBackup := s.LoadBackup(ctx)
	require.Equal(t, OutcomeLoaded, fromBackup.Outcome)
	assert.Len(t, fromBackup.Tasks, 1)
}

func TestSaveStateTransitions(t *testing.T) {
	s := setupTestStore(t, afero.NewMemMapFs(), nil)
	var states []SaveState
	s.SetStateHook(func(st SaveState) { states = append(states, st) })

	require.True(t, s.Save(context.Background(), sampleTasks(1)).OK())
	assert.Equal(t, []SaveState{StateBackingUp, StateWriting, StateSaved, StateIdle}, states)
}

func TestSaveWriteFailureKeepsPrimary(t *testing.T) {
	base := afero.NewMemMapFs()
	seed := setupTestStore(t, base, nil)
	require.True(t, seed.Save(context.Background(), sampleTasks(2)).OK())
	before, err := afero.ReadFile(base, testDataFile)
	require.NoError(t, err)

	s := setupTestStore(t, afero.NewReadOnlyFs(base), nil)
	var states []SaveState
	s.SetStateHook(func(st SaveState) { states = append(states, st) })

	res := s.Save(context.Background(), sampleTasks(4))
	assert.False(t, res.OK())
	assert.Equal(t, OutcomeSaveError, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrWriteFailed)
	assert.ErrorIs(t, res.BackupErr, ErrBackupFailed, "backup is attempted first and also fails")
	assert.Equal(t, []SaveState{StateBackingUp, StateWriting, StateError, StateIdle}, states)

	after, err := afero.ReadFile(base, testDataFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBackupFailureDoesNotAbortSave(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	s := setupTestStore(t, afero.NewOsFs(), map[string]string{
		"dataFile":   filepath.Join(dir, "tasks.json"),
		"backupFile": filepath.Join(blocker, "tasks.backup.json"),
	})
	ctx := context.Background()
	require.True(t, s.Save(ctx, sampleTasks(1)).OK())

	res := s.Save(ctx, sampleTasks(2))
	require.True(t, res.OK(), "save must proceed: %v", res.Err)
	assert.False(t, res.BackedUp)
	assert.ErrorIs(t, res.BackupErr, ErrBackupFailed)

	loaded := s.Load(ctx)
	require.Equal(t, OutcomeLoaded, loaded.Outcome)
	assert.Len(t, loaded.Tasks, 2)
}

func TestLoadMissingPrimaryIsEmpty(t *testing.T) {
	s := setupTestStore(t, afero.NewMemMapFs(), nil)
	res := s.Load(context.Background())
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.NoError(t, res.Err)
	assert.NotNil(t, res.Tasks)
	assert.Empty(t, res.Tasks)
	assert.True(t, res.Usable())
}

func TestLoadCorruptPrimaryRecoversFromBackup(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := setupTestStore(t, fsys, nil)

	backupTasks := sampleTasks(3)
	data, err := marshalTasks(formatJSON, backupTasks)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fsys, s.BackupPath(), data, 0o644))
	require.NoError(t, afero.WriteFile(fsys, testDataFile, []byte(`[{"id": "x", "title": `), 0o644))

	res := s.Load(context.Background())
	require.Equal(t, OutcomeRecovered, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrParseFailed)
	assertSameTasks(t, backupTasks, res.Tasks)
	assert.Equal(t, s.BackupPath(), res.Source)

	assert.Equal(t, testDataFile+".corrupt-20240610-120000", res.Quarantined)
	exists, err := afero.Exists(fsys, testDataFile)
	require.NoError(t, err)
	assert.False(t, exists, "corrupt primary is moved aside")

	// The store stays usable and the good backup survives the next save.
	save := s.Save(context.Background(), res.Tasks)
	require.True(t, save.OK())
	assert.False(t, save.BackedUp)
	still := s.LoadBackup(context.Background())
	require.Equal(t, OutcomeLoaded, still.Outcome)
	assert.Len(t, still.Tasks, 3)
}

func TestLoadEmptyPrimaryTriggersRecovery(t *testing.T) {
	for _, content := range []string{"", "   \n", "null", `{"nope": 1}`} {
		fsys := afero.NewMemMapFs()
		s := setupTestStore(t, fsys, nil)
		require.NoError(t, afero.WriteFile(fsys, testDataFile, []byte(content), 0o644))

		res := s.Load(context.Background())
		assert.Equal(t, OutcomeRecoveredEmpty, res.Outcome, "content %q", content)
		assert.ErrorIs(t, res.Err, ErrRecoveryFailed)
		assert.ErrorIs(t, res.Err, ErrParseFailed)
		assert.Empty(t, res.Tasks)
		assert.True(t, res.Usable())
	}
}

func TestLoadNullTaskIsCorrupt(t *testing.T) {
	tests := []struct {
		name   string
		format string
		doc    string
	}{
		{name: "json array", format: formatJSON, doc: `[null,{"id":"a","title":"one"}]`},
		{name: "json legacy object", format: formatJSON, doc: `{"tasks":[{"id":"a","title":"one"},null]}`},
		{name: "yaml list", format: formatYAML, doc: "- null\n- id: a\n  title: one\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			s := setupTestStore(t, fsys, map[string]string{"dataFileFormat": tt.format})

			backupTasks := sampleTasks(2)
			data, err := marshalTasks(tt.format, backupTasks)
			require.NoError(t, err)
			require.NoError(t, afero.WriteFile(fsys, s.BackupPath(), data, 0o644))
			require.NoError(t, afero.WriteFile(fsys, s.FilePath(), []byte(tt.doc), 0o644))

			res := s.Load(context.Background())
			require.Equal(t, OutcomeRecovered, res.Outcome)
			assert.ErrorIs(t, res.Err, ErrParseFailed)
			assert.Contains(t, res.Err.Error(), "is null")
			assertSameTasks(t, backupTasks, res.Tasks)
		})
	}
}

func TestLoadCorruptPrimaryAndCorruptBackup(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := setupTestStore(t, fsys, nil)
	require.NoError(t, afero.WriteFile(fsys, testDataFile, []byte("{{{"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, s.BackupPath(), []byte("also broken"), 0o644))

	res := s.Load(context.Background())
	assert.Equal(t, OutcomeRecoveredEmpty, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrRecoveryFailed)
	assert.Empty(t, res.Tasks)
}

func TestLoadBackupOutcomes(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := setupTestStore(t, fsys, nil)
	ctx := context.Background()

	assert.Equal(t, OutcomeBackupMissing, s.LoadBackup(ctx).Outcome)

	require.NoError(t, afero.WriteFile(fsys, s.BackupPath(), []byte("not json"), 0o644))
	res := s.LoadBackup(ctx)
	assert.Equal(t, OutcomeBackupCorrupt, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrParseFailed)
	assert.False(t, res.Usable())
}

func TestLoadToleratesMissingFieldsAndLegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing optional fields", doc: `[{"id":"a","title":"one"},{"id":"b","title":"two","extra":true}]`},
		{name: "legacy object", doc: `{"tasks":[{"id":"a","title":"one"},{"id":"b","title":"two"}],"totalCount":2}`},
		{name: "pascal case keys", doc: `[{"Id":"a","Title":"one","IsCompleted":false,"Tags":"","DueDate":null},{"Id":"b","Title":"two","Tags":"x","DueDate":"2024-06-10T00:00:00"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			s := setupTestStore(t, fsys, nil)
			require.NoError(t, afero.WriteFile(fsys, testDataFile, []byte(tt.doc), 0o644))

			res := s.Load(context.Background())
			require.Equal(t, OutcomeLoaded, res.Outcome, "err: %v", res.Err)
			require.Len(t, res.Tasks, 2)
			assert.Equal(t, "a", res.Tasks[0].ID)
			assert.Equal(t, "two", res.Tasks[1].Title)
		})
	}
}

func TestLoadRepairsMissingAndDuplicateIDs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := setupTestStore(t, fsys, nil)
	doc := `[{"id":"a","title":"one"},{"id":"a","title":"dup"},{"title":"no id"}]`
	require.NoError(t, afero.WriteFile(fsys, testDataFile, []byte(doc), 0o644))

	res := s.Load(context.Background())
	require.Equal(t, OutcomeLoaded, res.Outcome)
	assert.Equal(t, 2, res.Repaired)
	assert.Equal(t, "a", res.Tasks[0].ID)
	assert.NotEqual(t, "a", res.Tasks[1].ID)
	assert.NotEmpty(t, res.Tasks[2].ID)
	assert.NotEqual(t, res.Tasks[1].ID, res.Tasks[2].ID)
}

func TestFileLockOnOsFs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "tasks.json")
	s := setupTestStore(t, afero.NewOsFs(), map[string]string{"dataFile": path, "lockTimeout": "200ms"})
	require.NotNil(t, s.flk)

	require.True(t, s.Save(context.Background(), sampleTasks(1)).OK())
	_, err := os.Stat(path + ".lock")
	assert.NoError(t, err, "lock file is created next to the data file")

	// A second handle holding the lock makes the save time out instead of hanging.
	other := NewFileTaskStore(afero.NewOsFs(), quietLogger())
	require.NoError(t, other.Initialize(map[string]string{"dataFile": path}))
	locked, err := other.flk.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = other.Close() }()

	start := time.Now()
	res := s.Save(context.Background(), sampleTasks(2))
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrLockTimeout)
	assert.ErrorIs(t, res.Err, ErrWriteFailed)
	assert.Less(t, time.Since(start), 5*time.Second)
}
