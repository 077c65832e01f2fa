package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// testEnv isolates a command run: a fresh working directory, HOME and data
// directory, and no terminal.
type testEnv struct {
	t       *testing.T
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	chdir(t, root)
	t.Setenv("HOME", root)
	t.Setenv("XDG_DATA_HOME", "")

	original := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = original })

	return &testEnv{t: t, dataDir: filepath.Join(root, "data")}
}

func (e *testEnv) taskFile() string   { return filepath.Join(e.dataDir, "tasks.json") }
func (e *testEnv) backupFile() string { return filepath.Join(e.dataDir, "tasks.backup.json") }

// run executes the root command with args and the given stdin.
func (e *testEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	resetCommandState()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--data-dir", e.dataDir}, args...))

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRun is run with no stdin that fails the test on error.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, stderr, err := e.run("", args...)
	require.NoError(e.t, err, "stderr: %s", stderr)
	return out
}

// listJSON returns the whole task list as printed by "list --json".
func (e *testEnv) listJSON() []taskDTO {
	e.t.Helper()
	var tasks []taskDTO
	require.NoError(e.t, json.Unmarshal([]byte(e.mustRun("--json", "list")), &tasks))
	return tasks
}

// resetCommandState undoes what a previous Execute left in Viper and in the
// package-level flag variables.
func resetCommandState() {
	viper.Reset()
	bindFlags()
	resetFlags(rootCmd)
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
