package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("config", "show")
	assert.Contains(t, out, "dataFile: "+env.taskFile())
	assert.Contains(t, out, "backupFile: "+env.backupFile())
	assert.Contains(t, out, "autosaveInterval: 5s")
	assert.Contains(t, out, "(none)")

	var got effectiveConfig
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("--json", "config")), &got))
	assert.Equal(t, "json", got.Format)
	assert.True(t, got.Autosave)
}

func TestConfigInitSetGet(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("config", "init")
	assert.Contains(t, out, filepath.Join(".tasksync", ".tasksync.yaml"))

	_, _, err := env.run("", "config", "init")
	assert.Error(t, err, "init refuses to overwrite")

	env.mustRun("config", "set", "autosave.interval", "750ms")
	assert.Equal(t, "750ms", strings.TrimSpace(env.mustRun("config", "get", "autosave.interval")))

	// The next run reads the file back.
	assert.Contains(t, env.mustRun("config", "show"), "autosaveInterval: 750ms")

	_, _, err = env.run("", "config", "set", "nope", "1")
	assert.Error(t, err)
}
