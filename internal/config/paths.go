package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LocalDirName is the per-project directory checked in the working directory.
const LocalDirName = ".tasksync"

// GetGlobalDataDir returns the path to the global data directory (~/.tasksync).
// It's a variable to allow overriding in tests.
var GetGlobalDataDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LocalDirName), nil
}

// ResolveDataDir returns the directory holding the task file.
// Resolution order (first match wins):
// 1. Explicit config via "data.dir" (Viper/env/flag)
// 2. Local project directory: ./.tasksync (if exists)
// 3. XDG_DATA_HOME/tasksync (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.tasksync
func ResolveDataDir() string {
	if dir := viper.GetString("data.dir"); dir != "" {
		return dir
	}

	if info, err := os.Stat(LocalDirName); err == nil && info.IsDir() {
		return LocalDirName
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "tasksync")
	}

	dir, err := GetGlobalDataDir()
	if err != nil {
		return LocalDirName
	}
	return dir
}

// ResolvePath joins name onto dir unless name is already absolute.
// An empty name yields "".
func ResolvePath(dir, name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
