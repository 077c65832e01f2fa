package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// KnownKeys lists the settings "config set" may write.
var KnownKeys = []string{
	"data.dir",
	"data.file",
	"data.backupFile",
	"data.format",
	"autosave.enabled",
	"autosave.interval",
	"lock.timeout",
	"log.level",
	"log.format",
}

// ErrConfigExists is returned by WriteDefaultConfig when the file is present
// and force is false.
var ErrConfigExists = errors.New("config file already exists")

// quoteYAMLValue quotes a string value for safe YAML serialization.
func quoteYAMLValue(value string) string {
	needsQuoting := value == "" || strings.ContainsAny(value, ":{}[]&*#?|-<>=!%@`\"'\n\r\t ")
	if !needsQuoting {
		return value
	}
	// Escape backslashes first, then double quotes
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}

// DefaultConfigPath returns the project-local config file path.
func DefaultConfigPath() string {
	return filepath.Join(LocalDirName, ConfigName+".yaml")
}

// GlobalConfigPath returns ~/.tasksync.yaml.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigName+".yaml"), nil
}

// WriteDefaultConfig writes a commented config file holding the defaults.
// dataDir is written only when non-empty.
func WriteDefaultConfig(path, dataDir string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	dirLine := "  # dir: ~/.tasksync"
	if dataDir != "" {
		dirLine = "  dir: " + quoteYAMLValue(dataDir)
	}
	content := fmt.Sprintf(`# tasksync configuration
# Every key can also be set with TASKSYNC_<KEY>, e.g. TASKSYNC_DATA_FORMAT=yaml.

data:
%s
  file: %s
  # backupFile defaults to <file>.backup<ext> next to the data file.
  format: %s

autosave:
  enabled: %t
  interval: %s

lock:
  timeout: %s

log:
  level: %s
  format: %s
`, dirLine, DefaultDataFile, DefaultDataFormat, DefaultAutosaveEnabled,
		DefaultAutosaveInterval, DefaultLockTimeout, DefaultLogLevel, DefaultLogFormat)

	return os.WriteFile(path, []byte(content), 0o644)
}

// SetConfigValue writes one key into the YAML file at path, creating it if
// needed and keeping the other settings.
func SetConfigValue(path, key, value string) error {
	canonical, err := canonicalKey(key)
	if err != nil {
		return err
	}
	typed, err := parseValue(canonical, value)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Read existing if any to preserve other settings
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	v.Set(canonical, typed)
	return v.WriteConfig()
}

// GetConfigValue reads one key from the YAML file at path.
func GetConfigValue(path, key string) (any, error) {
	canonical, err := canonicalKey(key)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v.Get(canonical), nil
}

func canonicalKey(key string) (string, error) {
	i := slices.IndexFunc(KnownKeys, func(k string) bool { return strings.EqualFold(k, key) })
	if i < 0 {
		return "", fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(KnownKeys, ", "))
	}
	return KnownKeys[i], nil
}

// parseValue checks value against the key's type. Durations stay strings so
// the file remains readable.
func parseValue(key, value string) (any, error) {
	switch key {
	case "autosave.enabled":
		switch strings.ToLower(value) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return nil, fmt.Errorf("%s must be true or false", key)
	case "autosave.interval", "lock.timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("%s must be a duration such as 5s: %w", key, err)
		}
	case "data.format":
		if !slices.Contains([]string{"json", "yaml", "toml"}, value) {
			return nil, fmt.Errorf("%s must be json, yaml or toml", key)
		}
	}
	return value, nil
}
