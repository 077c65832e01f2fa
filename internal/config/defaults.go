// Package config provides centralized configuration constants for tasksync.
// All default values should be defined here to ensure a single source of truth.
package config

import "time"

// Data file defaults
const (
	// DefaultDataFile is the task document name inside the data directory
	DefaultDataFile = "tasks.json"

	// DefaultDataFormat is the document encoding
	DefaultDataFormat = "json"
)

// Save loop defaults
const (
	DefaultAutosaveEnabled  = true
	DefaultAutosaveInterval = 5 * time.Second
	DefaultLockTimeout      = 2 * time.Second
)

// Logging defaults. Warnings are shown so recovery events reach the user.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// ConfigName is the base name of the config file (.tasksync.yaml).
const ConfigName = ".tasksync"

// EnvPrefix prefixes environment overrides, e.g. TASKSYNC_DATA_DIR.
const EnvPrefix = "TASKSYNC"

// DataFileForFormat returns the default document name for a format.
func DataFileForFormat(format string) string {
	switch format {
	case "yaml", "toml":
		return "tasks." + format
	default:
		return DefaultDataFile
	}
}
