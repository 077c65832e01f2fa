/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose  bool           `mapstructure:"verbose"`
	JSON     bool           `mapstructure:"json"`
	Config   string         `mapstructure:"config"`
	Data     DataConfig     `mapstructure:"data" validate:"required"`
	Autosave AutosaveConfig `mapstructure:"autosave"`
	Lock     LockConfig     `mapstructure:"lock"`
	Log      LogConfig      `mapstructure:"log"`
}

// DataConfig holds data storage configuration
type DataConfig struct {
	// Dir is resolved by config.ResolveDataDir when empty.
	Dir        string `mapstructure:"dir"`
	File       string `mapstructure:"file" validate:"required"`
	BackupFile string `mapstructure:"backupFile"`
	Format     string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
}

// AutosaveConfig controls the periodic save loop used by the interactive shell.
type AutosaveConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"omitempty,min=100ms,max=1h"`
}

// LockConfig bounds how long a save waits for the cross-process file lock.
type LockConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"omitempty,min=10ms,max=1m"`
}

// LogConfig holds structured logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}
