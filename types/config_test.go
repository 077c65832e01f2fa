package types

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func validConfig() AppConfig {
	return AppConfig{
		Data:     DataConfig{Dir: "/tmp/tasks", File: "tasks.json", Format: "json"},
		Autosave: AutosaveConfig{Enabled: true, Interval: 5 * time.Second},
		Lock:     LockConfig{Timeout: 2 * time.Second},
		Log:      LogConfig{Level: "warn", Format: "text"},
	}
}

func TestAppConfigValidation(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "zero durations allowed", mutate: func(c *AppConfig) { c.Autosave.Interval = 0; c.Lock.Timeout = 0 }},
		{name: "missing file", mutate: func(c *AppConfig) { c.Data.File = "" }, wantErr: true},
		{name: "unknown format", mutate: func(c *AppConfig) { c.Data.Format = "xml" }, wantErr: true},
		{name: "yaml format", mutate: func(c *AppConfig) { c.Data.Format = "yaml" }},
		{name: "interval too short", mutate: func(c *AppConfig) { c.Autosave.Interval = 10 * time.Millisecond }, wantErr: true},
		{name: "interval too long", mutate: func(c *AppConfig) { c.Autosave.Interval = 2 * time.Hour }, wantErr: true},
		{name: "lock timeout too long", mutate: func(c *AppConfig) { c.Lock.Timeout = 5 * time.Minute }, wantErr: true},
		{name: "unknown log level", mutate: func(c *AppConfig) { c.Log.Level = "trace" }, wantErr: true},
		{name: "unknown log format", mutate: func(c *AppConfig) { c.Log.Format = "xml" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := v.Struct(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
