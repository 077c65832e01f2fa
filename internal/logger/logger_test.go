package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "INFO", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewTextRespectsLevel(t *testing.T) {
	buf := new(bytes.Buffer)
	l, err := New(buf, "warn", "text")
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "path", "/data/tasks.json")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "path=/data/tasks.json")
}

func TestNewJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	l, err := New(buf, "debug", "json")
	require.NoError(t, err)

	l.Debug("saved", "count", 3)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "saved", rec["msg"])
	assert.Equal(t, float64(3), rec["count"])
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(new(bytes.Buffer), "info", "xml")
	assert.Error(t, err)
}

func TestSetupInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := new(bytes.Buffer)
	_, err := Setup(buf, "info", "text")
	require.NoError(t, err)
	slog.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
