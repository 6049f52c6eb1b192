package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, output *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_JSONLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantLevel string
		wantCount int
	}{
		{name: "debug logs everything", level: "debug", wantLevel: "DEBUG", wantCount: 4},
		{name: "info drops debug", level: "info", wantLevel: "INFO", wantCount: 3},
		{name: "warn drops info", level: "warn", wantLevel: "WARN", wantCount: 2},
		{name: "error only", level: "error", wantLevel: "ERROR", wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := &bytes.Buffer{}

			log, err := New(&Config{Level: tt.level, Format: "json", writer: output})
			require.NoError(t, err)

			log.Debug("queue loaded")
			log.Info("job appended", slog.String("job", "Vase"))
			log.Warn("storage missing")
			log.Error("upload failed", slog.String("serial", "ABC123"))

			entries := decodeLines(t, output)
			require.Len(t, entries, tt.wantCount)
			assert.Equal(t, tt.wantLevel, entries[0]["level"])
			assert.Contains(t, entries[0], "time")
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	output := &bytes.Buffer{}

	log, err := New(&Config{Level: "info", Format: "console", writer: output})
	require.NoError(t, err)

	log.Info("printer resolved", slog.String("serial", "ABC123"))

	// tint abbreviates levels
	assert.Contains(t, output.String(), "INF")
	assert.Contains(t, output.String(), "printer resolved")
	assert.Contains(t, output.String(), "ABC123")
}

func TestNew_WithSource(t *testing.T) {
	output := &bytes.Buffer{}

	log, err := New(&Config{Level: "info", Format: "json", EnableSource: true, writer: output})
	require.NoError(t, err)

	log.Info("with source")

	entries := decodeLines(t, output)
	require.Len(t, entries, 1)
	source, ok := entries[0]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, source, "file")
	assert.Contains(t, source, "line")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printq.log")

	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("written to file")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNew_FileOutputUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "printq.log")

	log, err := New(&Config{Output: path})
	require.Error(t, err)
	assert.Nil(t, log)
	assert.Contains(t, err.Error(), "failed to open log file")
}

func TestNewDefault(t *testing.T) {
	log := NewDefault()
	require.NotNil(t, log)
	assert.NotNil(t, log.Logger)
	assert.NoError(t, log.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelInfo}, // case-sensitive, falls back to info
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestLogger_WithGroupAndWith(t *testing.T) {
	output := &bytes.Buffer{}

	log, err := New(&Config{Level: "info", Format: "json", writer: output})
	require.NoError(t, err)

	log.With(slog.String("component", "queue")).
		WithGroup("job").
		Info("marked done", slog.String("name", "Vase"))

	entries := decodeLines(t, output)
	require.Len(t, entries, 1)
	assert.Equal(t, "queue", entries[0]["component"])
	group, ok := entries[0]["job"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Vase", group["name"])
}
