package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salescli/internal/config"
)

func decodeLines(t *testing.T, data string) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(data), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(config.LoggingConfig{Level: "info", Output: "console"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "test message", "key", "value")
	logger.Debug("hidden")

	entries := decodeLines(t, buf.String())
	require.Len(t, entries, 1)
	assert.Equal(t, "test message", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "value", entries[0]["key"])
	assert.Equal(t, "run-123", entries[0]["run_id"])
}

func TestNewLoggerBoth(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	var buf bytes.Buffer

	logger, closer, err := NewLogger(config.LoggingConfig{Level: "debug", Output: "both", FilePath: logFile}, &buf)
	require.NoError(t, err)

	logger.With("component", "loader").Debug("debug message")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	fileEntries := decodeLines(t, string(content))
	consoleEntries := decodeLines(t, buf.String())
	require.Len(t, fileEntries, 1)
	require.Len(t, consoleEntries, 1)
	assert.Equal(t, "loader", fileEntries[0]["component"])
	assert.Contains(t, fileEntries[0], "source", "debug level adds source")
}

func TestNewLoggerFileOnly(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "only.log")
	var buf bytes.Buffer

	logger, closer, err := NewLogger(config.LoggingConfig{Level: "warn", Output: "file", FilePath: logFile}, &buf)
	require.NoError(t, err)

	logger.Info("skipped")
	logger.Warn("kept")
	require.NoError(t, closer.Close())

	assert.Empty(t, buf.String())
	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	entries := decodeLines(t, string(content))
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
}

func TestNewLoggerBadPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, _, err := NewLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(blocker, "x.log")}, nil)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("WARNING").String())
	assert.Equal(t, "ERROR", parseLogLevel("error").String())
	assert.Equal(t, "INFO", parseLogLevel("bogus").String())
}

func TestRunID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RunID(ctx))

	ctx = EnsureRunID(ctx)
	id := RunID(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id, RunID(EnsureRunID(ctx)), "existing id is kept")
	assert.NotEqual(t, NewRunID(), NewRunID())
}
