package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"error":   LogLevelError,
		"warn":    LogLevelWarn,
		"warning": LogLevelWarn,
		" INFO ":  LogLevelInfo,
		"Debug":   LogLevelDebug,
	}
	for in, want := range tests {
		got, err := parseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLogLevel("trace")
	assert.Error(t, err)
}

func TestSetupLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, LogLevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "k=v")
}

func TestSessionLogger_TagsRecords(t *testing.T) {
	var buf bytes.Buffer
	base := setupLogger(&buf, LogLevelInfo)

	sessionLogger(base).Info("one")
	sessionLogger(base).Info("two")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "session=")
	assert.NotEqual(t, sessionAttr(lines[0]), sessionAttr(lines[1]))
}

func sessionAttr(line string) string {
	for _, f := range strings.Fields(line) {
		if strings.HasPrefix(f, "session=") {
			return f
		}
	}
	return ""
}

func TestLogLevel_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, LogLevelError.slogLevel())
	assert.Equal(t, slog.LevelWarn, LogLevelWarn.slogLevel())
	assert.Equal(t, slog.LevelInfo, LogLevelInfo.slogLevel())
	assert.Equal(t, slog.LevelDebug, LogLevelDebug.slogLevel())
}
