package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.level))
		})
	}
}

func TestSetupLoggerWritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "prwatch.log")

	logger, err := SetupLogger(logFile, "debug", true)
	require.NoError(t, err)

	logger.Info("refresh complete", "pulls", 7)
	require.NoError(t, CloseFile())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refresh complete")
	assert.Contains(t, string(data), "pulls=7")
}

func TestFanoutLevelGating(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "prwatch.log")

	logger, err := SetupLogger(logFile, "warn", true)
	require.NoError(t, err)

	logger.Debug("discovery complete")
	logger.Warn("org listing failed, skipping")
	require.NoError(t, CloseFile())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "discovery complete")
	assert.Contains(t, string(data), "org listing failed")
}
