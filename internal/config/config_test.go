package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcin-skalski/prwatch/internal/github"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, github.DefaultBaseURL, cfg.APIBaseURL)
	assert.Equal(t, StrategySearch, cfg.Strategy)
	assert.Equal(t, 60*time.Second, cfg.ActiveInterval)
	assert.Equal(t, 5*time.Minute, cfg.BackgroundInterval)
	assert.Equal(t, 2*time.Second, cfg.TUI.RefreshInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.CredentialsFile)
	assert.NotEmpty(t, cfg.CacheFile)
	assert.NotEmpty(t, cfg.LogFile)
}

func TestLoadParsesIntervals(t *testing.T) {
	path := writeConfig(t, `
strategy: repos
active_interval: 30s
background_interval: 10m
tui:
  refresh_interval: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyRepos, cfg.Strategy)
	assert.Equal(t, 30*time.Second, cfg.ActiveInterval)
	assert.Equal(t, 10*time.Minute, cfg.BackgroundInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.TUI.RefreshInterval)
}

func TestLoadDerivesPathsFromDataDir(t *testing.T) {
	path := writeConfig(t, "data_dir: /var/lib/prwatch\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/lib/prwatch", "credentials.yaml"), cfg.CredentialsFile)
	assert.Equal(t, filepath.Join("/var/lib/prwatch", "cache.db"), cfg.CacheFile)
	assert.Equal(t, filepath.Join("/var/lib/prwatch", "logs", "prwatch.log"), cfg.LogFile)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown strategy", "strategy: poll\n"},
		{"unparseable interval", "active_interval: often\n"},
		{"negative interval", "active_interval: -10s\n"},
		{"background shorter than active", "active_interval: 5m\nbackground_interval: 1m\n"},
		{"zero tui interval", "tui:\n  refresh_interval: 0s\n"},
		{"malformed yaml", "strategy: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
