package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marcin-skalski/prwatch/internal/github"
)

const (
	StrategySearch = "search"
	StrategyRepos  = "repos"
)

type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	Strategy   string `yaml:"strategy"`

	ActiveInterval        time.Duration `yaml:"-"`
	RawActiveInterval     string        `yaml:"active_interval"`
	BackgroundInterval    time.Duration `yaml:"-"`
	RawBackgroundInterval string        `yaml:"background_interval"`

	DataDir         string `yaml:"data_dir"`
	CredentialsFile string `yaml:"credentials_file"`
	CacheFile       string `yaml:"cache_file"`
	LogFile         string `yaml:"log_file"`

	Log LogConfig `yaml:"log"`
	TUI TUIConfig `yaml:"tui"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TUIConfig struct {
	RefreshInterval time.Duration `yaml:"-"`
	RawInterval     string        `yaml:"refresh_interval"`
}

// Load reads the config file if present. A missing file yields the
// defaults, since every setting has one.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) setDefaults() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = github.DefaultBaseURL
	}
	if c.Strategy == "" {
		c.Strategy = StrategySearch
	}

	if c.RawActiveInterval == "" {
		c.RawActiveInterval = "60s"
	}
	active, err := time.ParseDuration(c.RawActiveInterval)
	if err != nil {
		return fmt.Errorf("parse active_interval %q: %w", c.RawActiveInterval, err)
	}
	c.ActiveInterval = active

	if c.RawBackgroundInterval == "" {
		c.RawBackgroundInterval = "5m"
	}
	background, err := time.ParseDuration(c.RawBackgroundInterval)
	if err != nil {
		return fmt.Errorf("parse background_interval %q: %w", c.RawBackgroundInterval, err)
	}
	c.BackgroundInterval = background

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, ".prwatch")
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = filepath.Join(c.DataDir, "credentials.yaml")
	}
	if c.CacheFile == "" {
		c.CacheFile = filepath.Join(c.DataDir, "cache.db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "logs", "prwatch.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.TUI.RawInterval == "" {
		c.TUI.RawInterval = "2s"
	}
	tuiInterval, err := time.ParseDuration(c.TUI.RawInterval)
	if err != nil {
		return fmt.Errorf("parse tui.refresh_interval %q: %w", c.TUI.RawInterval, err)
	}
	c.TUI.RefreshInterval = tuiInterval

	return nil
}

func (c *Config) validate() error {
	switch c.Strategy {
	case StrategySearch, StrategyRepos:
	default:
		return fmt.Errorf("invalid strategy %q (search|repos)", c.Strategy)
	}
	if c.ActiveInterval <= 0 {
		return fmt.Errorf("active_interval must be positive, got %s", c.RawActiveInterval)
	}
	if c.BackgroundInterval < c.ActiveInterval {
		return fmt.Errorf("background_interval %s must not be shorter than active_interval %s",
			c.RawBackgroundInterval, c.RawActiveInterval)
	}
	if c.TUI.RefreshInterval <= 0 {
		return fmt.Errorf("tui.refresh_interval must be positive, got %s", c.TUI.RawInterval)
	}
	return nil
}
