package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "folio"

type Config struct {
	// LibriVox catalog API
	Catalog CatalogConfig `koanf:"catalog"`

	// Playback and progress tracking
	Playback PlaybackConfig `koanf:"playback"`

	// Offline copies of book sections
	Downloads DownloadsConfig `koanf:"downloads"`

	// Desktop notifications on section changes
	Notifications NotificationsConfig `koanf:"notifications"`

	Log LogConfig `koanf:"log"`
}

// CatalogConfig holds LibriVox API settings.
type CatalogConfig struct {
	BaseURL  string `koanf:"base_url"`  // API root (default: https://librivox.org/api/feed/audiobooks/)
	PageSize int    `koanf:"page_size"` // Results per page (1-50, default: 20)
}

// PlaybackConfig holds session settings.
type PlaybackConfig struct {
	ProgressIntervalSeconds int `koanf:"progress_interval_seconds"` // Min spacing of progress writes (default: 5)
	SkipSeconds             int `koanf:"skip_seconds"`              // Skip forward/back step (default: 10)
	StatusIntervalMs        int `koanf:"status_interval_ms"`        // Engine status tick (default: 250)
}

// DownloadsConfig holds offline download settings.
type DownloadsConfig struct {
	Dir string `koanf:"dir"` // Download root (default: $XDG_DATA_HOME/folio/downloads)
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled *bool `koanf:"enabled"`    // Notify when a section starts (default: true)
	Timeout int   `koanf:"timeout_ms"` // Display time, -1 = server default (default: 5000)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"` // "debug", "info", "warn", "error" (default: "info")
	File  string `koanf:"file"`  // Log file (default: $XDG_STATE_HOME/folio/folio.log)
}

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files in order, later files overriding
// earlier ones. Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Catalog.BaseURL = strings.TrimSpace(cfg.Catalog.BaseURL)
	if cfg.Downloads.Dir != "" {
		cfg.Downloads.Dir = expandPath(cfg.Downloads.Dir)
	}
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/folio/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetCatalogConfig returns the catalog configuration with defaults applied.
func (c *Config) GetCatalogConfig() CatalogConfig {
	cfg := c.Catalog
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://librivox.org/api/feed/audiobooks/"
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 50 {
		cfg.PageSize = 20
	}
	return cfg
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback
	if cfg.ProgressIntervalSeconds <= 0 {
		cfg.ProgressIntervalSeconds = 5
	}
	if cfg.SkipSeconds <= 0 {
		cfg.SkipSeconds = 10
	}
	if cfg.StatusIntervalMs <= 0 {
		cfg.StatusIntervalMs = 250
	}
	return cfg
}

// ProgressInterval returns the progress write spacing as a duration.
func (p PlaybackConfig) ProgressInterval() time.Duration {
	return time.Duration(p.ProgressIntervalSeconds) * time.Second
}

// SkipStep returns the skip step as a duration.
func (p PlaybackConfig) SkipStep() time.Duration {
	return time.Duration(p.SkipSeconds) * time.Second
}

// StatusInterval returns the engine tick period as a duration.
func (p PlaybackConfig) StatusInterval() time.Duration {
	return time.Duration(p.StatusIntervalMs) * time.Millisecond
}

// DownloadsDir returns the download root with the default applied.
func (c *Config) DownloadsDir() string {
	if c.Downloads.Dir != "" {
		return c.Downloads.Dir
	}
	return filepath.Join(xdg.DataHome, appName, "downloads")
}

// GetNotificationsConfig returns the notification configuration with defaults applied.
func (c *Config) GetNotificationsConfig() NotificationsConfig {
	cfg := c.Notifications
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.Timeout == 0 || cfg.Timeout < -1 {
		cfg.Timeout = 5000
	}
	return cfg
}

// IsEnabled reports whether notifications are on. Call on a value returned
// by GetNotificationsConfig.
func (n NotificationsConfig) IsEnabled() bool {
	return n.Enabled != nil && *n.Enabled
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
		cfg.Level = strings.ToLower(cfg.Level)
	default:
		cfg.Level = "info"
	}
	if cfg.File == "" {
		cfg.File = filepath.Join(xdg.StateHome, appName, appName+".log")
	}
	return cfg
}
