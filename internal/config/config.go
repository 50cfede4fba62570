package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// API settings for the catalog backend.
	API APIConfig `koanf:"api"`

	// Playback behaviour settings.
	Playback PlaybackConfig `koanf:"playback"`

	// Log level: "debug", "info", "warn", or "error" (default: "info")
	LogLevel string `koanf:"log_level"`
}

// APIConfig holds catalog backend configuration.
type APIConfig struct {
	BaseURL string `koanf:"base_url"` // e.g., "http://localhost:8080"
	Token   string `koanf:"token"`    // bearer token, GROOVY_API_TOKEN overrides
}

// PlaybackConfig holds playback behaviour configuration.
type PlaybackConfig struct {
	InitialVolume *float64 `koanf:"initial_volume"` // 0.0-1.0, overridden by persisted state
	RestoreQueue  *bool    `koanf:"restore_queue"`  // restore previous queue on startup (default: true)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		LogLevel: "info",
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Normalize API URL (remove trailing slash)
	cfg.API.BaseURL = strings.TrimSuffix(cfg.API.BaseURL, "/")

	// Environment token wins over the file so the secret can stay out of it
	if token := os.Getenv("GROOVY_API_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if url := os.Getenv("GROOVY_API_URL"); url != "" {
		cfg.API.BaseURL = strings.TrimSuffix(url, "/")
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/groovy/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "groovy", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasAPIConfig returns true if a catalog backend is configured.
func (c *Config) HasAPIConfig() bool {
	return c.API.BaseURL != ""
}

// InitialVolume returns the configured startup volume with defaults applied.
func (c *Config) InitialVolume() float64 {
	if c.Playback.InitialVolume == nil {
		return 1.0
	}
	v := *c.Playback.InitialVolume
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RestoreQueue returns whether the previous queue should be restored on
// startup. Defaults to true.
func (c *Config) RestoreQueue() bool {
	if c.Playback.RestoreQueue == nil {
		return true
	}
	return *c.Playback.RestoreQueue
}
