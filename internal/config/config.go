// Package config handles TOML configuration loading with environment
// variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Playlist PlaylistConfig `toml:"playlist"`
	Provider ProviderConfig `toml:"provider"`
	Download DownloadConfig `toml:"download"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
}

type PlaylistConfig struct {
	ID    string `toml:"id"`
	Limit int    `toml:"limit"` // most-recent-N cap; 0 mirrors everything
}

type ProviderConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"` // empty for the real API
	RateLimit   float64 `toml:"rate_limit"`
	PageSize    int     `toml:"page_size"`
	BatchSize   int     `toml:"batch_size"`
	Concurrency int     `toml:"concurrency"`
}

type DownloadConfig struct {
	Dir                string `toml:"dir"`
	Mode               string `toml:"mode"`
	MaxDurationMinutes int    `toml:"max_duration_minutes"` // 0 disables the cap
	Concurrency        int    `toml:"concurrency"`
	TimeoutMinutes     int    `toml:"timeout_minutes"` // per worker invocation; 0 disables
	AudioFormat        string `toml:"audio_format"`
	VideoFormat        string `toml:"video_format"`
	WorkerBin          string `toml:"worker_bin"`
	Thumbnails         bool   `toml:"thumbnails"`
}

type CacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"` // empty derives from the download dir
	TTLHours int    `toml:"ttl_hours"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.RateLimit <= 0 {
		c.Provider.RateLimit = 5
	}
	if c.Provider.PageSize == 0 {
		c.Provider.PageSize = 50
	}
	if c.Provider.BatchSize == 0 {
		c.Provider.BatchSize = 50
	}
	if c.Provider.Concurrency == 0 {
		c.Provider.Concurrency = 4
	}
	if c.Download.Mode == "" {
		c.Download.Mode = "both"
	}
	if c.Download.Concurrency == 0 {
		c.Download.Concurrency = 3
	}
	if c.Download.TimeoutMinutes == 0 {
		c.Download.TimeoutMinutes = 30
	}
	if c.Download.AudioFormat == "" {
		c.Download.AudioFormat = "m4a"
	}
	if c.Download.VideoFormat == "" {
		c.Download.VideoFormat = "mp4"
	}
	if c.Cache.TTLHours == 0 {
		c.Cache.TTLHours = 24
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the fields no default can supply.
func (c *Config) Validate() error {
	if c.Playlist.ID == "" {
		return fmt.Errorf("config: playlist.id is required")
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("config: provider.api_key is required")
	}
	if c.Download.Dir == "" {
		return fmt.Errorf("config: download.dir is required")
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match
	})
}
