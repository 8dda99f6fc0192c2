// Package config loads, normalizes, and validates Preloader configuration.
//
// Settings come from repository defaults, an optional TOML file, and the
// PRELOADER_BASE_URL environment variable, in that order. Command-line flags
// are applied by the caller on top of the loaded Config.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvBaseURL overrides site.base_url when set.
const EnvBaseURL = "PRELOADER_BASE_URL"

// Site describes where assets come from.
type Site struct {
	BaseURL  string `toml:"base_url"`
	Manifest string `toml:"manifest"`
}

// Preload tunes the asset preloader.
type Preload struct {
	AssetTimeoutSeconds int `toml:"asset_timeout_seconds"`
	Concurrency         int `toml:"concurrency"`
}

// AssetTimeout returns the per-asset limit as a duration; zero means none.
func (p Preload) AssetTimeout() time.Duration {
	return time.Duration(p.AssetTimeoutSeconds) * time.Second
}

// Serve configures the local handle server.
type Serve struct {
	Bind string `toml:"bind"`
}

// Snapshot configures archive export.
type Snapshot struct {
	Output      string `toml:"output"`
	Compression string `toml:"compression"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Preloader.
type Config struct {
	Site     Site     `toml:"site"`
	Preload  Preload  `toml:"preload"`
	Serve    Serve    `toml:"serve"`
	Snapshot Snapshot `toml:"snapshot"`
	Logging  Logging  `toml:"logging"`
}

// SampleConfig returns a commented example configuration file.
func SampleConfig() string {
	return sampleConfig
}

// Load reads the configuration at path on top of the defaults. An empty
// path, or a path that does not exist, yields the defaults. The returned
// config is normalized and validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if v, ok := os.LookupEnv(EnvBaseURL); ok && v != "" {
		cfg.Site.BaseURL = v
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
