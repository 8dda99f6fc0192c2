package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Snider/Preloader/pkg/compress"
	"github.com/Snider/Preloader/pkg/logger"
)

func (c *Config) normalize() {
	c.Site.BaseURL = strings.TrimSpace(c.Site.BaseURL)
	c.Site.Manifest = strings.TrimSpace(c.Site.Manifest)
	if strings.TrimSpace(c.Serve.Bind) == "" {
		c.Serve.Bind = defaultServeBind
	}
	if strings.TrimSpace(c.Snapshot.Output) == "" {
		c.Snapshot.Output = defaultSnapshotOutput
	}
	c.Snapshot.Compression = strings.ToLower(strings.TrimSpace(c.Snapshot.Compression))
	if c.Snapshot.Compression == "" {
		c.Snapshot.Compression = "none"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSite(); err != nil {
		return err
	}
	if c.Preload.AssetTimeoutSeconds < 0 {
		return errors.New("preload.asset_timeout_seconds must be zero or positive")
	}
	if c.Preload.Concurrency < 0 {
		return errors.New("preload.concurrency must be zero or positive")
	}
	if !compress.Supported(c.Snapshot.Compression) {
		return fmt.Errorf("snapshot.compression: unsupported value %q", c.Snapshot.Compression)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func (c *Config) validateSite() error {
	if c.Site.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("site.base_url must be an http or https URL, got %q", c.Site.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("site.base_url must include a host, got %q", c.Site.BaseURL)
	}
	return nil
}
