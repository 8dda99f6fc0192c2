package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Snider/Preloader/pkg/asset"
	"github.com/Snider/Preloader/pkg/config"
	"github.com/Snider/Preloader/pkg/logger"
	"github.com/Snider/Preloader/pkg/preload"
	"github.com/Snider/Preloader/pkg/session"
	"github.com/Snider/Preloader/pkg/ui"
	"github.com/spf13/cobra"
)

// Overlay timings, shortened by tests.
var (
	overlayHideDelay    = ui.DefaultHideDelay
	overlayDestroyDelay = ui.DefaultDestroyDelay
)

// newHTTPClient builds the client every load goes through. Per-asset limits
// come from the preloader, so the client itself has no timeout.
var newHTTPClient = func() *http.Client {
	return &http.Client{}
}

// settings is what a command needs after flags and configuration are merged.
type settings struct {
	cfg *config.Config
	log *slog.Logger
	// assetTimeout is the per-asset limit at the flag's precision; the config
	// file only holds whole seconds.
	assetTimeout time.Duration
}

// loadSettings reads the configuration and applies flag overrides. Until the
// configured logger exists, notices go to the logger Execute put in the
// command's context.
func loadSettings(cmd *cobra.Command, args []string) (*settings, error) {
	boot := logger.FromContext(cmd.Context())
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			boot.Warn("config file not found, using defaults", "path", path)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Site.BaseURL = args[0]
	}
	if m, _ := flags.GetString("manifest"); m != "" {
		cfg.Site.Manifest = m
	}
	assetTimeout := cfg.Preload.AssetTimeout()
	if flags.Changed("timeout") {
		assetTimeout, _ = flags.GetDuration("timeout")
		if assetTimeout < 0 {
			return nil, fmt.Errorf("invalid settings: --timeout must be zero or positive, got %s", assetTimeout)
		}
	}
	if flags.Changed("concurrency") {
		cfg.Preload.Concurrency, _ = flags.GetInt("concurrency")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	level, _ := logger.ParseLevel(cfg.Logging.Level)
	if verbose, _ := flags.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	log := logger.NewWithOptions(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	return &settings{cfg: cfg, log: log, assetTimeout: assetTimeout}, nil
}

// manifest returns the descriptors to load, rebased onto the site.
func (s *settings) manifest() ([]asset.Descriptor, error) {
	descriptors := asset.SiteManifest()
	if s.cfg.Site.Manifest != "" {
		var err error
		descriptors, err = asset.LoadFile(s.cfg.Site.Manifest)
		if err != nil {
			return nil, fmt.Errorf("load manifest: %w", err)
		}
	}
	if s.cfg.Site.BaseURL == "" {
		return descriptors, nil
	}
	resolved, err := asset.Resolve(s.cfg.Site.BaseURL, descriptors)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest: %w", err)
	}
	return resolved, nil
}

func (s *settings) preloader() *preload.Preloader {
	s.log.Debug("preloader configured", "asset_timeout", s.assetTimeout, "concurrency", s.cfg.Preload.Concurrency)
	return preload.New(preload.Options{
		Client:       newHTTPClient(),
		Logger:       s.log,
		AssetTimeout: s.assetTimeout,
		Concurrency:  s.cfg.Preload.Concurrency,
	})
}

// preloadSite loads the manifest behind the overlay and returns the open
// session once the overlay is gone. The caller closes the session.
func (s *settings) preloadSite(cmd *cobra.Command) (*preload.Preloader, *session.Session, error) {
	descriptors, err := s.manifest()
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	p := s.preloader()
	sess := session.Start(ctx, p, descriptors)

	overlay := ui.NewOverlay(ui.NewRenderer(cmd.ErrOrStderr()), func() {
		s.log.Debug("overlay hidden")
	})
	overlay.HideDelay = overlayHideDelay
	overlay.DestroyDelay = overlayDestroyDelay
	unsubscribe := overlay.Attach(sess)
	defer unsubscribe()

	if err := waitHidden(ctx, overlay); err != nil {
		overlay.Stop()
		sess.Close()
		return nil, nil, err
	}
	return p, sess, nil
}

func waitHidden(ctx context.Context, o *ui.Overlay) error {
	select {
	case <-o.Hidden():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("preload interrupted: %w", ctx.Err())
	}
}
