package cmd

import (
	"context"
	"log/slog"

	"github.com/Snider/Preloader/pkg/logger"
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// NewRootCmd builds the root command with its persistent flags and every
// subcommand attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "preloader",
		Short: "Preload a site's media and hand out in-memory handles.",
		Long: `Preloader fetches every image, video and audio asset a page needs before it
is revealed, reports aggregate progress behind a loading overlay, and keeps the
video and audio bytes in memory under blob: handles.

Assets come from the built-in site manifest, a JSON or TOML manifest file, or
an HTML page scanned with "preloader manifest --page".`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a TOML configuration file")
	flags.String("manifest", "", "Manifest file (JSON or TOML) to load instead of the site manifest")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.Duration("timeout", 0, "Per-asset time limit, e.g. 30s (0 disables; default from config)")
	flags.Int("concurrency", 0, "Simultaneous fetches (0 is unlimited; default from config)")

	root.AddCommand(
		NewFetchCmd(),
		NewServeCmd(),
		NewSnapshotCmd(),
		NewManifestCmd(),
		NewConfigCmd(),
	)
	return root
}

// Execute runs RootCmd with log available to every command until the
// configuration replaces it. This is called by main.main().
func Execute(ctx context.Context, log *slog.Logger) error {
	return RootCmd.ExecuteContext(logger.WithContext(ctx, log))
}
