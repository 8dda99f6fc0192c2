package cmd

import (
	"fmt"

	"github.com/Snider/Preloader/pkg/blob"
	"github.com/Snider/Preloader/pkg/console"
	"github.com/Snider/Preloader/pkg/preload"
	"github.com/Snider/Preloader/pkg/snapshot"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [base-url]",
		Short: "Preload the manifest, then serve its handles locally",
		Long: `Loads the manifest behind the loading overlay and serves every video and
audio handle over loopback HTTP until interrupted. With --snapshot the handles
come from an archive written by "preloader snapshot" instead of the network.

  /blob/<id>  the preloaded bytes
  /handles    a JSON index of original URL to local URL

Examples:
  preloader serve http://localhost:5173 --open
  preloader serve --bind 127.0.0.1:0
  preloader serve --snapshot preload.tar.xz`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind") {
				s.cfg.Serve.Bind, _ = cmd.Flags().GetString("bind")
			}
			openBrowser, _ := cmd.Flags().GetBool("open")

			var (
				store   *blob.Store
				handles preload.HandleMap
			)
			if archive, _ := cmd.Flags().GetString("snapshot"); archive != "" {
				store = blob.New()
				handles, _, err = snapshot.RestoreFile(archive, store)
				if err != nil {
					return err
				}
				s.log.Debug("restored snapshot", "file", archive, "handles", len(handles))
			} else {
				p, sess, err := s.preloadSite(cmd)
				if err != nil {
					return err
				}
				defer sess.Close()
				store, handles = p.Store(), sess.Wait().Handles
			}

			server := console.NewServer(store, handles, s.cfg.Serve.Bind)
			if err := server.Listen(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Serving %d handles at %s\n", len(handles), server.BaseURL())
			for _, e := range server.Entries(server.BaseURL()) {
				fmt.Fprintf(out, "  %s -> %s\n", e.URL, e.Local)
			}

			if openBrowser {
				if err := console.OpenBrowser(server.BaseURL() + "/handles"); err != nil {
					s.log.Warn("could not open browser", "err", err)
				}
			}

			s.log.Info("serving handles", "addr", server.BaseURL(), "handles", len(handles))
			return server.Serve(cmd.Context())
		},
	}

	cmd.Flags().String("bind", "", "Address to serve on (default from config)")
	cmd.Flags().Bool("open", false, "Auto-open browser")
	cmd.Flags().String("snapshot", "", "Serve the handles stored in a snapshot archive")

	return cmd
}
