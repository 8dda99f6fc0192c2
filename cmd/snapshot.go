package cmd

import (
	"fmt"

	"github.com/Snider/Preloader/pkg/compress"
	"github.com/Snider/Preloader/pkg/snapshot"
	"github.com/spf13/cobra"
)

// NewSnapshotCmd creates the snapshot command.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [base-url]",
		Short: "Preload the manifest and archive the result",
		Long: `Loads the manifest behind the loading overlay and writes a tar archive of
every preloaded video and audio asset under media/, plus report.json with the
run's progress, handles and failures.

Examples:
  preloader snapshot http://localhost:5173 --compression zst
  preloader snapshot --output site.tar --compression none`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			output := s.cfg.Snapshot.Output + compress.Extension(s.cfg.Snapshot.Compression)
			if flags.Changed("compression") {
				s.cfg.Snapshot.Compression, _ = flags.GetString("compression")
				if !compress.Supported(s.cfg.Snapshot.Compression) {
					return fmt.Errorf("unsupported compression %q (want one of %v)", s.cfg.Snapshot.Compression, compress.Formats)
				}
				output = s.cfg.Snapshot.Output + compress.Extension(s.cfg.Snapshot.Compression)
			}
			if flags.Changed("output") {
				output, _ = flags.GetString("output")
			}

			p, sess, err := s.preloadSite(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			res := sess.Wait()
			if err := snapshot.WriteFile(output, res, p.Store(), s.cfg.Snapshot.Compression); err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res, p.Store())
			fmt.Fprintln(cmd.OutOrStdout(), "Snapshot saved to", output)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default from config, with the compression suffix)")
	cmd.Flags().String("compression", "", "Compression format (none, gz, xz or zst)")

	return cmd
}
