package cmd

import (
	"fmt"

	"github.com/Snider/Preloader/pkg/asset"
	"github.com/spf13/cobra"
)

// NewManifestCmd creates the manifest command.
func NewManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the asset manifest as JSON",
		Long: `Prints the manifest the other commands would load: the built-in site
manifest, the file given with --manifest, or the media referenced by an HTML
page when --page is set. The output can be saved and passed back with
--manifest.

Examples:
  preloader manifest
  preloader manifest --page http://localhost:5173/ > assets.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, nil)
			if err != nil {
				return err
			}

			var descriptors []asset.Descriptor
			if page, _ := cmd.Flags().GetString("page"); page != "" {
				descriptors, err = asset.Discover(cmd.Context(), newHTTPClient(), page)
				if err != nil {
					return fmt.Errorf("discover %s: %w", page, err)
				}
				s.log.Debug("discovered assets", "page", page, "assets", len(descriptors))
			} else if resolve, _ := cmd.Flags().GetBool("resolve"); resolve {
				descriptors, err = s.manifest()
			} else if s.cfg.Site.Manifest != "" {
				descriptors, err = asset.LoadFile(s.cfg.Site.Manifest)
			} else {
				descriptors = asset.SiteManifest()
			}
			if err != nil {
				return err
			}

			data, err := asset.Encode(descriptors)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().String("page", "", "Discover assets from this HTML page instead")
	cmd.Flags().Bool("resolve", false, "Rebase relative URLs onto the configured base URL")

	return cmd
}
