package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/Snider/Preloader/pkg/blob"
	"github.com/Snider/Preloader/pkg/preload"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [base-url]",
		Short: "Preload the manifest and report what loaded",
		Long: `Loads every asset in the manifest against a site behind the loading
overlay, then prints the handle of every video and audio asset and the reason
each failed asset failed. Handles are released on exit.

Examples:
  preloader fetch http://localhost:5173
  preloader fetch https://example.com --manifest assets.toml --timeout 30s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, args)
			if err != nil {
				return err
			}
			p, sess, err := s.preloadSite(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			printResult(cmd.OutOrStdout(), sess.Wait(), p.Store())
			return nil
		},
	}
}

// printResult writes a summary line and tables of handles and failures.
func printResult(w io.Writer, res preload.Result, store *blob.Store) {
	summary := color.New(color.FgGreen)
	if len(res.Failures) > 0 {
		summary = color.New(color.FgYellow)
	}
	summary.Fprintf(w, "Loaded %d/%d assets (%.0f%%), %d handles, %d failed\n",
		res.Loaded(), res.Total, res.Progress, len(res.Handles), res.Failed)

	if len(res.Handles) > 0 {
		urls := make([]string, 0, len(res.Handles))
		for u := range res.Handles {
			urls = append(urls, u)
		}
		sort.Strings(urls)

		rows := make([][]string, 0, len(urls))
		for _, u := range urls {
			h := res.Handles[u]
			data, _ := store.Bytes(h)
			rows = append(rows, []string{u, string(h), store.ContentType(h), humanize.Bytes(uint64(len(data)))})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"URL", "Handle", "Type", "Size"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
		))
	}

	if len(res.Failures) > 0 {
		rows := make([][]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			rows = append(rows, []string{f.URL, f.Kind.String(), preload.Reason(f), f.Err.Error()})
		}
		fmt.Fprintln(w, renderTable([]string{"Failed", "Kind", "Reason", "Error"}, rows, nil))
	}
}
