package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brickworks/brickdex"
	"github.com/brickworks/brickdex/pkg/catalog"
)

func newLoadCmd() *cobra.Command {
	var fromFile string
	var force bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Download the catalog and populate the local store",
		Long:  "Load downloads the catalog archive, parses it, and replaces the local store contents. Stored data newer than the freshness window is reused unless --force is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []brickdex.Option
			if force {
				// a zero freshness window makes any stored data stale
				extra = append(extra, brickdex.WithFreshnessWindow(0))
			}
			svc, cfg, err := newService(extra...)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx := cmd.Context()
			onEvent := progressPrinter(cmd)

			if fromFile != "" {
				err = svc.LoadFile(ctx, fromFile, onEvent)
			} else {
				err = svc.Load(ctx, onEvent)
			}
			if err != nil {
				return err
			}

			stats, err := svc.Stats(ctx)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, stats, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "categories\t%d\n", stats.Categories)
				fmt.Fprintf(tw, "colors\t%d\n", stats.Colors)
				fmt.Fprintf(tw, "parts\t%d\n", stats.Parts)
				fmt.Fprintf(tw, "partColors\t%d\n", stats.PartColors)
				fmt.Fprintf(tw, "source\t%s\n", stats.Source)
			})
		},
	}

	cmd.Flags().StringVar(&fromFile, "file", "", "load from a local .lcx.json(.gz) archive instead of the network")
	cmd.Flags().BoolVar(&force, "force", false, "reload even if stored data is fresh")
	return cmd
}

// progressPrinter renders load events to stderr, one line per step.
func progressPrinter(cmd *cobra.Command) catalog.EventFunc {
	w := cmd.ErrOrStderr()
	lastStep := catalog.Step(-100)
	return func(e catalog.Event) {
		switch e.Kind {
		case catalog.EventProgress:
			if e.Step != lastStep {
				lastStep = e.Step
				fmt.Fprintf(w, "%s...\n", e.Step)
			}
		case catalog.EventError:
			fmt.Fprintf(w, "load failed: %v\n", e.Err)
		case catalog.EventDone:
			fmt.Fprintln(w, "done")
		}
	}
}
