package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brickworks/brickdex/pkg/constants"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search parts by id, name, or category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := newService()
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx := cmd.Context()
			if err := ensureLoaded(ctx, svc); err != nil {
				return err
			}

			matches, err := svc.SearchParts(ctx, strings.Join(args, " "), flagLimit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, matches, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tNAME\tCATEGORY")
				for _, m := range matches {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Value, m.Part.Name, m.Category)
				}
			})
		},
	}
	cmd.Flags().IntVar(&flagLimit, "limit", constants.DefaultPartSearchLimit, "maximum number of results")
	return cmd
}

func newColorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "colors [query]",
		Short: "Search colors, or list the most used ones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := newService()
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx := cmd.Context()
			if err := ensureLoaded(ctx, svc); err != nil {
				return err
			}

			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			matches, err := svc.SearchColors(ctx, query, flagLimit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, matches, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tNAME\tRGB\tTYPE\tPARTS")
				for _, m := range matches {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", m.Value, m.Label, deref(m.RGB), m.Type, m.Color.Parts)
				}
			})
		},
	}
	cmd.Flags().IntVar(&flagLimit, "limit", constants.DefaultColorSearchLimit, "maximum number of results")
	return cmd
}
