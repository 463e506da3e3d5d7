package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brickworks/brickdex/pkg/catalog"
)

// partDetails is the full lookup result for one part.
type partDetails struct {
	catalog.Part
	Category string             `json:"category,omitempty"`
	Colors   []partColorDetails `json:"colors,omitempty"`
}

type partColorDetails struct {
	ColorID int    `json:"colorId"`
	Name    string `json:"name,omitempty"`
	HasImg  bool   `json:"hasImg"`
}

func newPartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "part <blId>",
		Short: "Show a part with its category and known colors",
		Args:  cobra.ExactArgs(1),
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

			part, err := svc.PartByID(ctx, args[0])
			if err != nil {
				return err
			}
			if part == nil {
				return fmt.Errorf("part %q not found", args[0])
			}

			details := partDetails{Part: *part}
			if category, err := svc.CategoryByID(ctx, part.CatID); err == nil && category != nil {
				details.Category = category.Name
			}
			partColors, err := svc.PartColors(ctx, part.BLID)
			if err != nil {
				return err
			}
			for _, pc := range partColors {
				d := partColorDetails{ColorID: pc.ColorID, HasImg: pc.HasImg}
				if color, err := svc.ColorByID(ctx, pc.ColorID); err == nil && color != nil {
					d.Name = color.Name
				}
				details.Colors = append(details.Colors, d)
			}

			return render(cmd.OutOrStdout(), cfg.Output, details, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "id\t%s\n", details.BLID)
				fmt.Fprintf(tw, "name\t%s\n", details.Name)
				fmt.Fprintf(tw, "category\t%s\n", details.Category)
				if len(details.Alt) > 0 {
					fmt.Fprintf(tw, "alt\t%s\n", strings.Join(details.Alt, ", "))
				}
				for _, c := range details.Colors {
					fmt.Fprintf(tw, "color\t%s (%d)\n", c.Name, c.ColorID)
				}
			})
		},
	}
}

func newColorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "color <id|name>",
		Short: "Show a color by id or exact name",
		Args:  cobra.ExactArgs(1),
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

			var color *catalog.Color
			if id, convErr := strconv.Atoi(args[0]); convErr == nil {
				color, err = svc.ColorByID(ctx, id)
			} else {
				color, err = svc.ColorByName(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if color == nil {
				return fmt.Errorf("color %q not found", args[0])
			}

			return render(cmd.OutOrStdout(), cfg.Output, color, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "id\t%d\n", color.ID)
				fmt.Fprintf(tw, "name\t%s\n", color.Name)
				fmt.Fprintf(tw, "rgb\t%s\n", deref(color.RGB))
				fmt.Fprintf(tw, "type\t%s\n", color.Type)
				fmt.Fprintf(tw, "parts\t%d\n", color.Parts)
			})
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List all part categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, err := newService()
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx := cmd.Context()
			if err := ensureLoaded(ctx, svc); err != nil {
				return err
			}

			categories, err := svc.Categories(ctx)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, categories, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tNAME")
				for _, c := range categories {
					fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
				}
			})
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store counts and provenance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, err := newService()
			if err != nil {
				return err
			}
			defer svc.Close()

			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, stats, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "categories\t%d\n", stats.Categories)
				fmt.Fprintf(tw, "colors\t%d\n", stats.Colors)
				fmt.Fprintf(tw, "parts\t%d\n", stats.Parts)
				fmt.Fprintf(tw, "partColors\t%d\n", stats.PartColors)
				if stats.LastUpdate != nil {
					fmt.Fprintf(tw, "source\t%s\n", stats.LastUpdate.Source)
					fmt.Fprintf(tw, "updated\t%d\n", stats.LastUpdate.Timestamp)
				}
				if stats.Provenance != nil {
					fmt.Fprintf(tw, "catalog\t%s %s\n", stats.Provenance.Source, stats.Provenance.Version)
				}
			})
		},
	}
}
