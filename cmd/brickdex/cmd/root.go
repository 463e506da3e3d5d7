// Package cmd implements the brickdex CLI commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brickworks/brickdex"
	"github.com/brickworks/brickdex/internal/config"
	"github.com/brickworks/brickdex/pkg/logging"
)

// flags shared across commands.
var (
	flagStorePath  string
	flagCatalogURL string
	flagOutput     string
	flagLimit      int
	flagVerbose    bool
)

// Execute runs the CLI with the given context.
func Execute(ctx context.Context, version, commit string) error {
	root := newRootCmd(version, commit)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(version, commit string) *cobra.Command {
	root := &cobra.Command{
		Use:           "brickdex",
		Short:         "Load and query the BrickLink parts catalog",
		Long:          "brickdex downloads the BrickLink parts catalog, stores it in a local indexed store, and answers part, color, and category lookups from it.",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagStorePath, "store", "", "path to the local store (default: user cache dir)")
	root.PersistentFlags().StringVar(&flagCatalogURL, "catalog-url", "", "catalog archive endpoint")
	root.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output format: table, json, or yaml")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoadCmd(),
		newSearchCmd(),
		newColorsCmd(),
		newPartCmd(),
		newColorCmd(),
		newCategoriesCmd(),
		newStatsCmd(),
	)
	return root
}

// newService builds a Service from config and flags. Flags win over
// environment and config file values.
func newService(extra ...brickdex.Option) (brickdex.Service, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if flagStorePath != "" {
		cfg.StorePath = flagStorePath
	}
	if flagCatalogURL != "" {
		cfg.CatalogURL = flagCatalogURL
	}
	if flagOutput != "" {
		cfg.Output = flagOutput
	}

	logger := logging.NewConsole()
	if flagVerbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.WarnLevel)
	}

	opts := []brickdex.Option{
		brickdex.WithStorePath(cfg.StorePath),
		brickdex.WithCatalogURL(cfg.CatalogURL),
		brickdex.WithLegacyURLs(cfg.LegacyPartsURL, cfg.LegacyColorsURL),
		brickdex.WithFreshnessWindow(cfg.Freshness),
		brickdex.WithLogger(logger),
	}
	opts = append(opts, extra...)
	svc, err := brickdex.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

// ensureLoaded brings the service to Ready, reusing fresh stored data and
// downloading otherwise.
func ensureLoaded(ctx context.Context, svc brickdex.Service) error {
	if svc.Ready() {
		return nil
	}
	return svc.Load(ctx, nil)
}
