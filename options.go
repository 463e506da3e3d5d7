package brickdex

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/constants"
)

// Option is a function that configures a Service instance.
type Option func(*config) error

type config struct {
	store           catalog.Store
	storePath       string
	catalogURL      string
	legacyPartsURL  string
	legacyColorsURL string
	fetcher         Fetcher
	httpClient      *http.Client
	logger          *zerolog.Logger
	freshness       time.Duration
	now             func() time.Time
}

func defaultConfig() *config {
	return &config{
		freshness: constants.FreshnessWindow,
		now:       time.Now,
	}
}

// WithStore configures an already-open store. The service takes ownership
// and closes it on Close.
func WithStore(store catalog.Store) Option {
	return func(c *config) error {
		c.store = store
		return nil
	}
}

// WithStorePath configures the on-disk location of the local store. An
// empty path (the default) opens an in-memory store.
func WithStorePath(path string) Option {
	return func(c *config) error {
		c.storePath = path
		return nil
	}
}

// WithCatalogURL configures the catalog archive endpoint for Load.
func WithCatalogURL(url string) Option {
	return func(c *config) error {
		c.catalogURL = url
		return nil
	}
}

// WithLegacyURLs configures the tab-separated parts and colors endpoints
// used as a fallback when the catalog archive cannot be loaded.
func WithLegacyURLs(partsURL, colorsURL string) Option {
	return func(c *config) error {
		c.legacyPartsURL = partsURL
		c.legacyColorsURL = colorsURL
		return nil
	}
}

// WithHTTPClient configures the HTTP client used for downloads.
func WithHTTPClient(h *http.Client) Option {
	return func(c *config) error {
		c.httpClient = h
		return nil
	}
}

// WithFetcher configures a custom fetcher, replacing HTTP downloads.
func WithFetcher(f Fetcher) Option {
	return func(c *config) error {
		c.fetcher = f
		return nil
	}
}

// WithLogger configures the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = &l
		return nil
	}
}

// WithFreshnessWindow configures how recent stored data must be for Load to
// reuse it instead of downloading.
func WithFreshnessWindow(d time.Duration) Option {
	return func(c *config) error {
		c.freshness = d
		return nil
	}
}

// WithClock configures the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		c.now = now
		return nil
	}
}
