// Package config loads brickdex configuration from the environment, .env
// files, and an optional config file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/brickworks/brickdex/pkg/constants"
)

// Config holds the application configuration.
type Config struct {
	// Catalog endpoints.
	CatalogURL      string
	LegacyPartsURL  string
	LegacyColorsURL string

	// StorePath is the on-disk location of the local store. Empty means
	// in-memory.
	StorePath string

	// Freshness is the maximum age of stored data before a reload.
	Freshness time.Duration

	// Output is the default render format: table, json, or yaml.
	Output string

	// Logging.
	LogLevel  string
	LogFormat string
}

// Load reads configuration in order of precedence: environment variables,
// .env files, an optional ~/.brickdex.yaml config file, then defaults.
// Command-line flags are applied on top by the CLI layer.
func Load() (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("BRICKDEX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("freshness", constants.FreshnessWindow)
	v.SetDefault("output", "table")
	v.SetDefault("store_path", defaultStorePath())

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".brickdex")
	}
	// A missing config file is fine.
	_ = v.ReadInConfig()

	return &Config{
		CatalogURL:      v.GetString("catalog_url"),
		LegacyPartsURL:  v.GetString("legacy_parts_url"),
		LegacyColorsURL: v.GetString("legacy_colors_url"),
		StorePath:       v.GetString("store_path"),
		Freshness:       v.GetDuration("freshness"),
		Output:          v.GetString("output"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "auto"),
	}, nil
}

// loadEnvFiles loads .env files from the working directory. Existing
// environment variables win.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// defaultStorePath places the store under the user cache directory.
func defaultStorePath() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cache, "brickdex", "store")
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
