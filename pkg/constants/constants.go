// Package constants provides shared constants used throughout the brickdex
// codebase: timeouts, batch sizes, freshness windows, and default limits that
// should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application.
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests when
	// fetching catalog archives.
	DefaultHTTPTimeout = 2 * time.Minute

	// LoadTimeout is the overall timeout for a full catalog load.
	LoadTimeout = 10 * time.Minute

	// RetryBackoff is the base backoff duration for fetch retries.
	RetryBackoff = 1 * time.Second
)

// Freshness constants control when previously stored catalog data is reused.
const (
	// FreshnessWindow is the maximum age of stored catalog data before a
	// reload is attempted.
	FreshnessWindow = 24 * time.Hour
)

// Store constants.
const (
	// BulkBatchSize is the number of records written per batch during a
	// bulk replace.
	BulkBatchSize = 500

	// StoreSchemaVersion is the current version of the local store layout.
	// Opening an older store triggers additive migration.
	StoreSchemaVersion = 2
)

// Transport constants.
const (
	// FetchChunkSize is the read-buffer size for chunked downloads.
	FetchChunkSize = 32 * 1024

	// ProgressPercentStep reports download progress at least this often
	// when the content length is known.
	ProgressPercentStep = 5

	// ProgressByteStep reports progress every this many bytes when the
	// content length is unknown.
	ProgressByteStep = 50 * 1024

	// MaxFetchRetries is the number of attempts for transient fetch failures.
	MaxFetchRetries = 3
)

// Query constants.
const (
	// MinPartQueryLength is the shortest part query answered from the store.
	MinPartQueryLength = 2

	// DefaultPartSearchLimit caps part search results.
	DefaultPartSearchLimit = 50

	// DefaultColorSearchLimit caps color search results.
	DefaultColorSearchLimit = 20
)
