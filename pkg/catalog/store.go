package catalog

import "context"

// ProgressFunc receives bulk-write progress as a rounded percentage in
// [0, 100]. Implementations must not block; progress is fire-and-forget.
type ProgressFunc func(percent int)

// Store is the versioned local catalog store the load pipeline persists
// into and the query surface reads from. Implementations provide keyed
// collections for categories, colors, parts, part-color associations, and
// metadata, with the secondary indexes required by the lookup operations.
//
// Replace operations clear the named collection and rewrite it in batches
// using idempotent upserts; a single malformed record is logged and skipped
// rather than aborting the batch. Point lookups return a nil record, not an
// error, when the key is absent.
type Store interface {
	// Bulk replacement, one collection per call. Progress may be nil.
	ReplaceCategories(ctx context.Context, records []Category, progress ProgressFunc) error
	ReplaceColors(ctx context.Context, records []Color, progress ProgressFunc) error
	ReplaceParts(ctx context.Context, records []Part, progress ProgressFunc) error
	ReplacePartColors(ctx context.Context, records []PartColor, progress ProgressFunc) error

	// ClearAll empties every catalog collection, leaving metadata intact.
	ClearAll(ctx context.Context) error

	// Metadata accessors. Metadata reports whether the key was present.
	PutMetadata(ctx context.Context, key string, value any) error
	Metadata(ctx context.Context, key string, out any) (bool, error)
	DeleteMetadata(ctx context.Context, key string) error

	// Counts returns per-collection record counts.
	Counts(ctx context.Context) (Counts, error)

	// HasData reports whether both parts and colors are non-empty,
	// distinguishing "never loaded" from "loaded but cleared".
	HasData(ctx context.Context) (bool, error)

	// SearchParts matches query case-insensitively against blId, partId,
	// name, and the resolved category name. Queries shorter than two
	// characters return an empty result without touching the store.
	SearchParts(ctx context.Context, query string, limit int) ([]PartMatch, error)

	// SearchColors matches query case-insensitively against name, id, and
	// type. An empty query returns the most popular colors instead.
	SearchColors(ctx context.Context, query string, limit int) ([]ColorMatch, error)

	// PopularColors returns colors ordered by parts count, descending.
	PopularColors(ctx context.Context, limit int) ([]ColorMatch, error)

	// Point lookups. A nil record with a nil error means not found.
	PartByID(ctx context.Context, blID string) (*Part, error)
	ColorByID(ctx context.Context, id int) (*Color, error)
	ColorByName(ctx context.Context, name string) (*Color, error)
	CategoryByID(ctx context.Context, id int) (*Category, error)

	// Categories returns all categories.
	Categories(ctx context.Context) ([]Category, error)

	// PartColors returns the color-variant associations for a part, or an
	// empty slice when none exist.
	PartColors(ctx context.Context, partID string) ([]PartColor, error)

	// PartsByCategory returns up to limit parts in the given category,
	// served from the catId index.
	PartsByCategory(ctx context.Context, catID, limit int) ([]Part, error)

	Close() error
}
