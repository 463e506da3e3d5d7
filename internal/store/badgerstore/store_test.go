package badgerstore

import (
	"context"
	"encoding/json"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", InMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strptr(s string) *string { return &s }

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.ReplaceCategories(ctx, []catalog.Category{
		{ID: 5, Name: "Brick"},
		{ID: 31, Name: "Plate"},
		{ID: 777, Name: "Minifigure Parts"},
	}, nil))

	require.NoError(t, s.ReplaceColors(ctx, []catalog.Color{
		{ID: 11, Name: "Black", RGB: strptr("05131D"), Type: "Solid", Parts: 9000},
		{ID: 5, Name: "Red", RGB: strptr("C91A09"), Type: "Solid", Parts: 7500},
		{ID: 12, Name: "Trans-Clear", RGB: strptr("FCFCFC"), Type: "Transparent", Parts: 1200},
		{ID: 0, Name: "Unknown", Type: "Other", Parts: 3},
	}, nil))

	require.NoError(t, s.ReplaceParts(ctx, []catalog.Part{
		{BLID: "3001", PartID: "3001", Name: "Brick 2 x 4", CatID: 5},
		{BLID: "3024", PartID: "3024", Name: "Plate 1 x 1", CatID: 31},
		{BLID: "973", PartID: "973", Name: "Torso Plain", CatID: 777},
	}, nil))

	require.NoError(t, s.ReplacePartColors(ctx, []catalog.PartColor{
		{PartID: "3001", ColorID: 11, HasImg: true},
		{PartID: "3001", ColorID: 5, HasImg: false},
		{PartID: "3024", ColorID: 12, HasImg: true},
	}, nil))
}

func TestOpenFreshStoreIsEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Counts{}, counts)

	hasData, err := s.HasData(ctx)
	require.NoError(t, err)
	assert.False(t, hasData)
}

func TestReplaceIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)
	seedStore(t, s)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Counts{Categories: 3, Colors: 4, Parts: 3, PartColors: 3}, counts)

	hasData, err := s.HasData(ctx)
	require.NoError(t, err)
	assert.True(t, hasData)
}

func TestReplaceSupersedesPreviousContents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	require.NoError(t, s.ReplaceParts(ctx, []catalog.Part{
		{BLID: "3003", PartID: "3003", Name: "Brick 2 x 2", CatID: 5},
	}, nil))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Parts)

	gone, err := s.PartByID(ctx, "3001")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestReplaceSkipsMalformedRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceParts(ctx, []catalog.Part{
		{BLID: "3001", Name: "Brick 2 x 4", CatID: 5},
		{BLID: "", Name: "no id", CatID: 5},
		{BLID: "3024", Name: "Plate 1 x 1", CatID: 31},
	}, nil))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Parts)
}

func TestReplaceReportsProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var percents []int
	records := make([]catalog.Category, 10)
	for i := range records {
		records[i] = catalog.Category{ID: i + 1, Name: "cat"}
	}
	require.NoError(t, s.ReplaceCategories(ctx, records, func(percent int) {
		percents = append(percents, percent)
	}))

	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
}

func TestReplaceHonorsCancellation(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.ReplaceCategories(ctx, []catalog.Category{{ID: 1, Name: "Brick"}}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCancelled(err))
}

func TestHasDataRequiresPartsAndColors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// colors alone are not a usable catalog
	require.NoError(t, s.ReplaceColors(ctx, []catalog.Color{
		{ID: 11, Name: "Black", Type: "Solid", Parts: 9000},
	}, nil))
	hasData, err := s.HasData(ctx)
	require.NoError(t, err)
	assert.False(t, hasData)

	// neither are parts alone
	require.NoError(t, s.ClearAll(ctx))
	require.NoError(t, s.ReplaceParts(ctx, []catalog.Part{
		{BLID: "3001", Name: "Brick 2 x 4", CatID: 5},
	}, nil))
	hasData, err = s.HasData(ctx)
	require.NoError(t, err)
	assert.False(t, hasData)

	require.NoError(t, s.ReplaceColors(ctx, []catalog.Color{
		{ID: 11, Name: "Black", Type: "Solid", Parts: 9000},
	}, nil))
	hasData, err = s.HasData(ctx)
	require.NoError(t, err)
	assert.True(t, hasData)
}

func TestPointLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	part, err := s.PartByID(ctx, "3001")
	require.NoError(t, err)
	require.NotNil(t, part)
	assert.Equal(t, "Brick 2 x 4", part.Name)

	color, err := s.ColorByID(ctx, 11)
	require.NoError(t, err)
	require.NotNil(t, color)
	assert.Equal(t, "Black", color.Name)

	color, err = s.ColorByName(ctx, "Trans-Clear")
	require.NoError(t, err)
	require.NotNil(t, color)
	assert.Equal(t, 12, color.ID)

	category, err := s.CategoryByID(ctx, 31)
	require.NoError(t, err)
	require.NotNil(t, category)
	assert.Equal(t, "Plate", category.Name)

	zero, err := s.ColorByID(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, zero)
	assert.Equal(t, "Unknown", zero.Name)
}

func TestPointLookupsReturnNilWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	part, err := s.PartByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, part)

	color, err := s.ColorByID(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, color)

	color, err = s.ColorByName(ctx, "Octarine")
	require.NoError(t, err)
	assert.Nil(t, color)

	category, err := s.CategoryByID(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, category)
}

func TestSearchPartsShortQueryReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	matches, err := s.SearchParts(ctx, "3", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = s.SearchParts(ctx, "  x ", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchPartsMatchesIDNameAndCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	matches, err := s.SearchParts(ctx, "3001", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "3001", matches[0].Value)
	assert.Equal(t, "Brick", matches[0].Category)

	matches, err = s.SearchParts(ctx, "TORSO", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "973", matches[0].Value)

	// category name matches too
	matches, err = s.SearchParts(ctx, "minifigure", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "973", matches[0].Value)
}

func TestSearchPartsHonorsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	matches, err := s.SearchParts(ctx, "pl", 1)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSearchColors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	matches, err := s.SearchColors(ctx, "trans", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Trans-Clear", matches[0].Label)

	matches, err = s.SearchColors(ctx, "11", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Black", matches[0].Label)

	matches, err = s.SearchColors(ctx, "SOLID", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestSearchColorsEmptyQueryReturnsPopular(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	matches, err := s.SearchColors(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "Black", matches[0].Label)
	assert.Equal(t, "Red", matches[1].Label)
	assert.Equal(t, "Trans-Clear", matches[2].Label)
}

func TestPartColors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	partColors, err := s.PartColors(ctx, "3001")
	require.NoError(t, err)
	assert.Len(t, partColors, 2)

	partColors, err = s.PartColors(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, partColors)
}

func TestPartsByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	parts, err := s.PartsByCategory(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "3001", parts[0].BLID)

	parts, err = s.PartsByCategory(ctx, 404, 10)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestMetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := catalog.LastUpdate{Timestamp: 1700000000000, Source: "lcx", Version: "2024.1"}
	require.NoError(t, s.PutMetadata(ctx, catalog.MetaLastUpdate, in))

	var out catalog.LastUpdate
	found, err := s.Metadata(ctx, catalog.MetaLastUpdate, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)

	require.NoError(t, s.DeleteMetadata(ctx, catalog.MetaLastUpdate))
	found, err = s.Metadata(ctx, catalog.MetaLastUpdate, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClearAllKeepsMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	require.NoError(t, s.PutMetadata(ctx, catalog.MetaLastUpdate, catalog.LastUpdate{Timestamp: 1, Source: "lcx"}))
	require.NoError(t, s.ClearAll(ctx))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Counts{}, counts)

	hasData, err := s.HasData(ctx)
	require.NoError(t, err)
	assert.False(t, hasData)

	var lu catalog.LastUpdate
	found, err := s.Metadata(ctx, catalog.MetaLastUpdate, &lu)
	require.NoError(t, err)
	assert.True(t, found)

	// lookups after a clear see an empty store, not an error
	part, err := s.PartByID(ctx, "3001")
	require.NoError(t, err)
	assert.Nil(t, part)
}

func TestMigrateRebuildsColorIndexes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedStore(t, s)

	// Rewind the store to a version 1 layout: drop the color indexes and
	// the version marker, as written before the indexes existed.
	require.NoError(t, s.deletePrefix(ctx, prefixColType))
	require.NoError(t, s.deletePrefix(ctx, prefixColName))
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(metaKey(schemaVersionKey))
	}))

	missing, err := s.ColorByName(ctx, "Black")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, s.migrate())

	color, err := s.ColorByName(ctx, "Black")
	require.NoError(t, err)
	require.NotNil(t, color)
	assert.Equal(t, 11, color.ID)

	version, err := s.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	s := newTestStore(t)

	data, err := json.Marshal(99)
	require.NoError(t, err)
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(schemaVersionKey), data)
	}))

	err = s.migrate()
	require.Error(t, err)
	assert.True(t, errors.IsStoreBlocked(err))
}
