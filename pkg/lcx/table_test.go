package lcx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brickerrors "github.com/brickworks/brickdex/pkg/errors"
)

func TestDecodeTable(t *testing.T) {
	table := Table{
		Cols: []string{"id", "name"},
		Rows: [][]any{
			{float64(1), "Brick"},
			{float64(2), "Plate"},
		},
	}

	records, err := DecodeTable("categories", table)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{"id": float64(1), "name": "Brick"}, records[0])
	assert.Equal(t, Record{"id": float64(2), "name": "Plate"}, records[1])
}

func TestDecodeTableRowLengthMismatch(t *testing.T) {
	table := Table{
		Cols: []string{"id", "name"},
		Rows: [][]any{
			{float64(1), "Brick"},
			{float64(2)},
		},
	}

	_, err := DecodeTable("categories", table)
	require.Error(t, err)

	var verr *brickerrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, brickerrors.MalformedTable, verr.Kind)
	assert.Equal(t, "categories", verr.Table)
	assert.Equal(t, 1, verr.Row)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cols := []string{"blId", "name", "catId", "alt"}
	records := []Record{
		{"blId": "3001", "name": "Brick 2 x 4", "catId": float64(5), "alt": []any{"3001a"}},
		{"blId": "3020", "name": "Plate 2 x 4", "catId": float64(9), "alt": nil},
	}

	decoded, err := DecodeTable("parts", EncodeTable(records, cols))
	require.NoError(t, err)
	assert.Equal(t, records, decoded)
}

func TestEncodeTableMissingFieldsBecomeNil(t *testing.T) {
	cols := []string{"id", "name", "extra"}
	table := EncodeTable([]Record{{"id": float64(7), "name": "Tile"}}, cols)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, []any{float64(7), "Tile", nil}, table.Rows[0])
}

func TestIsArchiveName(t *testing.T) {
	cases := map[string]bool{
		"bricklink-catalog.lcx.json":     true,
		"bricklink-catalog.lcx.json.gz":  true,
		"bricklink-catalog.lctx.json":    true,
		"bricklink-catalog.lctx.json.gz": true,
		"Catalog.LCX.JSON":               true,
		"catalog.json":                   false,
		"catalog.csv":                    false,
		"":                               false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsArchiveName(name), "name %q", name)
	}
}
