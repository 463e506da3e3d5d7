package lcx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brickerrors "github.com/brickworks/brickdex/pkg/errors"
)

func marshalEnvelope(t *testing.T, env *Envelope) []byte {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return data
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParsePlainJSON(t *testing.T) {
	ds, err := NewParser().Parse(marshalEnvelope(t, validEnvelope()), "catalog.lcx.json")
	require.NoError(t, err)

	assert.Equal(t, "bricklink", ds.Provenance.Source)
	assert.Equal(t, "2025-08", ds.Provenance.Version)
	assert.Equal(t, 1, ds.Provenance.SchemaVersion)
	assert.NotEmpty(t, ds.Provenance.ParsedAt)

	require.Len(t, ds.Categories, 1)
	assert.Equal(t, 5, ds.Categories[0].ID)
	assert.Equal(t, "Brick", ds.Categories[0].Name)

	require.Len(t, ds.Parts, 1)
	assert.Equal(t, "3001", ds.Parts[0].BLID)
	assert.Equal(t, "3001", ds.Parts[0].PartID)

	require.True(t, ds.HasPartColors)
	require.Len(t, ds.PartColors, 1)
	assert.True(t, ds.PartColors[0].HasImg)

	stats := ds.Stats()
	assert.Equal(t, 1, stats.Categories)
	assert.Equal(t, 1, stats.Colors)
	assert.Equal(t, 1, stats.Parts)
	assert.Equal(t, 1, stats.PartColors)
	assert.Equal(t, "bricklink", stats.Source)
}

func TestParseGzipped(t *testing.T) {
	payload := gzipBytes(t, marshalEnvelope(t, validEnvelope()))

	ds, err := NewParser().Parse(payload, "catalog.lcx.json.gz")
	require.NoError(t, err)
	assert.Len(t, ds.Parts, 1)
}

func TestParseBadGzip(t *testing.T) {
	_, err := NewParser().Parse([]byte("not gzip at all"), "catalog.lcx.json.gz")
	require.Error(t, err)
	assert.True(t, brickerrors.IsParse(err))
}

func TestParseInvalidJSONIncludesCause(t *testing.T) {
	_, err := NewParser().Parse([]byte(`{"schemaVersion": 1,`), "catalog.lcx.json")
	require.Error(t, err)
	assert.True(t, brickerrors.IsParse(err))
	// the underlying JSON error text must survive into the message
	assert.Contains(t, err.Error(), "JSON")
}

func TestParseValidationFailureWrapped(t *testing.T) {
	env := validEnvelope()
	delete(env.Tables, TableParts)

	_, err := NewParser().Parse(marshalEnvelope(t, env), "catalog.lcx.json")
	require.Error(t, err)
	assert.True(t, brickerrors.IsParse(err))
	assert.True(t, brickerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "parts")
}

func TestColorNormalization(t *testing.T) {
	env := validEnvelope()
	env.Tables[TableColors] = Table{
		Cols: expectedColumns[TableColors],
		Rows: [][]any{
			{float64(5), " Red ", "ff00aa", "Solid", "3021", float64(1), float64(2), float64(3), float64(1957), nil},
			{float64(99), "Mystery", "zzzzzz", "Solid", nil, nil, nil, nil, nil, nil},
			{float64(42), "NoRGB", nil, "Solid", float64(7), float64(0), float64(0), float64(0), nil, float64(2001)},
		},
	}

	ds, err := NewParser().Parse(marshalEnvelope(t, env), "catalog.lcx.json")
	require.NoError(t, err)
	require.Len(t, ds.Colors, 3)

	red := ds.Colors[0]
	assert.Equal(t, "Red", red.Name)
	require.NotNil(t, red.RGB)
	assert.Equal(t, "FF00AA", *red.RGB)
	assert.Equal(t, 3021, red.Parts, "numeric strings are coerced")
	require.NotNil(t, red.YearFrom)
	assert.Equal(t, 1957, *red.YearFrom)
	assert.Nil(t, red.YearTo)

	mystery := ds.Colors[1]
	assert.Nil(t, mystery.RGB, "invalid hex coerces to null")
	assert.Equal(t, 0, mystery.Parts, "unparseable counts default to 0")

	noRGB := ds.Colors[2]
	assert.Nil(t, noRGB.RGB)
	require.NotNil(t, noRGB.YearTo)
	assert.Equal(t, 2001, *noRGB.YearTo)
}

func TestPartAltNormalization(t *testing.T) {
	env := validEnvelope()
	env.Tables[TableParts] = Table{
		Cols: expectedColumns[TableParts],
		Rows: [][]any{
			{"3001", "Brick 2 x 4", float64(5), []any{"  3001a ", ""}},
			{"3002", "Brick 2 x 3", float64(5), "not-an-array"},
			{"3003", "Brick 2 x 2", float64(5), nil},
		},
	}

	ds, err := NewParser().Parse(marshalEnvelope(t, env), "catalog.lcx.json")
	require.NoError(t, err)
	require.Len(t, ds.Parts, 3)

	assert.Equal(t, []string{"3001a"}, ds.Parts[0].Alt, "trimmed, empties dropped")
	assert.Nil(t, ds.Parts[1].Alt, "non-array coerces to null")
	assert.Nil(t, ds.Parts[2].Alt)
}

func TestPartColorNormalization(t *testing.T) {
	env := validEnvelope()
	env.Tables[TablePartColors] = Table{
		Cols: expectedColumns[TablePartColors],
		Rows: [][]any{
			{" 3001 ", "11", float64(1)},
			{"3002", float64(5), false},
		},
	}

	ds, err := NewParser().Parse(marshalEnvelope(t, env), "catalog.lcx.json")
	require.NoError(t, err)
	require.Len(t, ds.PartColors, 2)

	assert.Equal(t, "3001", ds.PartColors[0].PartID)
	assert.Equal(t, 11, ds.PartColors[0].ColorID)
	assert.True(t, ds.PartColors[0].HasImg)
	assert.False(t, ds.PartColors[1].HasImg)
}

func TestParseNoPartColorsTable(t *testing.T) {
	env := validEnvelope()
	delete(env.Tables, TablePartColors)

	ds, err := NewParser().Parse(marshalEnvelope(t, env), "catalog.lcx.json")
	require.NoError(t, err)
	assert.False(t, ds.HasPartColors)
	assert.Empty(t, ds.PartColors)
}
