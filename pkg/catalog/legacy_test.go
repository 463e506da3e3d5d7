package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyPartsFixture = "### parts download\n" +
	"### generated for test\n" +
	"category\tname\tid\tdescription\n" +
	"5\tBrick\t3001\tBrick 2 x 4\t3001a\n" +
	"5\tBrick\t3002\tBrick 2 x 3\n" +
	"160\tSticker Sheet\t1234stk01\tSticker Sheet for Set 1234\n" +
	"17\tHomemaker\t211\tHomemaker Bookcase\n" +
	"9\tPlate\t3020\tPlate 2 x 4\n" +
	"9\tPlate\t\tPlate with missing id\n" +
	"\n"

const legacyColorsFixture = "### colors download\n" +
	"### generated for test\n" +
	"id\tname\trgb\ttype\tparts\n" +
	"11\tBlack\t212121\tSolid\t5413\n" +
	"5\tRed\tb30006\tSolid\t3021\n" +
	"0\t(Not Applicable)\t\t\t0\n" +
	"99\tMystery\t\tSolid\t12\n"

func TestParseLegacyParts(t *testing.T) {
	categories, parts := ParseLegacyParts(legacyPartsFixture)

	require.Len(t, parts, 3)
	assert.Equal(t, "3001", parts[0].BLID)
	assert.Equal(t, "3001", parts[0].PartID)
	assert.Equal(t, "Brick 2 x 4", parts[0].Name)
	assert.Equal(t, 5, parts[0].CatID)
	assert.Equal(t, []string{"3001a"}, parts[0].Alt)
	assert.Nil(t, parts[1].Alt)

	// Sticker Sheet and Homemaker rows are dropped and never become categories.
	require.Len(t, categories, 2)
	assert.Equal(t, Category{ID: 5, Name: "Brick"}, categories[0])
	assert.Equal(t, Category{ID: 9, Name: "Plate"}, categories[1])
}

func TestParseLegacyColors(t *testing.T) {
	colors := ParseLegacyColors(legacyColorsFixture)

	require.Len(t, colors, 2)
	assert.Equal(t, 11, colors[0].ID)
	assert.Equal(t, "Black", colors[0].Name)
	require.NotNil(t, colors[0].RGB)
	assert.Equal(t, "212121", *colors[0].RGB)
	assert.Equal(t, 5413, colors[0].Parts)

	// RGB is uppercased during normalization.
	require.NotNil(t, colors[1].RGB)
	assert.Equal(t, "B30006", *colors[1].RGB)
}

func TestNormalizeRGB(t *testing.T) {
	cases := []struct {
		in   string
		want *string
	}{
		{"ff00aa", strPtr("FF00AA")},
		{"FF00AA", strPtr("FF00AA")},
		{"zzzzzz", nil},
		{"12345", nil},
		{"1234567", nil},
		{"", nil},
	}

	for _, tc := range cases {
		got := NormalizeRGB(tc.in)
		if tc.want == nil {
			assert.Nil(t, got, "input %q", tc.in)
		} else {
			require.NotNil(t, got, "input %q", tc.in)
			assert.Equal(t, *tc.want, *got)
		}
	}
}

func strPtr(s string) *string { return &s }
