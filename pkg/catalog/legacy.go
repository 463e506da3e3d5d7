package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// legacyHeaderLines is the number of banner lines preceding data rows in the
// legacy tab-separated catalog downloads.
const legacyHeaderLines = 3

// legacySkipCategories are categories dropped during legacy ingestion.
var legacySkipCategories = map[string]bool{
	"Sticker Sheet": true,
	"Homemaker":     true,
}

// ParseLegacyParts parses the legacy tab-separated parts download. Columns
// are positional: categoryId, categoryName, partId, name, and an optional
// alternate id. Rows in skipped categories or missing an id or name are
// dropped. Categories are derived from the unique (categoryId, categoryName)
// pairs so the normalized store schema stays uniform with LCX loads.
func ParseLegacyParts(text string) ([]Category, []Part) {
	lines := strings.Split(text, "\n")
	seen := make(map[int]string)
	var parts []Part

	for i := legacyHeaderLines; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		values := strings.Split(line, "\t")
		if len(values) < 4 {
			continue
		}

		catName := strings.TrimSpace(values[1])
		if legacySkipCategories[catName] {
			continue
		}

		partID := strings.TrimSpace(values[2])
		name := strings.TrimSpace(values[3])
		if partID == "" || name == "" {
			continue
		}

		catID, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			continue
		}
		if catName != "" {
			seen[catID] = catName
		}

		var alt []string
		if len(values) > 4 {
			if altID := strings.TrimSpace(values[4]); altID != "" {
				alt = []string{altID}
			}
		}

		parts = append(parts, Part{
			BLID:   partID,
			PartID: partID,
			Name:   name,
			CatID:  catID,
			Alt:    alt,
		})
	}

	categories := make([]Category, 0, len(seen))
	for id, name := range seen {
		categories = append(categories, Category{ID: id, Name: name})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })

	return categories, parts
}

// ParseLegacyColors parses the legacy tab-separated colors download. Columns
// are positional: id, name, rgb, type, partsCount. Rows missing a name or
// RGB value, or carrying the "(Not Applicable)" placeholder, are dropped.
func ParseLegacyColors(text string) []Color {
	lines := strings.Split(text, "\n")
	var colors []Color

	for i := legacyHeaderLines; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		values := strings.Split(line, "\t")
		if len(values) < 5 {
			continue
		}

		name := strings.TrimSpace(values[1])
		rawRGB := strings.TrimSpace(values[2])
		if name == "" || name == "(Not Applicable)" || rawRGB == "" {
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			continue
		}

		partsCount, _ := strconv.Atoi(strings.TrimSpace(values[4]))

		colors = append(colors, Color{
			ID:    id,
			Name:  name,
			RGB:   NormalizeRGB(rawRGB),
			Type:  strings.TrimSpace(values[3]),
			Parts: partsCount,
		})
	}

	return colors
}
