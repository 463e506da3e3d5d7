package lcx

import (
	"strconv"
	"strings"

	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/logging"
)

// Pure per-entity transforms from decoded records to normalized catalog
// entities. Each returns a new value; records are never mutated, keeping
// parse deterministic and the transforms testable in isolation.

func normalizeCategory(rec Record) catalog.Category {
	return catalog.Category{
		ID:   toInt(rec["id"], 0),
		Name: toTrimmedString(rec["name"]),
	}
}

func normalizeColor(rec Record) catalog.Color {
	color := catalog.Color{
		ID:       toInt(rec["id"], 0),
		Name:     toTrimmedString(rec["name"]),
		Type:     toTrimmedString(rec["type"]),
		Parts:    toInt(rec["parts"], 0),
		InSets:   toInt(rec["inSets"], 0),
		Wanted:   toInt(rec["wanted"], 0),
		ForSale:  toInt(rec["forSale"], 0),
		YearFrom: toIntOrNil(rec["yearFrom"]),
		YearTo:   toIntOrNil(rec["yearTo"]),
	}

	if raw, ok := rec["rgb"]; ok && raw != nil {
		rgb := catalog.NormalizeRGB(toTrimmedString(raw))
		if rgb == nil {
			logging.Warn().
				Str("color", color.Name).
				Str("rgb", toTrimmedString(raw)).
				Msg("invalid RGB value, coercing to null")
		}
		color.RGB = rgb
	}

	return color
}

func normalizePart(rec Record) catalog.Part {
	blID := toTrimmedString(rec["blId"])
	part := catalog.Part{
		BLID:   blID,
		PartID: blID, // blId doubles as partId for lookup compatibility
		Name:   toTrimmedString(rec["name"]),
		CatID:  toInt(rec["catId"], 0),
	}

	// alt is an array of trimmed non-empty strings, or nil for any other
	// source shape.
	if raw, ok := rec["alt"].([]any); ok {
		alt := make([]string, 0, len(raw))
		for _, v := range raw {
			if id := toTrimmedString(v); id != "" {
				alt = append(alt, id)
			}
		}
		part.Alt = alt
	}

	return part
}

func normalizePartColor(rec Record) catalog.PartColor {
	return catalog.PartColor{
		PartID:  toTrimmedString(rec["partId"]),
		ColorID: toInt(rec["colorId"], 0),
		HasImg:  toBool(rec["hasImg"]),
	}
}

// toTrimmedString renders any scalar as a trimmed string, with nil mapping
// to the empty string.
func toTrimmedString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// toInt coerces JSON numbers and numeric strings to int, falling back to
// def on parse failure.
func toInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

// toIntOrNil coerces to int, mapping null and unparseable values to nil.
func toIntOrNil(v any) *int {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &i
		}
	}
	return nil
}

// toBool applies truthiness casting: false, nil, zero, and the empty string
// are false, everything else true.
func toBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != ""
	default:
		return true
	}
}
