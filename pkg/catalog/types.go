// Package catalog defines the BrickLink catalog domain model, the store
// abstraction the load pipeline persists into, and the progress event
// protocol reported during loads.
package catalog

import (
	"regexp"
	"strings"
)

// Category is a BrickLink part category. Identity is the numeric id.
// Categories are immutable once stored and replaced wholesale on reload.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Color is a BrickLink color. Identity is the numeric id. RGB is nil when the
// source value is absent or not a valid 6-digit uppercase hex string.
type Color struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	RGB      *string `json:"rgb"`
	Type     string  `json:"type"`
	Parts    int     `json:"parts"`
	InSets   int     `json:"inSets"`
	Wanted   int     `json:"wanted"`
	ForSale  int     `json:"forSale"`
	YearFrom *int    `json:"yearFrom"`
	YearTo   *int    `json:"yearTo"`
}

// Part is a BrickLink part. Identity is BLID, the primary catalog identifier;
// PartID mirrors BLID for compatibility with lookup APIs. Alt holds alternate
// ids and is nil when the source value is not an array.
type Part struct {
	BLID   string   `json:"blId"`
	PartID string   `json:"partId"`
	Name   string   `json:"name"`
	CatID  int      `json:"catId"`
	Alt    []string `json:"alt"`
}

// PartColor records that a specific color variant of a part is known to the
// catalog, and whether imagery exists for it. Composite identity is
// (PartID, ColorID).
type PartColor struct {
	PartID  string `json:"partId"`
	ColorID int    `json:"colorId"`
	HasImg  bool   `json:"hasImg"`
}

// LastUpdate records when and from where the store was last populated.
type LastUpdate struct {
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
	Source    string `json:"source"`    // "lcx" or "legacy"
	Version   string `json:"version"`
}

// Provenance caches the envelope metadata of the last parsed catalog archive.
type Provenance struct {
	Source        string `json:"source"`
	Version       string `json:"version"`
	SchemaVersion int    `json:"schemaVersion"`
	ParsedAt      string `json:"parsedAt"` // RFC 3339
}

// Metadata keys used in the store's metadata collection.
const (
	MetaLastUpdate = "lastUpdate"
	MetaProvenance = "lcxMetadata"
)

// Counts holds per-collection record counts.
type Counts struct {
	Categories int `json:"categories"`
	Colors     int `json:"colors"`
	Parts      int `json:"parts"`
	PartColors int `json:"partColors"`
}

// Stats summarizes the store contents and provenance.
type Stats struct {
	Counts
	LastUpdate *LastUpdate `json:"lastUpdate,omitempty"`
	Provenance *Provenance `json:"lcxMetadata,omitempty"`
	Source     string      `json:"source"`
	Version    string      `json:"version"`
}

// PartMatch is a part search result shaped for autocomplete consumers.
type PartMatch struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Part     Part   `json:"data"`
}

// ColorMatch is a color search result shaped for autocomplete consumers.
type ColorMatch struct {
	Value string  `json:"value"`
	Label string  `json:"label"`
	RGB   *string `json:"rgb"`
	Type  string  `json:"type"`
	Color Color   `json:"data"`
}

var rgbPattern = regexp.MustCompile(`^[0-9A-F]{6}$`)

// NormalizeRGB uppercases a candidate RGB value and validates it as a
// 6-digit hex string. Invalid or empty values normalize to nil rather than
// failing the record.
func NormalizeRGB(raw string) *string {
	rgb := strings.ToUpper(strings.TrimSpace(raw))
	if !rgbPattern.MatchString(rgb) {
		return nil
	}
	return &rgb
}
