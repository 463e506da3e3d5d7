package lcx

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/brickworks/brickdex/pkg/catalog"
	"github.com/brickworks/brickdex/pkg/errors"
)

// Dataset is a fully parsed and normalized catalog: the four entity
// collections plus the envelope provenance.
type Dataset struct {
	Provenance catalog.Provenance
	Categories []catalog.Category
	Colors     []catalog.Color
	Parts      []catalog.Part
	PartColors []catalog.PartColor

	// HasPartColors distinguishes an absent partColors table from an
	// empty one.
	HasPartColors bool
}

// Stats returns per-table counts plus provenance for this dataset.
func (d *Dataset) Stats() catalog.Stats {
	return catalog.Stats{
		Counts: catalog.Counts{
			Categories: len(d.Categories),
			Colors:     len(d.Colors),
			Parts:      len(d.Parts),
			PartColors: len(d.PartColors),
		},
		Provenance: &d.Provenance,
		Source:     d.Provenance.Source,
		Version:    d.Provenance.Version,
	}
}

// Parser parses LCX-Tabular v1 documents into normalized datasets.
type Parser struct {
	now func() time.Time
}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// Parse parses an LCX payload. When name ends in .gz the payload is
// gunzipped first. Any failure (decompression, JSON syntax, validation) is
// wrapped as a ParseError whose message includes the original error text.
func (p *Parser) Parse(data []byte, name string) (*Dataset, error) {
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		text, err := gunzip(data)
		if err != nil {
			return nil, errors.WrapParse(name, err)
		}
		data = text
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.WrapParse(name, err)
	}

	ds, err := p.Transform(&env)
	if err != nil {
		return nil, errors.WrapParse(name, err)
	}
	return ds, nil
}

// Transform validates an envelope, decodes its tables, and normalizes every
// record into catalog entities.
func (p *Parser) Transform(env *Envelope) (*Dataset, error) {
	if err := ValidateEnvelope(env); err != nil {
		return nil, err
	}

	ds := &Dataset{
		Provenance: catalog.Provenance{
			Source:        env.Source,
			Version:       env.Version,
			SchemaVersion: env.SchemaVersion,
			ParsedAt:      p.now().UTC().Format(time.RFC3339),
		},
	}

	categories, err := DecodeTable(TableCategories, env.Tables[TableCategories])
	if err != nil {
		return nil, err
	}
	ds.Categories = make([]catalog.Category, len(categories))
	for i, rec := range categories {
		ds.Categories[i] = normalizeCategory(rec)
	}

	colors, err := DecodeTable(TableColors, env.Tables[TableColors])
	if err != nil {
		return nil, err
	}
	ds.Colors = make([]catalog.Color, len(colors))
	for i, rec := range colors {
		ds.Colors[i] = normalizeColor(rec)
	}

	parts, err := DecodeTable(TableParts, env.Tables[TableParts])
	if err != nil {
		return nil, err
	}
	ds.Parts = make([]catalog.Part, len(parts))
	for i, rec := range parts {
		ds.Parts[i] = normalizePart(rec)
	}

	if table, ok := env.Tables[TablePartColors]; ok {
		partColors, err := DecodeTable(TablePartColors, table)
		if err != nil {
			return nil, err
		}
		ds.HasPartColors = true
		ds.PartColors = make([]catalog.PartColor, len(partColors))
		for i, rec := range partColors {
			ds.PartColors[i] = normalizePartColor(rec)
		}
	}

	return ds, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
