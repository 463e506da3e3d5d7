package lcx

import (
	"fmt"

	"github.com/brickworks/brickdex/pkg/errors"
)

// SupportedSchemaVersion is the only LCX-Tabular schema version this parser
// accepts.
const SupportedSchemaVersion = 1

// Envelope is the root of an LCX-Tabular document.
type Envelope struct {
	SchemaVersion int              `json:"schemaVersion"`
	Source        string           `json:"source"`
	Version       string           `json:"version"`
	Tables        map[string]Table `json:"tables"`
}

// Table names.
const (
	TableCategories = "categories"
	TableColors     = "colors"
	TableParts      = "parts"
	TablePartColors = "partColors"
)

var requiredTables = []string{TableCategories, TableColors, TableParts}

var optionalTables = []string{TablePartColors}

// expectedColumns is the order-sensitive column list for each known table.
// Tables with unknown names are ignored for forward compatibility.
var expectedColumns = map[string][]string{
	TableCategories: {"id", "name"},
	TableColors:     {"id", "name", "rgb", "type", "parts", "inSets", "wanted", "forSale", "yearFrom", "yearTo"},
	TableParts:      {"blId", "name", "catId", "alt"},
	TablePartColors: {"partId", "colorId", "hasImg"},
}

// ValidateEnvelope checks an envelope's structure before decoding: schema
// version, required metadata fields, presence of required tables, per-table
// shape, and exact column lists for known tables.
func ValidateEnvelope(env *Envelope) error {
	if env.SchemaVersion != SupportedSchemaVersion {
		return errors.NewUnsupportedSchema(env.SchemaVersion, SupportedSchemaVersion)
	}
	if env.Source == "" {
		return errors.NewMissingField("source")
	}
	if env.Version == "" {
		return errors.NewMissingField("version")
	}
	if env.Tables == nil {
		return errors.NewMissingField("tables")
	}

	for _, name := range requiredTables {
		table, ok := env.Tables[name]
		if !ok {
			return errors.NewMissingTable(name)
		}
		if err := validateTable(name, table); err != nil {
			return err
		}
	}

	for _, name := range optionalTables {
		if table, ok := env.Tables[name]; ok {
			if err := validateTable(name, table); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateTable(name string, t Table) error {
	if t.Cols == nil {
		return errors.NewMalformedTable(name, -1, `missing or invalid "cols"`)
	}
	if t.Rows == nil {
		return errors.NewMalformedTable(name, -1, `missing or invalid "rows"`)
	}

	for i, row := range t.Rows {
		if row == nil {
			return errors.NewMalformedTable(name, i, "row must be an array")
		}
		if len(row) != len(t.Cols) {
			return errors.NewMalformedTable(name, i,
				fmt.Sprintf("row has %d values, expected %d", len(row), len(t.Cols)))
		}
	}

	if want, known := expectedColumns[name]; known && !columnsEqual(t.Cols, want) {
		return errors.NewSchemaMismatch(name, want, t.Cols)
	}

	return nil
}

func columnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
