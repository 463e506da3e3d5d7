// Package lcx implements the LCX-Tabular v1 catalog interchange format: a
// JSON envelope of columnar tables, optionally gzip-compressed, used for
// bulk distribution of the BrickLink parts and colors catalog.
package lcx

import (
	"fmt"
	"strings"

	"github.com/brickworks/brickdex/pkg/errors"
)

// Table is the columnar representation of one catalog table: a column name
// list and positional value rows.
type Table struct {
	Cols []string `json:"cols"`
	Rows [][]any  `json:"rows"`
}

// Record is one decoded table row, keyed by column name.
type Record map[string]any

// DecodeTable maps each row of a columnar table positionally onto its column
// list. Every row must have exactly len(cols) values; a mismatch fails with a
// MalformedTable error naming the table and the offending row index.
func DecodeTable(name string, t Table) ([]Record, error) {
	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) != len(t.Cols) {
			return nil, errors.NewMalformedTable(name, i,
				fmt.Sprintf("row has %d values, expected %d", len(row), len(t.Cols)))
		}
		rec := make(Record, len(t.Cols))
		for j, col := range t.Cols {
			rec[col] = row[j]
		}
		records = append(records, rec)
	}
	return records, nil
}

// EncodeTable is the inverse of DecodeTable, substituting nil for fields a
// record does not carry.
func EncodeTable(records []Record, cols []string) Table {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, len(cols))
		for j, col := range cols {
			if v, ok := rec[col]; ok {
				row[j] = v
			}
		}
		rows = append(rows, row)
	}
	return Table{Cols: cols, Rows: rows}
}

// IsArchiveName reports whether a file name follows the LCX naming
// convention (.lcx.json, .lctx.json, optionally gzipped).
func IsArchiveName(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".lcx.json") ||
		strings.HasSuffix(n, ".lcx.json.gz") ||
		strings.HasSuffix(n, ".lctx.json") ||
		strings.HasSuffix(n, ".lctx.json.gz")
}
