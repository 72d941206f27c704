// Package flatten projects a parsed Mork database into flat contact records.
//
// Tables are visited in CompareIDs order of their ids and rows in CompareIDs
// order of their "id/scope" keys, so the output order is a pure function of
// the database contents.
package flatten

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/mork/internal/codec"
	"github.com/roach88/mork/internal/mork"
)

// Derived field names added to every record that carries the source column.
const (
	FieldEmail = "email"
	FieldName  = "name"

	ColumnPrimaryEmail = "PrimaryEmail"
	ColumnDisplayName  = "DisplayName"
)

// Record maps column names to decoded values.
type Record map[string]string

// Name returns the derived display name, or "".
func (r Record) Name() string { return r[FieldName] }

// Email returns the derived primary email, or "".
func (r Record) Email() string { return r[FieldEmail] }

// Contains reports whether any value of r contains term.
func (r Record) Contains(term string) bool {
	for _, v := range r {
		if strings.Contains(v, term) {
			return true
		}
	}
	return false
}

// Flatten returns every row of db as a Record, in deterministic order.
// Returns an empty slice (not nil) for an empty database.
func Flatten(db *mork.Database) []Record {
	records := slices.Collect(Records(db))
	if records == nil {
		records = []Record{}
	}
	return records
}

// Records yields the rows of db lazily, in the same order as Flatten.
func Records(db *mork.Database) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, tableID := range SortedKeys(db.Tables) {
			table := db.Tables[tableID]
			for _, rowKey := range SortedKeys(table.Rows) {
				if !yield(project(table.Rows[rowKey])) {
					return
				}
			}
		}
	}
}

// project builds the record for one row. Later cells overwrite earlier ones.
func project(row *mork.Row) Record {
	record := make(Record, len(row.Cells)+2)
	for _, cell := range row.Cells {
		record[cell.Column] = cell.Atom
		switch cell.Column {
		case ColumnPrimaryEmail:
			record[FieldEmail] = codec.EncodeForOutput(cell.Atom)
		case ColumnDisplayName:
			record[FieldName] = codec.EncodeForOutput(cell.Atom)
		}
	}
	return record
}

// SortedKeys returns the keys of m ordered by CompareIDs.
// Keys that compare equal numerically ("0A", "A") keep byte order.
func SortedKeys[V any](m map[string]V) []string {
	keys := slices.Sorted(maps.Keys(m))
	slices.SortStableFunc(keys, CompareIDs)
	return keys
}
