package mork

import (
	"strings"

	"github.com/roach88/mork/internal/codec"
)

// Dict interns short ids to decoded strings.
type Dict map[string]string

// AddEntries inserts raw "(id=value)" cells into d.
//
// Each cell is split at the first '=' and the value is decoded with
// codec.UnescapeCell. Later entries overwrite earlier ones. Cells without an
// '=' are ignored.
func (d Dict) AddEntries(cells []string) {
	for _, cell := range cells {
		inner := trimParens(cell)
		eq := strings.IndexByte(inner, '=')
		if eq < 0 {
			continue
		}
		d[inner[:eq]] = codec.UnescapeCell(inner[eq+1:])
	}
}

// Lookup returns the value interned under id.
func (d Dict) Lookup(id string) (string, bool) {
	v, ok := d[id]
	return v, ok
}

// addColumnEntries feeds the cells of a column dictionary block into d.
// The leading "(a=c)" header cell is dropped, as is an "(f=...)" charset
// declaration directly after it.
func (d Dict) addColumnEntries(cells []string) {
	if len(cells) == 0 {
		return
	}
	cells = cells[1:]
	if len(cells) > 0 && strings.HasPrefix(cells[0], "(f=") {
		cells = cells[1:]
	}
	d.AddEntries(cells)
}

func trimParens(cell string) string {
	cell = strings.TrimPrefix(cell, "(")
	return strings.TrimSuffix(cell, ")")
}

// column resolves a column id or returns a *ReferenceError.
func (db *Database) column(id string) (string, error) {
	name, ok := db.Columns.Lookup(id)
	if !ok {
		return "", &ReferenceError{Kind: RefColumn, ID: id}
	}
	return name, nil
}

// atom resolves an atom id or returns a *ReferenceError.
func (db *Database) atom(id string) (string, error) {
	value, ok := db.Atoms.Lookup(id)
	if !ok {
		return "", &ReferenceError{Kind: RefAtom, ID: id}
	}
	return value, nil
}
