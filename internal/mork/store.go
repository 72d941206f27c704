package mork

import (
	"regexp"
	"strings"

	"github.com/roach88/mork/internal/codec"
)

// FallbackTableID receives rows that appear outside any table block while a
// transaction is open.
const FallbackTableID = "1:80"

var (
	cellTextPattern = regexp.MustCompile(`^\^(.+?)=(.*)`)
	cellOIDPattern  = regexp.MustCompile(`^\^(.+?)\^(.+)`)
)

// AddRow builds a row from raw "(...)" cells and stores it in t.
//
// rawRowID is "id", "id:^SS" (scope named by column id SS) or "id:scope".
// Cells that match neither the "^col=text" nor the "^col^atom" shape, or that
// resolve to an empty column or value, are dropped. Any undefined id aborts the
// row with a *ReferenceError and leaves t untouched.
//
// replaced reports whether an existing row with the same key was overwritten.
func (db *Database) AddRow(t *Table, rawRowID string, rawCells []string) (row *Row, replaced bool, err error) {
	id, scope, err := db.rowIDScope(rawRowID)
	if err != nil {
		return nil, false, err
	}

	row = &Row{ID: id, Scope: scope}
	for _, raw := range rawCells {
		cell, ok, err := db.resolveCell(raw)
		if err != nil {
			return nil, false, err
		}
		if ok {
			row.Cells = append(row.Cells, cell)
		}
	}

	key := t.rowKey(id, scope)
	_, replaced = t.Rows[key]
	t.Rows[key] = row
	return row, replaced, nil
}

// DeleteRow removes the row named by rawRowID from t.
// Deleting an absent row is a no-op and returns false.
func (db *Database) DeleteRow(t *Table, rawRowID string) (bool, error) {
	id, scope, err := db.rowIDScope(rawRowID)
	if err != nil {
		return false, err
	}
	key := t.rowKey(id, scope)
	if _, ok := t.Rows[key]; !ok {
		return false, nil
	}
	delete(t.Rows, key)
	return true, nil
}

// RowKey returns the key rawRowID is stored under in t.
func (db *Database) RowKey(t *Table, rawRowID string) (string, error) {
	id, scope, err := db.rowIDScope(rawRowID)
	if err != nil {
		return "", err
	}
	return t.rowKey(id, scope), nil
}

// rowIDScope splits a raw row id into its id and scope.
// A scope written as "^SS" is resolved through the column dictionary; any
// other text after ':' is taken literally. No ':' means no explicit scope.
func (db *Database) rowIDScope(raw string) (id, scope string, err error) {
	raw = strings.TrimSpace(raw)
	idx := strings.IndexByte(raw, ':')
	if idx <= 0 {
		return raw, "", nil
	}
	id, scope = raw[:idx], raw[idx+1:]
	if strings.HasPrefix(scope, "^") {
		scope, err = db.column(scope[1:])
		if err != nil {
			return "", "", err
		}
	}
	return id, scope, nil
}

// resolveCell turns a raw "(...)" cell into a Cell.
// ok is false when the cell is dropped without error.
func (db *Database) resolveCell(raw string) (cell Cell, ok bool, err error) {
	inner := trimParens(raw)

	if m := cellTextPattern.FindStringSubmatch(inner); m != nil {
		if cell.Column, err = db.column(m[1]); err != nil {
			return Cell{}, false, err
		}
		cell.Atom = codec.UnescapeCell(m[2])
	} else if m := cellOIDPattern.FindStringSubmatch(inner); m != nil {
		if cell.Column, err = db.column(m[1]); err != nil {
			return Cell{}, false, err
		}
		if cell.Atom, err = db.atom(m[2]); err != nil {
			return Cell{}, false, err
		}
	}

	if cell.Column == "" || cell.Atom == "" {
		return Cell{}, false, nil
	}
	return cell, true, nil
}

// table returns the table for namespace ns and scope id scopeID, creating it
// on first use. The table's scope and kind are resolved only at creation.
func (db *Database) table(ns, scopeID, kindID string) (*Table, error) {
	key := ns + ":" + scopeID
	if t, ok := db.Tables[key]; ok {
		return t, nil
	}

	scope, err := db.column(scopeID)
	if err != nil {
		return nil, err
	}
	kind, err := db.column(kindID)
	if err != nil {
		return nil, err
	}

	t := newTable(ns, scope, kind)
	db.Tables[key] = t
	return t, nil
}

// fallbackTable returns the table dangling rows are applied to.
// If no block declared it, it is created with scope column 80 and no kind.
func (db *Database) fallbackTable() (*Table, error) {
	if t, ok := db.Tables[FallbackTableID]; ok {
		return t, nil
	}
	ns, scopeID, _ := strings.Cut(FallbackTableID, ":")
	scope, err := db.column(scopeID)
	if err != nil {
		return nil, err
	}
	t := newTable(ns, scope, "")
	db.Tables[FallbackTableID] = t
	return t, nil
}
