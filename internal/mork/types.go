package mork

// Database is the root of a parsed Mork file.
//
// Columns and Atoms are owned by the database; nothing in this package keeps
// process-wide dictionaries.
type Database struct {
	// Columns maps short column ids to column names (e.g. "81" -> "PrimaryEmail").
	Columns Dict

	// Atoms maps short atom ids to decoded values.
	Atoms Dict

	// Tables is keyed by the composite table id "namespace:scope-id".
	Tables map[string]*Table
}

// NewDatabase creates an empty database.
func NewDatabase() *Database {
	return &Database{
		Columns: make(Dict),
		Atoms:   make(Dict),
		Tables:  make(map[string]*Table),
	}
}

// RowCount returns the number of rows across all tables.
func (db *Database) RowCount() int {
	n := 0
	for _, t := range db.Tables {
		n += len(t.Rows)
	}
	return n
}

// Table groups rows sharing a scope and kind.
type Table struct {
	// ID is the table's namespace id (the "1" in "1:^80").
	ID string

	// Scope is the resolved column name of the table's scope id.
	Scope string

	// Kind is the resolved column name of the table's kind id.
	Kind string

	// Rows is keyed by "rowID/scope".
	Rows map[string]*Row
}

func newTable(id, scope, kind string) *Table {
	return &Table{
		ID:    id,
		Scope: scope,
		Kind:  kind,
		Rows:  make(map[string]*Row),
	}
}

// rowKey returns the composite key for a row id and optional scope.
// An empty scope falls back to the table's own scope.
func (t *Table) rowKey(id, scope string) string {
	if scope == "" {
		scope = t.Scope
	}
	return id + "/" + scope
}

// Row is an ordered list of cells.
//
// Cells are kept in file order and are not deduplicated; a later cell with the
// same column wins when the row is flattened.
type Row struct {
	ID    string
	Scope string // empty means the owning table's scope
	Cells []Cell
}

// Cell is a resolved (column, value) pair.
type Cell struct {
	Column string
	Atom   string
}
