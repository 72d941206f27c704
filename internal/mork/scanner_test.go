package mork

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addressBook = `// <!-- <mdb:mork:z v="1.4"/> -->
< <(a=c)> // (f=iso-8859-1)
  (B8=Custom3)(B9=Custom4)(80=ns:addrbk:db:row:scope:card:all)
  (81=ns:addrbk:db:row:scope:list:all)(82=ns:addrbk:db:row:scope:data:popularity)
  (83=DisplayName)(84=PrimaryEmail)(85=FirstName)(86=LastName)
  (87=ns:addrbk:db:table:kind:pab)(88=LastModifiedDate)>

<(A0=Alice Example)(A1=alice@example.com)(A2=Alice)(A3=Example)
  (A4=Bob)(A5=bob@example.com)(A6=0)>

{1:^80 {(k^87:c)(s=9)}
  [1(^83^A0)(^84^A1)(^85^A2)(^86^A3)(^88^A6)]
  [2(^83^A4)(^84^A5)]}
`

const cardScope = "ns:addrbk:db:row:scope:card:all"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(t *testing.T, data string, opts ...Option) *Result {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	result, err := Parse(data, opts...)
	require.NoError(t, err)
	return result
}

func rowCells(t *testing.T, db *Database, tableID, rowKey string) []Cell {
	t.Helper()
	table, ok := db.Tables[tableID]
	require.True(t, ok, "table %s not found", tableID)
	row, ok := table.Rows[rowKey]
	require.True(t, ok, "row %s not found in table %s", rowKey, tableID)
	return row.Cells
}

func TestParse_FormatMismatch(t *testing.T) {
	_, err := Parse("BEGIN:VCARD\nEND:VCARD", WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrFormatMismatch)
}

func TestParse_MinimalScenario(t *testing.T) {
	input := `<mdb:mork> <(a=c)(80=DisplayName)(81=PrimaryEmail)> <(90=Alice)(91=alice@example.com)> {1:^80 {(k^80:c)(s=9) (80=c)(81=c)} [1:^80 (^80^90)(^81^91)] }`

	result := mustParse(t, input)
	db := result.DB

	assert.Equal(t, Dict{"80": "DisplayName", "81": "PrimaryEmail"}, db.Columns)
	assert.Equal(t, Dict{"90": "Alice", "91": "alice@example.com"}, db.Atoms)

	require.Len(t, db.Tables, 1)
	table := db.Tables["1:80"]
	require.NotNil(t, table)
	assert.Equal(t, "1", table.ID)
	assert.Equal(t, "DisplayName", table.Scope)
	assert.Equal(t, "DisplayName", table.Kind)

	assert.Equal(t, []Cell{
		{Column: "DisplayName", Atom: "Alice"},
		{Column: "PrimaryEmail", Atom: "alice@example.com"},
	}, rowCells(t, db, "1:80", "1/DisplayName"))

	// The bare "<mdb:mork>" marker matches no production.
	assert.Equal(t, len("<mdb:mork>"), result.Count(DiagSyntaxNoise))
}

func TestParse_AddressBook(t *testing.T) {
	result := mustParse(t, addressBook)
	db := result.DB

	assert.Empty(t, result.Diagnostics)
	assert.Len(t, db.Columns, 11)
	_, hasCharset := db.Columns.Lookup("f")
	assert.False(t, hasCharset, "charset declaration must not become a column")
	assert.Len(t, db.Atoms, 7)

	table := db.Tables["1:80"]
	require.NotNil(t, table)
	assert.Equal(t, cardScope, table.Scope)
	assert.Equal(t, "ns:addrbk:db:table:kind:pab", table.Kind)
	assert.Len(t, table.Rows, 2)

	assert.Equal(t, []Cell{
		{Column: "DisplayName", Atom: "Alice Example"},
		{Column: "PrimaryEmail", Atom: "alice@example.com"},
		{Column: "FirstName", Atom: "Alice"},
		{Column: "LastName", Atom: "Example"},
		{Column: "LastModifiedDate", Atom: "0"},
	}, rowCells(t, db, "1:80", "1/"+cardScope))
}

func TestParse_EscapedValues(t *testing.T) {
	input := addressBook + `
<(A7=Smith (Home\))(A8=a$3Eb)>
{1:^80 {(k^87:c)(s=9)}
  [3(^83^A7)(^84=x]y@example.com)(^85=Line1\\nLine2)]}`

	result := mustParse(t, input)
	assert.Empty(t, result.Diagnostics)

	assert.Equal(t, "a>b", result.DB.Atoms["A8"])
	assert.Equal(t, []Cell{
		{Column: "DisplayName", Atom: "Smith (Home)"},
		{Column: "PrimaryEmail", Atom: "x]y@example.com"},
		{Column: "FirstName", Atom: "Line1\nLine2"},
	}, rowCells(t, result.DB, "1:80", "3/"+cardScope))
}

func TestParse_Transaction(t *testing.T) {
	input := addressBook + `
@$${2{@
{1:^80 {(k^87:c)(s=9)}
  [-1(^83=Alice Renamed)(^84^A1)]
  -[2]}
[3(^83=Carol)]
@$$}2}@
`
	result := mustParse(t, input)
	db := result.DB

	table := db.Tables["1:80"]
	require.NotNil(t, table)
	assert.Len(t, table.Rows, 2)

	assert.Equal(t, []Cell{
		{Column: "DisplayName", Atom: "Alice Renamed"},
		{Column: "PrimaryEmail", Atom: "alice@example.com"},
	}, rowCells(t, db, "1:80", "1/"+cardScope), "replaced row keeps only its new cells")

	assert.NotContains(t, table.Rows, "2/"+cardScope, "cut production deletes the row")

	assert.Equal(t, []Cell{{Column: "DisplayName", Atom: "Carol"}}, rowCells(t, db, "1:80", "3/"+cardScope))
	assert.Equal(t, 1, result.Count(DiagDanglingRow))
	assert.Zero(t, result.Count(DiagDuplicateRowKey))
	assert.Zero(t, result.Count(DiagSyntaxNoise))
}

func TestParse_AddThenDeleteInTransaction(t *testing.T) {
	input := addressBook + `
@$${2{@
{1:^80 {(k^87:c)(s=9)}
  [4(^83=Dave)]
  -[4]}
@$$}2}@
`
	result := mustParse(t, input)
	assert.NotContains(t, result.DB.Tables["1:80"].Rows, "4/"+cardScope)
}

func TestParse_DeleteThenAddInTransaction(t *testing.T) {
	input := addressBook + `
@$${2{@
{1:^80 {(k^87:c)(s=9)}
  -[1]
  [1(^83=Alice Again)]}
@$$}2}@
`
	result := mustParse(t, input)
	assert.Equal(t, []Cell{{Column: "DisplayName", Atom: "Alice Again"}}, rowCells(t, result.DB, "1:80", "1/"+cardScope))
	assert.Zero(t, result.Count(DiagDuplicateRowKey), "row was deleted before the re-add")
}

func TestParse_MinusOutsideTransactionIsPartOfID(t *testing.T) {
	input := addressBook + `
{1:^80 {(k^87:c)(s=9)}
  [-5(^83=Eve)]}
`
	result := mustParse(t, input)
	assert.Contains(t, result.DB.Tables["1:80"].Rows, "-5/"+cardScope)
}

func TestParse_DanglingRowOutsideTransactionIsNoise(t *testing.T) {
	input := addressBook + `[9(^83=Zed)]`

	result := mustParse(t, input)
	assert.NotContains(t, result.DB.Tables["1:80"].Rows, "9/"+cardScope)
	assert.Equal(t, len(`[9(^83=Zed)]`), result.Count(DiagSyntaxNoise))
	assert.Zero(t, result.Count(DiagDanglingRow))
}

func TestParse_DanglingRowCreatesFallbackTable(t *testing.T) {
	input := `// <mdb:mork>
<(a=c)(80=ns:addrbk:db:row:scope:card:all)(81=DisplayName)>
@$${1{@[1(^81=Solo)]@$$}1}@`

	result := mustParse(t, input)
	table := result.DB.Tables[FallbackTableID]
	require.NotNil(t, table)
	assert.Equal(t, "1", table.ID)
	assert.Equal(t, []Cell{{Column: "DisplayName", Atom: "Solo"}}, rowCells(t, result.DB, FallbackTableID, "1/"+cardScope))
}

func TestParse_DuplicateRowKey(t *testing.T) {
	input := addressBook + `
{1:^80 {(k^87:c)(s=9)}
  [2(^83=Bob Two)]}
`
	var logs bytes.Buffer
	result, err := Parse(input, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count(DiagDuplicateRowKey))
	assert.Equal(t, []Cell{{Column: "DisplayName", Atom: "Bob Two"}}, rowCells(t, result.DB, "1:80", "2/"+cardScope))
	assert.Contains(t, logs.String(), "duplicate rowid/scope 2/"+cardScope)
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestParse_ReferenceError_FailFast(t *testing.T) {
	input := addressBook + `
{1:^80 {(k^87:c)(s=9)}
  [3(^83=Carol)]
  [4(^83^FF)]
  [5(^83=Erin)]}
`
	result, err := Parse(input, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.Nil(t, result, "no partial database on fatal errors")

	var re *ReferenceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, RefAtom, re.Kind)
	assert.Equal(t, "FF", re.ID)
	assert.Equal(t, "row 4", re.Construct)
	assert.True(t, IsReferenceError(err))
}

func TestParse_ReferenceError_CollectAll(t *testing.T) {
	input := addressBook + `
{1:^80 {(k^87:c)(s=9)}
  [3(^83=Carol)]
  [4(^83^FF)]
  [5(^83=Erin)]}
{2:^EE {(k^87:c)(s=9)}
  [1(^83=Ghost)]}
`
	result := mustParse(t, input, WithReferenceMode(RefCollectAll))
	rows := result.DB.Tables["1:80"].Rows

	assert.Contains(t, rows, "3/"+cardScope)
	assert.NotContains(t, rows, "4/"+cardScope)
	assert.Contains(t, rows, "5/"+cardScope)
	assert.NotContains(t, result.DB.Tables, "2:EE", "table with undefined scope is skipped")
	assert.Equal(t, 2, result.Count(DiagReference))
}

func TestParse_SyntaxNoiseRecovers(t *testing.T) {
	input := addressBook + `
#!?
{1:^80 {(k^87:c)(s=9)}
  [3(^83=Carol)]}
`
	var logs bytes.Buffer
	result, err := Parse(input, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Count(DiagSyntaxNoise))
	assert.Contains(t, result.DB.Tables["1:80"].Rows, "3/"+cardScope)

	first := result.Diagnostics[0]
	assert.Equal(t, DiagSyntaxNoise, first.Kind)
	assert.Equal(t, "#!?{1:^80 {(k^87:c)(s=9)}[3(^83=Carol)]}", first.Context)
	assert.Contains(t, logs.String(), "level=ERROR")
}

func TestParse_SyntaxNoiseContextIsTruncated(t *testing.T) {
	input := "<mdb:mork>" + string(bytes.Repeat([]byte("x"), 100))
	result := mustParse(t, input)

	require.NotEmpty(t, result.Diagnostics)
	assert.Len(t, result.Diagnostics[0].Context, contextLen)
	assert.Equal(t, 0, result.Diagnostics[0].Offset)
	assert.Equal(t, 1, result.Diagnostics[1].Offset)
}

func TestParse_AtomDictionaryLastWriteWins(t *testing.T) {
	input := addressBook + `<(A0=Alice Override)>
{1:^80 {(k^87:c)(s=9)}
  [7(^83^A0)]}
`
	result := mustParse(t, input)
	assert.Equal(t, "Alice Override", result.DB.Atoms["A0"])
	assert.Equal(t, []Cell{{Column: "DisplayName", Atom: "Alice Override"}}, rowCells(t, result.DB, "1:80", "7/"+cardScope))
	assert.Equal(t, []Cell{
		{Column: "DisplayName", Atom: "Alice Example"},
		{Column: "PrimaryEmail", Atom: "alice@example.com"},
		{Column: "FirstName", Atom: "Alice"},
		{Column: "LastName", Atom: "Example"},
		{Column: "LastModifiedDate", Atom: "0"},
	}, rowCells(t, result.DB, "1:80", "1/"+cardScope), "rows keep values resolved at scan time")
}

func TestParse_EmptyTableBody(t *testing.T) {
	input := addressBook + `{3:^80 {(k^87:c)(s=9)}}`
	result := mustParse(t, input)

	table := result.DB.Tables["3:80"]
	require.NotNil(t, table)
	assert.Empty(t, table.Rows)
	assert.Zero(t, result.Count(DiagSyntaxNoise))
}
