package mork

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDict_AddEntries(t *testing.T) {
	d := make(Dict)
	d.AddEntries([]string{"(80=DisplayName)", "(81=a=b)", "(82=x$29y)", "(nokey)"})

	v, ok := d.Lookup("80")
	assert.True(t, ok)
	assert.Equal(t, "DisplayName", v)

	v, ok = d.Lookup("81")
	assert.True(t, ok)
	assert.Equal(t, "a=b", v, "split happens at the first '='")

	v, _ = d.Lookup("82")
	assert.Equal(t, "x)y", v)

	_, ok = d.Lookup("nokey")
	assert.False(t, ok)
}

func TestDict_LastWriteWins(t *testing.T) {
	d := make(Dict)
	d.AddEntries([]string{"(80=first)", "(81=other)"})
	d.AddEntries([]string{"(80=second)"})
	d.AddEntries([]string{"(80=third)", "(80=fourth)"})

	v, _ := d.Lookup("80")
	assert.Equal(t, "fourth", v)
	assert.Len(t, d, 2)
}

func TestDict_AddColumnEntries(t *testing.T) {
	tests := []struct {
		name     string
		cells    []string
		expected Dict
	}{
		{
			name:     "drops header cell",
			cells:    []string{"(a=c)", "(80=DisplayName)"},
			expected: Dict{"80": "DisplayName"},
		},
		{
			name:     "drops charset declaration",
			cells:    []string{"(a=c)", "(f=iso-8859-1)", "(80=DisplayName)"},
			expected: Dict{"80": "DisplayName"},
		},
		{
			name:     "charset only dropped directly after header",
			cells:    []string{"(a=c)", "(80=DisplayName)", "(f=x)"},
			expected: Dict{"80": "DisplayName", "f": "x"},
		},
		{
			name:     "empty",
			cells:    nil,
			expected: Dict{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := make(Dict)
			d.addColumnEntries(tt.cells)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestDatabase_ResolveUndefined(t *testing.T) {
	db := NewDatabase()

	_, err := db.column("99")
	var re *ReferenceError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, RefColumn, re.Kind)
	assert.Equal(t, "99", re.ID)

	_, err = db.atom("A1")
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, RefAtom, re.Kind)
}
