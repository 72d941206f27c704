package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestImport creates a batch with two contacts and one diagnostic.
func createTestImport(id, source string) Import {
	return Import{
		ID:     id,
		Source: source,
		Contacts: []flatten.Record{
			{"DisplayName": "Alice", "PrimaryEmail": "alice@example.com", "name": "Alice", "email": "alice@example.com"},
			{"DisplayName": "Bob", "PrimaryEmail": "bob@example.org", "name": "Bob", "email": "bob@example.org"},
		},
		Diagnostics: []mork.Diagnostic{
			{Kind: mork.DiagSyntaxNoise, Offset: 3, Message: "syntax error while parsing mork data", Context: "#!?"},
		},
	}
}
