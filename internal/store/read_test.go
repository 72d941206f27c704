package store

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
)

func TestListImports_Empty(t *testing.T) {
	s := createTestStore(t)

	imports, err := s.ListImports(context.Background())
	if err != nil {
		t.Fatalf("ListImports() failed: %v", err)
	}
	if imports == nil {
		t.Error("imports is nil, want empty slice")
	}
	if len(imports) != 0 {
		t.Errorf("len(imports) = %d, want 0", len(imports))
	}
}

func TestListImports_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mid"} {
		if _, _, err := s.WriteImport(ctx, createTestImport(id, id+".mab")); err != nil {
			t.Fatalf("WriteImport(%s) failed: %v", id, err)
		}
	}

	imports, err := s.ListImports(ctx)
	if err != nil {
		t.Fatalf("ListImports() failed: %v", err)
	}

	var ids []string
	for _, imp := range imports {
		ids = append(ids, imp.ID)
	}
	want := []string{"zeta", "alpha", "mid"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v (write order, not id order)", ids, want)
	}
	if imports[0].RecordCount != 2 || imports[0].DiagnosticCount != 1 {
		t.Errorf("counts = (%d, %d), want (2, 1)", imports[0].RecordCount, imports[0].DiagnosticCount)
	}
}

func TestReadImport_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadImport(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestReadContacts_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	imp := createTestImport("batch-1", "abook.mab")

	if _, _, err := s.WriteImport(ctx, imp); err != nil {
		t.Fatalf("WriteImport() failed: %v", err)
	}

	contacts, err := s.ReadContacts(ctx, "batch-1")
	if err != nil {
		t.Fatalf("ReadContacts() failed: %v", err)
	}
	if len(contacts) != len(imp.Contacts) {
		t.Fatalf("len(contacts) = %d, want %d", len(contacts), len(imp.Contacts))
	}
	for i, c := range contacts {
		if c.Position != i {
			t.Errorf("contacts[%d].Position = %d", i, c.Position)
		}
		if c.ImportID != "batch-1" {
			t.Errorf("contacts[%d].ImportID = %q", i, c.ImportID)
		}
		if !reflect.DeepEqual(c.Record, imp.Contacts[i]) {
			t.Errorf("contacts[%d].Record = %v, want %v", i, c.Record, imp.Contacts[i])
		}
	}
}

func TestReadContacts_UnknownBatch(t *testing.T) {
	s := createTestStore(t)

	contacts, err := s.ReadContacts(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ReadContacts() failed: %v", err)
	}
	if contacts == nil || len(contacts) != 0 {
		t.Errorf("contacts = %v, want empty slice", contacts)
	}
}

func TestReadContacts_Latin1Decoded(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	imp := Import{
		ID:       "latin1",
		Source:   "old.mab",
		Contacts: []flatten.Record{{"DisplayName": "Jos\xe9"}},
	}
	if _, _, err := s.WriteImport(ctx, imp); err != nil {
		t.Fatalf("WriteImport() failed: %v", err)
	}

	contacts, err := s.ReadContacts(ctx, "latin1")
	if err != nil {
		t.Fatalf("ReadContacts() failed: %v", err)
	}
	if got := contacts[0].Record["DisplayName"]; got != "Jos\xc3\xa9" {
		t.Errorf("DisplayName = %q, want %q", got, "Jos\xc3\xa9")
	}
}

func TestSearchContacts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, _, err := s.WriteImport(ctx, createTestImport("first", "a.mab")); err != nil {
		t.Fatalf("WriteImport() failed: %v", err)
	}
	second := Import{
		ID:       "second",
		Source:   "b.mab",
		Contacts: []flatten.Record{{"name": "Alicia", "email": "alicia@example.net"}},
	}
	if _, _, err := s.WriteImport(ctx, second); err != nil {
		t.Fatalf("WriteImport() failed: %v", err)
	}

	tests := []struct {
		term string
		want []string
	}{
		{"Ali", []string{"Alice", "Alicia"}},
		{"example.org", []string{"Bob"}},
		{"", []string{"Alice", "Bob", "Alicia"}},
		{"ali", []string{"Alice", "Alicia"}}, // matched through the email column
		{"nobody", nil},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			contacts, err := s.SearchContacts(ctx, tt.term)
			if err != nil {
				t.Fatalf("SearchContacts() failed: %v", err)
			}
			var names []string
			for _, c := range contacts {
				names = append(names, c.Record.Name())
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
		})
	}
}

func TestReadDiagnostics(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	imp := createTestImport("batch-1", "abook.mab")
	imp.Diagnostics = append(imp.Diagnostics, mork.Diagnostic{
		Kind:    mork.DiagDuplicateRowKey,
		Offset:  120,
		Message: "duplicate rowid/scope 1/ns:addrbk:db:row:scope:card:all",
	})

	if _, _, err := s.WriteImport(ctx, imp); err != nil {
		t.Fatalf("WriteImport() failed: %v", err)
	}

	diags, err := s.ReadDiagnostics(ctx, "batch-1")
	if err != nil {
		t.Fatalf("ReadDiagnostics() failed: %v", err)
	}
	if !reflect.DeepEqual(diags, imp.Diagnostics) {
		t.Errorf("diagnostics = %v, want %v", diags, imp.Diagnostics)
	}
}
