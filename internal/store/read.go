package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
)

// ImportSummary describes a stored batch without its contents.
type ImportSummary struct {
	ID              string `json:"id"`
	Source          string `json:"source"`
	RecordCount     int    `json:"record_count"`
	DiagnosticCount int    `json:"diagnostic_count"`
	Seq             int64  `json:"seq"`
}

// Contact is a stored record with its batch coordinates.
type Contact struct {
	ImportID string         `json:"import_id"`
	Position int            `json:"position"`
	Record   flatten.Record `json:"record"`
}

// ListImports returns every batch ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if nothing has been imported.
func (s *Store) ListImports(ctx context.Context) ([]ImportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, record_count, diagnostic_count, seq
		FROM imports
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()

	imports := []ImportSummary{}
	for rows.Next() {
		var imp ImportSummary
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.RecordCount, &imp.DiagnosticCount, &imp.Seq); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}
	return imports, nil
}

// ReadImport retrieves a single batch summary by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadImport(ctx context.Context, id string) (ImportSummary, error) {
	var imp ImportSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, record_count, diagnostic_count, seq
		FROM imports
		WHERE id = ?
	`, id).Scan(&imp.ID, &imp.Source, &imp.RecordCount, &imp.DiagnosticCount, &imp.Seq)
	if err != nil {
		return ImportSummary{}, err
	}
	return imp, nil
}

// ReadContacts returns the contacts of one batch in import order.
// Returns an empty slice (not nil) for an unknown or empty batch.
func (s *Store) ReadContacts(ctx context.Context, importID string) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT import_id, position, record_json
		FROM contacts
		WHERE import_id = ?
		ORDER BY position ASC
	`, importID)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// SearchContacts returns contacts whose derived name or email contains term,
// across all batches, ordered by batch seq and then position. The match is
// case-sensitive; an empty term returns every contact.
func (s *Store) SearchContacts(ctx context.Context, term string) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.import_id, c.position, c.record_json
		FROM contacts c
		JOIN imports i ON c.import_id = i.id
		WHERE instr(c.name, ?1) > 0 OR instr(c.email, ?1) > 0
		ORDER BY i.seq ASC, c.position ASC
	`, term)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// ReadDiagnostics returns the diagnostics recorded for one batch in parse order.
func (s *Store) ReadDiagnostics(ctx context.Context, importID string) ([]mork.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, byte_offset, message, context
		FROM diagnostics
		WHERE import_id = ?
		ORDER BY position ASC
	`, importID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []mork.Diagnostic{}
	for rows.Next() {
		var d mork.Diagnostic
		var kind string
		if err := rows.Scan(&kind, &d.Offset, &d.Message, &d.Context); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Kind = mork.DiagnosticKind(kind)
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

func scanContacts(rows *sql.Rows) ([]Contact, error) {
	contacts := []Contact{}
	for rows.Next() {
		var c Contact
		var recordJSON string
		if err := rows.Scan(&c.ImportID, &c.Position, &recordJSON); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		record, err := unmarshalRecord(recordJSON)
		if err != nil {
			return nil, fmt.Errorf("contact %s/%d: %w", c.ImportID, c.Position, err)
		}
		c.Record = record
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}
