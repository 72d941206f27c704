package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
)

// ErrMissingImportID is returned by WriteImport when Import.ID is empty.
var ErrMissingImportID = errors.New("store: import id is required")

// Import is one batch of contacts read from a single source.
type Import struct {
	ID          string
	Source      string
	Contacts    []flatten.Record
	Diagnostics []mork.Diagnostic
}

// WriteImport stores a batch with its contacts and diagnostics in a single
// transaction and returns the batch's logical seq.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing a batch id that is
// already stored changes nothing and returns the existing seq with
// inserted=false.
func (s *Store) WriteImport(ctx context.Context, imp Import) (seq int64, inserted bool, err error) {
	if imp.ID == "" {
		return 0, false, ErrMissingImportID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write import: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	err = tx.QueryRowContext(ctx, `SELECT seq FROM imports WHERE id = ?`, imp.ID).Scan(&seq)
	switch {
	case err == nil:
		return seq, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, false, fmt.Errorf("write import: select existing: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM imports`).Scan(&seq); err != nil {
		return 0, false, fmt.Errorf("write import: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO imports
		(id, source, record_count, diagnostic_count, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		imp.ID,
		imp.Source,
		len(imp.Contacts),
		len(imp.Diagnostics),
		seq,
	)
	if err != nil {
		return 0, false, fmt.Errorf("write import: insert: %w", err)
	}

	if err := writeContacts(ctx, tx, imp.ID, imp.Contacts); err != nil {
		return 0, false, err
	}
	if err := writeDiagnostics(ctx, tx, imp.ID, imp.Diagnostics); err != nil {
		return 0, false, err
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write import: commit: %w", err)
	}
	return seq, true, nil
}

func writeContacts(ctx context.Context, tx *sql.Tx, importID string, records []flatten.Record) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO contacts
		(import_id, position, name, email, record_json)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write contacts: prepare: %w", err)
	}
	defer stmt.Close()

	for i, record := range records {
		recordJSON, err := marshalRecord(record)
		if err != nil {
			return fmt.Errorf("write contacts: position %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, importID, i, record.Name(), record.Email(), recordJSON); err != nil {
			return fmt.Errorf("write contacts: position %d: %w", i, err)
		}
	}
	return nil
}

func writeDiagnostics(ctx context.Context, tx *sql.Tx, importID string, diags []mork.Diagnostic) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO diagnostics
		(import_id, position, kind, byte_offset, message, context)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write diagnostics: prepare: %w", err)
	}
	defer stmt.Close()

	for i, d := range diags {
		if _, err := stmt.ExecContext(ctx, importID, i, string(d.Kind), d.Offset, d.Message, d.Context); err != nil {
			return fmt.Errorf("write diagnostics: position %d: %w", i, err)
		}
	}
	return nil
}
