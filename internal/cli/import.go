package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/mork/internal/canon"
	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
	"github.com/roach88/mork/internal/schema"
	"github.com/roach88/mork/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Lenient  bool
	Filter   string
	Database string
	Schema   string
	Check    bool // check records against the built-in schema

	// IDGenerator names stored batches. Defaults to UUIDv7.
	IDGenerator store.IDGenerator
}

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	Source      string            `json:"source"`
	Records     json.RawMessage   `json:"records"`
	Count       int               `json:"count"`
	Diagnostics []mork.Diagnostic `json:"diagnostics"`
	ImportID    string            `json:"import_id,omitempty"`
	Seq         int64             `json:"seq,omitempty"`
}

// ViolationResult is the JSON payload when records fail the schema.
type ViolationResult struct {
	Valid      bool               `json:"valid"`
	Violations []schema.Violation `json:"violations"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Parse a mork file and print its contacts",
		Long: `Parse a Mork database and print one flattened record per row.

Records are canonical JSON objects: sorted keys, UTF-8 values. The derived
"name" and "email" fields escape control and high bytes as \xHH.

Exit codes:
  0 - Records printed (and stored, with --db)
  1 - One or more records failed the schema
  2 - Command error (unreadable input, not a mork file, undefined id, etc.)

Examples:
  mork import abook.mab
  mork import abook.mab --filter example.org
  mork import abook.mab --lenient --db contacts.db
  cat abook.mab | mork import - --schema contact.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Lenient, "lenient", false, "skip rows and tables with undefined ids instead of failing")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only records with a value containing this text")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the batch in this SQLite database")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "check records against the #Contact definition in this CUE file")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "check records against the built-in contact schema")

	return cmd
}

func runImport(opts *ImportOptions, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	imp, err := LoadSource(ctx, source, LoadOptions{Lenient: opts.Lenient, Stdin: cmd.InOrStdin()}, logger)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	var records []flatten.Record
	if opts.Filter != "" {
		records, err = imp.Filter(opts.Filter)
	} else {
		records, err = imp.Contacts()
	}
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Parsed %d record(s) from %s", len(records), imp.Source())

	if opts.Schema != "" || opts.Check {
		s, err := LoadSchema(opts.Schema)
		if err != nil {
			return outputLoadError(formatter, err)
		}
		violations, err := s.Validate(records)
		if err != nil {
			return outputLoadError(formatter, err)
		}
		if len(violations) > 0 {
			return outputViolations(formatter, violations)
		}
	}

	result := ImportResult{
		Source:      imp.Source(),
		Count:       len(records),
		Diagnostics: imp.Diagnostics(),
	}
	if result.Diagnostics == nil {
		result.Diagnostics = []mork.Diagnostic{}
	}

	if opts.Database != "" {
		idGen := opts.IDGenerator
		if idGen == nil {
			idGen = store.UUIDv7Generator{}
		}
		id, seq, err := storeBatch(ctx, opts.Database, store.Import{
			ID:          idGen.Generate(),
			Source:      imp.Source(),
			Contacts:    records,
			Diagnostics: imp.Diagnostics(),
		}, logger)
		if err != nil {
			return outputLoadError(formatter, err)
		}
		result.ImportID, result.Seq = id, seq
	}

	data, err := canon.MarshalRecords(records)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	result.Records = data

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputImportText(formatter, records, result)
}

// storeBatch writes one batch and returns its id and seq.
func storeBatch(ctx context.Context, path string, imp store.Import, logger *slog.Logger) (string, int64, error) {
	logger.Info("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return "", 0, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to open database: %v", err), Err: err}
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	seq, inserted, err := st.WriteImport(ctx, imp)
	if err != nil {
		return "", 0, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to store import: %v", err), Err: err}
	}
	logger.Info("import stored", "id", imp.ID, "seq", seq, "inserted", inserted)
	return imp.ID, seq, nil
}

func outputImportText(formatter *OutputFormatter, records []flatten.Record, result ImportResult) error {
	w := formatter.Writer
	for _, record := range records {
		line, err := canon.MarshalRecord(record)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(line))
	}

	formatter.VerboseLog("%d record(s), %d diagnostic(s)", result.Count, len(result.Diagnostics))
	if result.ImportID != "" {
		formatter.VerboseLog("Stored as import %s (seq %d)", result.ImportID, result.Seq)
	}
	return nil
}

// outputViolations reports schema failures (exit code 1).
func outputViolations(formatter *OutputFormatter, violations []schema.Violation) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ViolationResult{Valid: false, Violations: violations},
			Error: &CLIError{
				Code:    ErrCodeViolation,
				Message: violations[0].String(),
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("schema check failed with %d violation(s)", len(violations)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Schema check failed")
	fmt.Fprintln(formatter.Writer)
	for _, v := range violations {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeViolation, v)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("schema check failed with %d violation(s)", len(violations)))
}
