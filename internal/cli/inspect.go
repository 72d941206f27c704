package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Lenient bool
}

// TableSummary describes one parsed table.
type TableSummary struct {
	ID    string `json:"id"`
	Scope string `json:"scope"`
	Kind  string `json:"kind"`
	Rows  int    `json:"rows"`
}

// InspectResult is the structural summary of a parsed file.
type InspectResult struct {
	Source      string            `json:"source"`
	Columns     int               `json:"columns"`
	Atoms       int               `json:"atoms"`
	Tables      []TableSummary    `json:"tables"`
	Rows        int               `json:"rows"`
	Diagnostics []mork.Diagnostic `json:"diagnostics"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <file|->",
		Short: "Summarize the dictionaries, tables and diagnostics of a mork file",
		Long: `Parse a Mork database and print its structure instead of its records.

Shows dictionary sizes, every table with its scope, kind and row count,
and the diagnostics recovered while scanning.

Examples:
  mork inspect abook.mab
  mork inspect history.mab --lenient --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Lenient, "lenient", false, "skip rows and tables with undefined ids instead of failing")

	return cmd
}

func runInspect(opts *InspectOptions, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	imp, err := LoadSource(commandContext(cmd), source, LoadOptions{Lenient: opts.Lenient, Stdin: cmd.InOrStdin()}, logger)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	result := summarize(imp.Source(), imp.Database(), imp.Diagnostics())
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputInspectText(formatter, result)
}

// summarize builds the inspect result. Tables are listed in flatten order.
func summarize(source string, db *mork.Database, diags []mork.Diagnostic) InspectResult {
	result := InspectResult{
		Source:      source,
		Columns:     len(db.Columns),
		Atoms:       len(db.Atoms),
		Tables:      []TableSummary{},
		Rows:        db.RowCount(),
		Diagnostics: diags,
	}
	if result.Diagnostics == nil {
		result.Diagnostics = []mork.Diagnostic{}
	}

	for _, id := range flatten.SortedKeys(db.Tables) {
		t := db.Tables[id]
		result.Tables = append(result.Tables, TableSummary{
			ID:    id,
			Scope: t.Scope,
			Kind:  t.Kind,
			Rows:  len(t.Rows),
		})
	}
	return result
}

func outputInspectText(formatter *OutputFormatter, result InspectResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Source: %s\n", result.Source)
	fmt.Fprintf(w, "Columns: %d\n", result.Columns)
	fmt.Fprintf(w, "Atoms: %d\n", result.Atoms)
	fmt.Fprintf(w, "Tables: %d (%d rows)\n", len(result.Tables), result.Rows)
	for _, t := range result.Tables {
		fmt.Fprintf(w, "  %-8s %4d rows  scope=%s kind=%s\n", t.ID, t.Rows, t.Scope, t.Kind)
	}

	fmt.Fprintf(w, "Diagnostics: %d\n", len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "  %s\n", d)
	}
	return nil
}
