package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mork/internal/canon"
	"github.com/roach88/mork/internal/store"
)

// ContactsOptions holds flags for the contacts command.
type ContactsOptions struct {
	*RootOptions
	Database string
	Batch    string
	Search   string
}

// NewContactsCommand creates the contacts command.
func NewContactsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ContactsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List contacts stored by import --db",
		Long: `List stored contacts in import order.

With --batch only the contacts of one import are listed. With --search only
contacts whose name or email contains the term (case-sensitive) are listed.

Examples:
  mork contacts --db contacts.db
  mork contacts --db contacts.db --batch 0190c3b2-...
  mork contacts --db contacts.db --search example.org`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContacts(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "only contacts from this import id")
	cmd.Flags().StringVar(&opts.Search, "search", "", "only contacts whose name or email contains this text")
	_ = cmd.MarkFlagRequired("db")
	cmd.MarkFlagsMutuallyExclusive("batch", "search")

	return cmd
}

func runContacts(opts *ContactsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer st.Close()

	var contacts []store.Contact
	if opts.Batch != "" {
		contacts, err = st.ReadContacts(ctx, opts.Batch)
	} else {
		contacts, err = st.SearchContacts(ctx, opts.Search)
	}
	if err != nil {
		return outputLoadError(formatter, &LoadError{Code: ErrCodeStore, Message: err.Error(), Err: err})
	}
	if contacts == nil {
		contacts = []store.Contact{}
	}

	if formatter.Format == "json" {
		return formatter.Success(contacts)
	}

	w := formatter.Writer
	for _, c := range contacts {
		line, err := canon.MarshalRecord(c.Record)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", c.ImportID, c.Position, line)
	}
	formatter.VerboseLog("%d contact(s)", len(contacts))
	return nil
}

// NewImportsCommand creates the imports command.
func NewImportsCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "imports",
		Short: "List import batches stored by import --db",
		Long: `List stored import batches in the order they were written.

Examples:
  mork imports --db contacts.db
  mork imports --db contacts.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImports(rootOpts, database, cmd)
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImports(opts *RootOptions, database string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openExisting(database)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	defer st.Close()

	imports, err := st.ListImports(commandContext(cmd))
	if err != nil {
		return outputLoadError(formatter, &LoadError{Code: ErrCodeStore, Message: err.Error(), Err: err})
	}

	if formatter.Format == "json" {
		return formatter.Success(imports)
	}

	w := formatter.Writer
	if len(imports) == 0 {
		fmt.Fprintln(w, "No imports found.")
		return nil
	}
	fmt.Fprintf(w, "%-4s %-36s %8s %12s  %s\n", "SEQ", "ID", "RECORDS", "DIAGNOSTICS", "SOURCE")
	for _, imp := range imports {
		fmt.Fprintf(w, "%-4d %-36s %8d %12d  %s\n", imp.Seq, imp.ID, imp.RecordCount, imp.DiagnosticCount, imp.Source)
	}
	return nil
}

// openExisting opens a database that must already exist. store.Open would
// otherwise create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", path), Err: err}
		}
		return nil, &LoadError{Code: ErrCodeStore, Message: err.Error(), Err: err}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to open database: %v", err), Err: err}
	}
	return st, nil
}
