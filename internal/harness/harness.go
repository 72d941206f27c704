package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/importer"
	"github.com/roach88/mork/internal/mork"
	"github.com/roach88/mork/internal/store"
	"github.com/roach88/mork/internal/testutil"
)

// Harness runs scenarios against a fresh in-memory store.
type Harness struct {
	store  *store.Store
	idGen  store.IDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Parse the input through the importer (strict or lenient)
//  2. Check the expected error class, if any
//  3. Write the batch to the store and read it back
//  4. Compare records and diagnostic kinds against Expect
//  5. Evaluate assertions
//
// A returned error means the harness itself failed; scenario failures are
// reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		idGen:  testutil.NewFixedImportIDGenerator(scenario.ImportID),
		logger: testutil.DiscardLogger(), // Suppress parser logs in tests
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	mode := mork.RefFailFast
	if scenario.Lenient {
		mode = mork.RefCollectAll
	}

	imp, err := importer.NewMorkImporter(
		importer.Params{Filename: importer.StdinFilename, Data: scenario.Input},
		importer.WithLogger(h.logger),
		importer.WithReferenceMode(mode),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create importer: %w", err)
	}

	result := NewResult()
	expect := scenario.Expect
	if expect == nil {
		expect = &Expect{}
	}

	if err := imp.Load(ctx); err != nil {
		result.Err = err
		checkError(result, expect.Error, err)
		return result, nil
	}
	if expect.Error != "" {
		result.AddError(fmt.Sprintf("expected %s error, parse succeeded", expect.Error))
	}

	records, err := imp.Contacts()
	if err != nil {
		return nil, err
	}
	result.Records = records
	result.Diagnostics = append(result.Diagnostics, imp.Diagnostics()...)
	for id, t := range imp.Database().Tables {
		result.Tables[id] = len(t.Rows)
	}

	if err := h.storeRoundTrip(ctx, imp.Source(), result); err != nil {
		return nil, err
	}

	if expect.Records != nil {
		want := make([]flatten.Record, len(expect.Records))
		for i, r := range expect.Records {
			want[i] = flatten.Record(r)
		}
		if !reflect.DeepEqual(result.Records, want) {
			result.AddError(fmt.Sprintf("records mismatch:\n  expected: %v\n  actual:   %v", want, result.Records))
		}
	}

	if expect.Diagnostics != nil {
		if got := result.DiagnosticKinds(); !reflect.DeepEqual(got, expect.Diagnostics) {
			result.AddError(fmt.Sprintf("diagnostics mismatch: expected %v, actual %v", expect.Diagnostics, got))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"records", len(result.Records),
		"diagnostics", len(result.Diagnostics),
		"pass", result.Pass,
	)
	return result, nil
}

// storeRoundTrip writes the parsed batch and reads the contacts back into
// result.Stored.
func (h *Harness) storeRoundTrip(ctx context.Context, source string, result *Result) error {
	id := h.idGen.Generate()
	_, _, err := h.store.WriteImport(ctx, store.Import{
		ID:          id,
		Source:      source,
		Contacts:    result.Records,
		Diagnostics: result.Diagnostics,
	})
	if err != nil {
		return fmt.Errorf("failed to store import: %w", err)
	}

	contacts, err := h.store.ReadContacts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to read stored contacts: %w", err)
	}
	for _, c := range contacts {
		result.Stored = append(result.Stored, c.Record)
	}
	return nil
}

// checkError compares a fatal parse error against the expected class.
func checkError(result *Result, want string, err error) {
	var got string
	switch {
	case errors.Is(err, mork.ErrFormatMismatch):
		got = ErrorFormat
	case mork.IsReferenceError(err):
		got = ErrorReference
	}

	switch {
	case want == "":
		result.AddError(fmt.Sprintf("unexpected parse error: %v", err))
	case got != want:
		result.AddError(fmt.Sprintf("expected %s error, got: %v", want, err))
	}
}
