package harness

import (
	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success.
	// True if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Records is the flattened parse output.
	Records []flatten.Record `json:"records"`

	// Diagnostics are the recovered parse conditions, in scan order.
	Diagnostics []mork.Diagnostic `json:"diagnostics"`

	// Tables maps composite table ids to row counts.
	Tables map[string]int `json:"tables,omitempty"`

	// Stored is the record set read back from the store after writing.
	Stored []flatten.Record `json:"stored,omitempty"`

	// Err is the fatal parse error, if any.
	Err error `json:"-"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Records:     []flatten.Record{},
		Diagnostics: []mork.Diagnostic{},
		Tables:      make(map[string]int),
		Errors:      []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// DiagnosticKinds returns the kinds of r.Diagnostics in order.
func (r *Result) DiagnosticKinds() []mork.DiagnosticKind {
	kinds := make([]mork.DiagnosticKind, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		kinds[i] = d.Kind
	}
	return kinds
}
