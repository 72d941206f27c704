package mork

import (
	"errors"
	"fmt"
)

// Signature must appear somewhere in a Mork file.
const Signature = "<mdb:mork"

// ErrFormatMismatch is returned when the input lacks the Mork signature.
var ErrFormatMismatch = errors.New("mork file required: missing " + Signature + " signature")

// RefKind identifies which dictionary a failed lookup went to.
type RefKind string

const (
	RefColumn RefKind = "column"
	RefAtom   RefKind = "atom"
)

// ReferenceError reports a lookup of an id that no dictionary block defined.
type ReferenceError struct {
	Kind RefKind
	ID   string

	// Construct names the table or row being built, filled in by the scanner.
	Construct string

	// Offset is the scanner offset of the enclosing production.
	Offset int
}

func (e *ReferenceError) Error() string {
	msg := fmt.Sprintf("undefined %s id %q", e.Kind, e.ID)
	if e.Construct != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.Construct)
	}
	return fmt.Sprintf("%s (offset %d)", msg, e.Offset)
}

// IsReferenceError returns true if err wraps a *ReferenceError.
func IsReferenceError(err error) bool {
	var re *ReferenceError
	return errors.As(err, &re)
}

// DiagnosticKind categorizes non-fatal parse conditions.
type DiagnosticKind string

const (
	// DiagDuplicateRowKey: a row overwrote an existing row with the same key.
	DiagDuplicateRowKey DiagnosticKind = "DUPLICATE_ROW_KEY"

	// DiagSyntaxNoise: no production matched; one byte was skipped.
	DiagSyntaxNoise DiagnosticKind = "SYNTAX_NOISE"

	// DiagDanglingRow: a row outside any table was applied to the fallback table.
	DiagDanglingRow DiagnosticKind = "DANGLING_ROW"

	// DiagReference: a construct was skipped because of an undefined id.
	// Only produced in RefCollectAll mode.
	DiagReference DiagnosticKind = "REFERENCE_ERROR"
)

// Diagnostic is a recovered, non-fatal parse condition.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Offset  int            `json:"offset"`
	Message string         `json:"message"`
	Context string         `json:"context,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Context != "" {
		return fmt.Sprintf("%s at %d: %s: %s", d.Kind, d.Offset, d.Message, d.Context)
	}
	return fmt.Sprintf("%s at %d: %s", d.Kind, d.Offset, d.Message)
}
