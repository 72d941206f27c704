package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string
	Actual   string

	// Diagnostics gives context for parse-related failures.
	Diagnostics []mork.Diagnostic
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&buf, "\nDiagnostics:\n")
		for i, d := range e.Diagnostics {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, d)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// All assertions are evaluated; failures do not short-circuit.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertRecordCount:
		return assertCount(a.Type, a.Count, len(result.Records), result)
	case AssertStoredCount:
		return assertCount(a.Type, a.Count, len(result.Stored), result)
	case AssertDiagnosticCount:
		n := 0
		for _, d := range result.Diagnostics {
			if d.Kind == a.Kind {
				n++
			}
		}
		return assertCount(a.Type+" "+string(a.Kind), a.Count, n, result)
	case AssertTableRows:
		n, ok := result.Tables[a.Table]
		if !ok {
			return &AssertionError{
				Type:        a.Type,
				Expected:    fmt.Sprintf("table %s with %d rows", a.Table, a.Count),
				Actual:      "table not found",
				Diagnostics: result.Diagnostics,
			}
		}
		return assertCount(a.Type+" "+a.Table, a.Count, n, result)
	case AssertRecordContains:
		return assertRecordContains(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertCount(kind string, want, got int, result *Result) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:        kind,
		Expected:    fmt.Sprintf("%d", want),
		Actual:      fmt.Sprintf("%d", got),
		Diagnostics: result.Diagnostics,
	}
}

// assertRecordContains checks that the record at a.Index has every field in
// a.Fields (subset match).
func assertRecordContains(result *Result, a Assertion) error {
	if a.Index >= len(result.Records) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("record %d", a.Index),
			Actual:   fmt.Sprintf("only %d records", len(result.Records)),
		}
	}

	record := result.Records[a.Index]
	if !matchFields(record, a.Fields) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("record %d containing %v", a.Index, a.Fields),
			Actual:   fmt.Sprintf("%v", record),
		}
	}
	return nil
}

// matchFields reports whether record has every key of want with the same value.
func matchFields(record flatten.Record, want map[string]string) bool {
	for k, v := range want {
		got, ok := record[k]
		if !ok || got != v {
			return false
		}
	}
	return true
}
