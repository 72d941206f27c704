package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mork/internal/mork"
)

// Scenario is one parse-and-flatten conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is inline Mork text.
	Input string `yaml:"input,omitempty"`

	// InputFile is a Mork file to read instead of Input.
	// Relative paths are resolved against the scenario file's directory.
	InputFile string `yaml:"input_file,omitempty"`

	// Lenient collects undefined-id errors as diagnostics instead of
	// failing the parse.
	Lenient bool `yaml:"lenient,omitempty"`

	// ImportID is the batch id the parse is stored under.
	// If empty, defaults to "test-import-default".
	ImportID string `yaml:"import_id,omitempty"`

	// Expect holds exact expectations. Nil fields are not checked.
	Expect *Expect `yaml:"expect,omitempty"`

	// Assertions are finer-grained checks evaluated after Expect.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect describes the exact outcome of a scenario.
type Expect struct {
	// Records is the full flattened output, in order.
	Records []map[string]string `yaml:"records,omitempty"`

	// Diagnostics is the sequence of diagnostic kinds, in order.
	Diagnostics []mork.DiagnosticKind `yaml:"diagnostics,omitempty"`

	// Error is the class of fatal parse error expected: "format" or "reference".
	Error string `yaml:"error,omitempty"`
}

// Expected error classes.
const (
	ErrorFormat    = "format"
	ErrorReference = "reference"
)

// Assertion is a single check against a Result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected count (record_count, diagnostic_count,
	// table_rows, stored_count).
	Count int `yaml:"count"`

	// Index selects a record (record_contains).
	Index int `yaml:"index,omitempty"`

	// Fields is a subset of the selected record (record_contains).
	Fields map[string]string `yaml:"fields,omitempty"`

	// Kind is the diagnostic kind to count (diagnostic_count).
	Kind mork.DiagnosticKind `yaml:"kind,omitempty"`

	// Table is the composite table id (table_rows).
	Table string `yaml:"table,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount     = "record_count"
	AssertRecordContains  = "record_contains"
	AssertDiagnosticCount = "diagnostic_count"
	AssertTableRows       = "table_rows"
	AssertStoredCount     = "stored_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.InputFile != "" {
		inputPath := scenario.InputFile
		if !filepath.IsAbs(inputPath) {
			inputPath = filepath.Join(filepath.Dir(path), inputPath)
		}
		input, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario input: %w", err)
		}
		scenario.Input = string(input)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Input == "" && s.InputFile == "" {
		return fmt.Errorf("one of input or input_file is required")
	}
	if s.Input != "" && s.InputFile != "" {
		return fmt.Errorf("input and input_file are mutually exclusive")
	}

	if s.Expect != nil {
		switch s.Expect.Error {
		case "", ErrorFormat, ErrorReference:
		default:
			return fmt.Errorf("expect.error %q: must be %q or %q", s.Expect.Error, ErrorFormat, ErrorReference)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertRecordCount, AssertStoredCount:
	case AssertRecordContains:
		if len(a.Fields) == 0 {
			return fmt.Errorf("%s requires fields", a.Type)
		}
	case AssertDiagnosticCount:
		if a.Kind == "" {
			return fmt.Errorf("%s requires kind", a.Type)
		}
	case AssertTableRows:
		if a.Table == "" {
			return fmt.Errorf("%s requires table", a.Type)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Count < 0 || a.Index < 0 {
		return fmt.Errorf("%s: count and index must be non-negative", a.Type)
	}
	return nil
}
