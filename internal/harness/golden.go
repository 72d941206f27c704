package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mork/internal/canon"
	"github.com/roach88/mork/internal/mork"
)

// Snapshot captures the observable output of a scenario run.
// Records are rendered as canonical JSON so that non-UTF-8 values
// serialize deterministically.
type Snapshot struct {
	ScenarioName string                `json:"scenario_name"`
	Diagnostics  []mork.DiagnosticKind `json:"diagnostics"`
	Records      json.RawMessage       `json:"records"`
}

// MarshalSnapshot renders a result as indented JSON followed by a newline.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	records, err := canon.MarshalRecords(result.Records)
	if err != nil {
		return nil, err
	}

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Diagnostics:  result.DiagnosticKinds(),
		Records:      records,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
