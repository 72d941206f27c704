// Package harness runs Mork parsing scenarios as executable conformance tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	input: "<mdb:mork> ..."        # or input_file: path/to/book.mork
//	lenient: false                 # collect undefined ids as diagnostics
//	import_id: batch-1             # optional, for the store round trip
//	expect:
//	  records:
//	    - { DisplayName: Alice, name: Alice }
//	  diagnostics: [SYNTAX_NOISE]
//	  error: reference             # or format
//	assertions:
//	  - type: record_contains
//	    index: 0
//	    fields: { name: Alice }
//
// # Assertion Types
//
//   - record_count: number of flattened records
//   - record_contains: subset match against one record
//   - diagnostic_count: number of diagnostics of one kind
//   - table_rows: number of rows in one table
//   - stored_count: number of records read back from the store
//
// # Isolation
//
// Every run parses through the importer with a discarding logger, then
// writes the batch into a fresh in-memory SQLite store under a fixed import
// id and reads it back. Identical scenarios therefore produce identical
// results and golden snapshots.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/minimal.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
