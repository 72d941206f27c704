package testutil

// FixedImportIDGenerator generates the same import id every time.
//
// Scenario runs write each parse into a fresh in-memory store, so a constant
// id keeps stored rows and snapshots byte-identical across runs.
//
// Unlike store.FixedGenerator which returns ids in sequence, this generator
// never runs out.
//
// Thread-safety: FixedImportIDGenerator is stateless and safe for concurrent use.
type FixedImportIDGenerator struct {
	id string
}

// NewFixedImportIDGenerator creates a new fixed import id generator.
// If id is empty, Generate() returns "test-import-default".
func NewFixedImportIDGenerator(id string) *FixedImportIDGenerator {
	if id == "" {
		id = "test-import-default"
	}
	return &FixedImportIDGenerator{id: id}
}

// Generate returns the fixed import id.
//
// Implements store.IDGenerator.
func (g *FixedImportIDGenerator) Generate() string {
	return g.id
}
