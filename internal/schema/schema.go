// Package schema checks flattened contact records against a CUE definition.
//
// A schema source must define #Contact. Each record is encoded as a CUE
// struct, unified with #Contact and validated for concreteness; every CUE error
// becomes a Violation.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mork/internal/canon"
	"github.com/roach88/mork/internal/flatten"
)

//go:embed contact.cue
var defaultSource []byte

// DefinitionPath is the definition every schema source must provide.
const DefinitionPath = "#Contact"

// Schema is a compiled #Contact definition.
// A Schema is not safe for concurrent use.
type Schema struct {
	ctx *cue.Context
	def cue.Value
}

// SchemaError reports a schema source that could not be compiled.
type SchemaError struct {
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Violation is one record failing the schema.
type Violation struct {
	Index   int    `json:"index"` // position in the validated slice
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("record %d: %s", v.Index, v.Message)
}

// Default returns the built-in contact schema.
func Default() (*Schema, error) {
	return Compile(defaultSource, "contact.cue")
}

// Load compiles the schema in the CUE file at path.
func Load(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Compile(src, path)
}

// Compile compiles a CUE source defining #Contact.
func Compile(src []byte, filename string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := v.LookupPath(cue.ParsePath(DefinitionPath))
	if !def.Exists() {
		return nil, &SchemaError{
			Message: fmt.Sprintf("%s is not defined", DefinitionPath),
			Pos:     v.Pos(),
		}
	}
	return &Schema{ctx: ctx, def: def}, nil
}

// Validate checks every record and returns the violations in record order.
// Returns nil when all records conform.
func (s *Schema) Validate(records []flatten.Record) ([]Violation, error) {
	var violations []Violation
	for i, record := range records {
		value, err := s.encode(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		unified := s.def.Unify(value)
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			for _, e := range errors.Errors(err) {
				violations = append(violations, Violation{
					Index:   i,
					Path:    strings.Join(e.Path(), "."),
					Message: e.Error(),
				})
			}
		}
	}
	return violations, nil
}

// encode converts a record to a CUE struct. CUE strings must be valid UTF-8,
// so keys and values go through the same normalization as canonical JSON output.
func (s *Schema) encode(record flatten.Record) (cue.Value, error) {
	fields := make(map[string]string, len(record))
	for k, v := range record {
		nk, err := canon.String(k)
		if err != nil {
			return cue.Value{}, err
		}
		nv, err := canon.String(v)
		if err != nil {
			return cue.Value{}, err
		}
		fields[nk] = nv
	}
	value := s.ctx.Encode(fields)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return value, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &SchemaError{
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &SchemaError{Message: first.Error()}
}
