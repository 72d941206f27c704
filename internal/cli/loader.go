package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"cuelang.org/go/cue/token"

	"github.com/roach88/mork/internal/importer"
	"github.com/roach88/mork/internal/mork"
	"github.com/roach88/mork/internal/schema"
)

// LoadOptions controls how a Mork source is read.
type LoadOptions struct {
	// Lenient collects undefined-id errors as diagnostics instead of
	// failing the parse.
	Lenient bool

	// Stdin is read when the source is "-".
	Stdin io.Reader
}

// LoadError is a command-level failure with a stable code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadSource reads and parses one Mork source ("-" for stdin).
// Errors are *LoadError values classified by cause.
func LoadSource(ctx context.Context, source string, opts LoadOptions, logger *slog.Logger) (*importer.MorkImporter, error) {
	params := importer.Params{Filename: source}
	if source == importer.StdinFilename {
		if opts.Stdin == nil {
			return nil, &LoadError{Code: ErrCodeReadFailed, Message: "no stdin available"}
		}
		data, err := io.ReadAll(opts.Stdin)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading stdin: %v", err), Err: err}
		}
		params.Data = string(data)
	}

	mode := mork.RefFailFast
	if opts.Lenient {
		mode = mork.RefCollectAll
	}

	imp, err := importer.NewMorkImporter(params,
		importer.WithLogger(logger),
		importer.WithReferenceMode(mode),
	)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
	}

	if err := imp.Load(ctx); err != nil {
		return nil, classifyLoadError(err)
	}
	return imp, nil
}

// classifyLoadError maps importer failures to error codes.
func classifyLoadError(err error) *LoadError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, mork.ErrFormatMismatch):
		return &LoadError{Code: ErrCodeNotMork, Message: err.Error(), Err: err}
	case mork.IsReferenceError(err):
		return &LoadError{Code: ErrCodeReference, Message: err.Error(), Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
	default:
		return &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), Err: err}
	}
}

// LoadSchema compiles the CUE schema at path, or the built-in one when path
// is empty.
func LoadSchema(path string) (*schema.Schema, error) {
	var (
		s   *schema.Schema
		err error
	)
	if path == "" {
		s, err = schema.Default()
	} else {
		s, err = schema.Load(path)
	}
	if err == nil {
		return s, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema file not found: %s", path), Err: err}
	}
	var schemaErr *schema.SchemaError
	if errors.As(err, &schemaErr) {
		return nil, &LoadError{Code: ErrCodeSchema, Message: schemaErr.Message, Pos: schemaErr.Pos, Err: err}
	}
	return nil, &LoadError{Code: ErrCodeSchema, Message: err.Error(), Err: err}
}

// Error codes for CLI error output.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeNotMork    = "E002" // Input lacks the mork signature
	ErrCodeReference  = "E003" // Undefined column or atom id
	ErrCodeReadFailed = "E004" // Input could not be read
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeSchema     = "E006" // Schema could not be compiled
	ErrCodeStore      = "E007" // Database error
	ErrCodeViolation  = "E101" // Record failed the schema
)

// outputLoadError writes err through the formatter and returns the
// command-level exit error.
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := ErrCodeGeneric, err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code, message = loadErr.Code, loadErr.Message
		if loadErr.Pos.IsValid() {
			message = loadErr.Error()
		}
	}
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, code, err)
}
