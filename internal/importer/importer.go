// Package importer loads contact records from address-book files.
//
// An Importer is created with Params, loaded once, and then queried. The only
// implementation is MorkImporter, which reads Mozilla Mork databases.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/mork/internal/flatten"
	"github.com/roach88/mork/internal/mork"
)

// StdinFilename tells an importer to use Params.Data instead of reading a file.
const StdinFilename = "-"

// Importer metadata for the Mork format.
const (
	ShortName         = "mork"
	FormatName        = "Mork Database"
	FormatDescription = "Thunderbird contacts database format."
)

var (
	// ErrMissingFilename is returned when Params.Filename is empty.
	ErrMissingFilename = errors.New("importer: filename is required")

	// ErrNotLoaded is returned when records are requested before Load.
	ErrNotLoaded = errors.New("importer: Load has not been called")
)

// Importer produces contact records from some source.
type Importer interface {
	// Load reads and parses the source. It must be called once before the
	// query methods.
	Load(ctx context.Context) error

	// Contacts returns every record in source order.
	Contacts() ([]flatten.Record, error)

	// Filter returns the records with at least one value containing terms.
	Filter(terms string) ([]flatten.Record, error)
}

// Params configures an importer.
type Params struct {
	Filename string // path, or StdinFilename to use Data
	Data     string
}

// Option configures a MorkImporter.
type Option func(*MorkImporter)

// WithLogger sets the logger passed to the parser.
func WithLogger(logger *slog.Logger) Option {
	return func(m *MorkImporter) {
		m.logger = logger
	}
}

// WithReferenceMode sets how the parser treats undefined dictionary ids.
func WithReferenceMode(mode mork.ReferenceMode) Option {
	return func(m *MorkImporter) {
		m.refMode = mode
	}
}

// MorkImporter reads a Mork address book.
type MorkImporter struct {
	params  Params
	logger  *slog.Logger
	refMode mork.ReferenceMode

	result  *mork.Result
	records []flatten.Record
}

var _ Importer = (*MorkImporter)(nil)

// NewMorkImporter validates params and returns an unloaded importer.
func NewMorkImporter(params Params, opts ...Option) (*MorkImporter, error) {
	if params.Filename == "" {
		return nil, ErrMissingFilename
	}
	m := &MorkImporter{
		params:  params,
		logger:  slog.Default(),
		refMode: mork.RefFailFast,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Load reads the source and parses it. Input without the Mork signature
// fails with mork.ErrFormatMismatch.
func (m *MorkImporter) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := m.read()
	if err != nil {
		return err
	}

	m.logger.Debug("parsing mork data", "source", m.Source(), "bytes", len(data))
	result, err := mork.Parse(data,
		mork.WithLogger(m.logger),
		mork.WithReferenceMode(m.refMode),
	)
	if err != nil {
		return fmt.Errorf("parse %s: %w", m.Source(), err)
	}

	m.result = result
	m.records = flatten.Flatten(result.DB)
	m.logger.Debug("mork data parsed",
		"tables", len(result.DB.Tables),
		"records", len(m.records),
		"diagnostics", len(result.Diagnostics),
	)
	return nil
}

func (m *MorkImporter) read() (string, error) {
	if m.params.Filename == StdinFilename {
		return m.params.Data, nil
	}
	data, err := os.ReadFile(m.params.Filename)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", m.params.Filename, err)
	}
	return string(data), nil
}

// Source names where the data came from.
func (m *MorkImporter) Source() string {
	if m.params.Filename == StdinFilename {
		return "<stdin>"
	}
	return m.params.Filename
}

// Contacts returns the flattened records.
func (m *MorkImporter) Contacts() ([]flatten.Record, error) {
	if m.result == nil {
		return nil, ErrNotLoaded
	}
	return m.records, nil
}

// Filter returns the records with any value containing terms.
func (m *MorkImporter) Filter(terms string) ([]flatten.Record, error) {
	if m.result == nil {
		return nil, ErrNotLoaded
	}
	matched := []flatten.Record{}
	for _, r := range m.records {
		if r.Contains(terms) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Database returns the parsed database, or nil before Load.
func (m *MorkImporter) Database() *mork.Database {
	if m.result == nil {
		return nil
	}
	return m.result.DB
}

// Diagnostics returns the recovered parse conditions from the last Load.
func (m *MorkImporter) Diagnostics() []mork.Diagnostic {
	if m.result == nil {
		return nil
	}
	return m.result.Diagnostics
}
