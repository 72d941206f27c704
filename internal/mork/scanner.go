package mork

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/roach88/mork/internal/codec"
)

// ReferenceMode controls what an undefined dictionary id does to a parse.
type ReferenceMode int

const (
	// RefFailFast aborts the whole parse on the first undefined id.
	RefFailFast ReferenceMode = iota
	// RefCollectAll skips the enclosing row or table block and keeps going.
	RefCollectAll
)

// contextLen is how much input a SyntaxNoise diagnostic quotes.
const contextLen = 40

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger diagnostics are written to.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithReferenceMode sets how undefined ids are handled.
// Default: RefFailFast.
func WithReferenceMode(mode ReferenceMode) Option {
	return func(p *Parser) {
		p.refMode = mode
	}
}

// Result is a completed parse.
type Result struct {
	DB          *Database
	Diagnostics []Diagnostic
}

// Count returns the number of diagnostics of the given kind.
func (r *Result) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Parser scans one Mork buffer into a Database.
// A Parser is single-use and not safe for concurrent use.
type Parser struct {
	db            *Database
	logger        *slog.Logger
	refMode       ReferenceMode
	inTransaction bool
	diagnostics   []Diagnostic
}

// Parse parses a Mork text buffer.
//
// Returns ErrFormatMismatch if data lacks the Mork signature, or a
// *ReferenceError in RefFailFast mode. On error no Database is returned.
func Parse(data string, opts ...Option) (*Result, error) {
	if !strings.Contains(data, Signature) {
		return nil, ErrFormatMismatch
	}

	p := &Parser{
		db:      NewDatabase(),
		logger:  slog.Default(),
		refMode: RefFailFast,
	}
	for _, opt := range opts {
		opt(p)
	}

	text := codec.EscapeReservedCellChars(codec.Normalize(data))
	if err := p.scan(text); err != nil {
		return nil, err
	}

	return &Result{DB: p.db, Diagnostics: p.diagnostics}, nil
}

// production is one recognizable shape at the current offset.
type production struct {
	name    string
	pattern *regexp.Regexp // anchored at ^
	apply   func(p *Parser, m match) error
	enabled func(p *Parser) bool
}

// match is a successful production match.
type match struct {
	text   string // remaining input the pattern ran against
	loc    []int  // submatch indices into text
	offset int    // absolute offset of text[0]
}

func (m match) group(i int) string {
	if m.loc[2*i] < 0 {
		return ""
	}
	return m.text[m.loc[2*i]:m.loc[2*i+1]]
}

func (m match) whole() string {
	return m.text[m.loc[0]:m.loc[1]]
}

var (
	cellPattern = regexp.MustCompile(`\(.+?\)`)
	rowPattern  = regexp.MustCompile(`(-?)\s*\[(.+?)((?:\(.+?\)\s*)*)\]`)
)

// productions in priority order. They are not mutually exclusive; the first
// match at an offset wins.
var productions = []production{
	{
		name:    "whitespace",
		pattern: regexp.MustCompile(`^\s+`),
		apply:   func(*Parser, match) error { return nil },
	},
	{
		name:    "column dictionary",
		pattern: regexp.MustCompile(`^<\s*<?\s*\(a=c\)\s*>?\s*(?://)?\s*(\(.+?\))\s*>`),
		apply:   (*Parser).scanColumnDict,
	},
	{
		name:    "atom dictionary",
		pattern: regexp.MustCompile(`^<\s*(\(.+?\))\s*>`),
		apply:   (*Parser).scanAtomDict,
	},
	{
		name:    "table",
		pattern: regexp.MustCompile(`^\{-?(\d+):\^(..)\s*\{\(k\^(..):c\)\(s=9u?\)\s*(.*?)\}\s*(.*?)\}`),
		apply:   (*Parser).scanTable,
	},
	{
		name:    "transaction begin",
		pattern: regexp.MustCompile(`^@\$\$\{.+?\{@`),
		apply:   (*Parser).beginTransaction,
	},
	{
		name:    "transaction end",
		pattern: regexp.MustCompile(`^@\$\$\}.+?\}@`),
		apply:   (*Parser).endTransaction,
	},
	{
		name:    "dangling row",
		pattern: regexp.MustCompile(`^(-?)\s*\[(.+?)((?:\(.+?\)\s*)*)\]`),
		apply:   (*Parser).scanDanglingRow,
		enabled: func(p *Parser) bool { return p.inTransaction },
	},
}

// scan runs the production loop until the input is consumed.
func (p *Parser) scan(text string) error {
	offset := 0
	for offset < len(text) {
		rest := text[offset:]
		n, err := p.step(rest, offset)
		if err != nil {
			return err
		}
		if n == 0 {
			p.noise(rest, offset)
			n = 1
		}
		offset += n
	}
	return nil
}

// step applies the first matching production and returns the number of bytes
// it consumed, or 0 if nothing matched.
func (p *Parser) step(rest string, offset int) (int, error) {
	for _, prod := range productions {
		if prod.enabled != nil && !prod.enabled(p) {
			continue
		}
		loc := prod.pattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			continue
		}
		if err := prod.apply(p, match{text: rest, loc: loc, offset: offset}); err != nil {
			return 0, fmt.Errorf("%s: %w", prod.name, err)
		}
		return loc[1], nil
	}
	return 0, nil
}

func (p *Parser) scanColumnDict(m match) error {
	p.db.Columns.addColumnEntries(cellPattern.FindAllString(m.whole(), -1))
	return nil
}

func (p *Parser) scanAtomDict(m match) error {
	p.db.Atoms.AddEntries(cellPattern.FindAllString(m.whole(), -1))
	return nil
}

func (p *Parser) scanTable(m match) error {
	ns, scopeID, kindID := m.group(1), m.group(2), m.group(3)

	t, err := p.db.table(ns, scopeID, kindID)
	if err != nil {
		return p.reference(err, m.offset, "table "+ns+":"+scopeID)
	}

	for _, row := range rowPattern.FindAllStringSubmatch(m.group(5), -1) {
		if err := p.applyRow(t, row[1] == "-", row[2], row[3], m.offset); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) beginTransaction(m match) error {
	p.inTransaction = true
	p.logger.Debug("transaction begin", "offset", m.offset)
	return nil
}

func (p *Parser) endTransaction(m match) error {
	p.inTransaction = false
	p.logger.Debug("transaction end", "offset", m.offset)
	return nil
}

func (p *Parser) scanDanglingRow(m match) error {
	p.record(Diagnostic{
		Kind:    DiagDanglingRow,
		Offset:  m.offset,
		Message: fmt.Sprintf("using table %q for dangling row", FallbackTableID),
		Context: m.whole(),
	})

	t, err := p.db.fallbackTable()
	if err != nil {
		return p.reference(err, m.offset, "table "+FallbackTableID)
	}
	return p.applyRow(t, m.group(1) == "-", m.group(2), m.group(3), m.offset)
}

// applyRow applies one row production to t.
//
// Inside a transaction a row id prefixed with '-' deletes the existing row
// before the new cells are added, and a production prefixed with '-' is a
// pure delete. Outside a transaction both markers are ignored and the '-'
// stays part of the id.
func (p *Parser) applyRow(t *Table, cut bool, rawID, rawCells string, offset int) error {
	id := strings.TrimSpace(rawID)

	if p.inTransaction && (cut || strings.HasPrefix(id, "-")) {
		id = strings.TrimPrefix(id, "-")
		if _, err := p.db.DeleteRow(t, id); err != nil {
			return p.reference(err, offset, "row "+id)
		}
	}
	if p.inTransaction && cut {
		return nil
	}

	row, replaced, err := p.db.AddRow(t, id, cellPattern.FindAllString(rawCells, -1))
	if err != nil {
		return p.reference(err, offset, "row "+id)
	}
	if replaced {
		p.record(Diagnostic{
			Kind:    DiagDuplicateRowKey,
			Offset:  offset,
			Message: "duplicate rowid/scope " + t.rowKey(row.ID, row.Scope),
			Context: rawCells,
		})
	}
	return nil
}

// reference annotates a *ReferenceError with its location and either returns
// it (RefFailFast) or records it and returns nil (RefCollectAll). Other
// errors are returned unchanged.
func (p *Parser) reference(err error, offset int, construct string) error {
	var re *ReferenceError
	if !errors.As(err, &re) {
		return err
	}
	re.Offset = offset
	re.Construct = construct

	if p.refMode == RefFailFast {
		return re
	}
	p.record(Diagnostic{
		Kind:    DiagReference,
		Offset:  offset,
		Message: re.Error(),
	})
	return nil
}

func (p *Parser) noise(rest string, offset int) {
	snippet := rest
	if len(snippet) > contextLen {
		snippet = snippet[:contextLen]
	}
	p.record(Diagnostic{
		Kind:    DiagSyntaxNoise,
		Offset:  offset,
		Message: "syntax error while parsing mork data",
		Context: snippet,
	})
}

// record stores d and logs it.
func (p *Parser) record(d Diagnostic) {
	p.diagnostics = append(p.diagnostics, d)

	attrs := []any{"kind", d.Kind, "offset", d.Offset}
	if d.Context != "" {
		attrs = append(attrs, "context", d.Context)
	}
	switch d.Kind {
	case DiagSyntaxNoise:
		p.logger.Error(d.Message, attrs...)
	default:
		p.logger.Warn(d.Message, attrs...)
	}
}
