// Package mork parses Mork text databases into an in-memory table store.
//
// Mork is the dictionary-interned, append-only text format used by Mozilla
// address books. A file is a sequence of blocks:
//
//	< <(a=c)> // (f=iso-8859-1) (80=DisplayName)(81=PrimaryEmail) >   column dictionary
//	<(90=Alice)(91=alice@example.com)>                                atom dictionary
//	{1:^80 {(k^80:c)(s=9)} [1(^80^90)(^81^91)] }                     table with one row
//	@$${2{@ [-1(^80=Bob)] @$$}2}@                                     transaction
//
// # Parsing Model
//
// Parse runs in three stages over a single in-memory buffer:
//
//  1. codec.Normalize removes the header comment, line continuations and
//     line breaks.
//  2. codec.EscapeReservedCellChars hides ')', '>', '}' and ']' inside cells.
//  3. The scanner tries an ordered list of productions at each offset and
//     commits to the first match. Unrecognized bytes are skipped one at a
//     time and reported as SyntaxNoise diagnostics.
//
// Dictionaries are consulted as soon as a table or row is scanned, so ids
// must be defined before they are referenced.
//
// # Errors
//
// Only two conditions are fatal:
//   - ErrFormatMismatch: the input lacks the "<mdb:mork" signature.
//   - *ReferenceError: a table, row or cell names an undefined column or atom
//     id. Fatal in RefFailFast mode (the default); in RefCollectAll mode the
//     enclosing row or table block is skipped and a diagnostic is recorded.
//
// Duplicate row keys, dangling rows and syntax noise are recovered locally and
// reported through Result.Diagnostics and the configured slog.Logger.
package mork
