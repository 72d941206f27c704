// Package codec implements the value escaping dialects used by the Mork
// text format.
//
// Two unrelated dialects live here:
//   - The cell dialect read from Mork files: backslash escapes and $XX hex
//     escapes (UnescapeCell), plus the pre-pass that hides structural
//     delimiters inside cells before scanning (EscapeReservedCellChars).
//   - The output dialect used for derived contact fields: control and
//     high bytes rendered as \xHH (EncodeForOutput).
//
// Normalize performs the line-level cleanup that must run before any of the
// structural parsing in package mork.
//
// All functions operate on bytes, not runes. Mork values are byte strings;
// $E9 decodes to the single byte 0xE9 regardless of the file's declared
// charset.
package codec
