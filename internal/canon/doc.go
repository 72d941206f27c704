// Package canon serializes flattened contact records as canonical JSON.
//
// Canonical form is what the store persists and what golden files compare:
//   - object keys sorted by UTF-16 code units (RFC 8785)
//   - no HTML escaping
//   - strings NFC normalized
//   - values that are not valid UTF-8 are decoded as ISO-8859-1, the charset
//     Mork files declare with (f=iso-8859-1)
//
// Identical records always produce identical bytes.
package canon
