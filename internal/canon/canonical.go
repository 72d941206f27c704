package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// MarshalRecord produces canonical JSON for a single record.
func MarshalRecord[R ~map[string]string](record R) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalRecords produces a canonical JSON array of records, preserving
// slice order.
func MarshalRecords[R ~map[string]string](records []R) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, record := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeObject(&buf, record); err != nil {
			return nil, fmt.Errorf("record[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// String returns s as valid, NFC-normalized UTF-8.
func String(s string) (string, error) {
	if !utf8.ValidString(s) {
		decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
		if err != nil {
			return "", fmt.Errorf("decode iso-8859-1: %w", err)
		}
		s = decoded
	}
	return norm.NFC.String(s), nil
}

func writeObject[R ~map[string]string](buf *bytes.Buffer, record R) error {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeString(buf, record[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeString writes s as a JSON string. Only control characters, backslash
// and quote are escaped; U+2028 and U+2029 are written literally.
func writeString(buf *bytes.Buffer, s string) error {
	normalized, err := String(s)
	if err != nil {
		return err
	}

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	out = unescapeLineSeparators(out)
	buf.Write(out)
	return nil
}

// unescapeLineSeparators turns \u2028 and \u2029 escapes back into literal
// characters, leaving \\u2028 (an escaped backslash followed by text) alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	result := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) && data[i+1] == '\\' {
			result = append(result, '\\', '\\')
			i++
			continue
		}
		if bytes.HasPrefix(data[i:], []byte(`\u2028`)) {
			result = append(result, "\u2028"...)
			i += 5
			continue
		}
		if bytes.HasPrefix(data[i:], []byte(`\u2029`)) {
			result = append(result, "\u2029"...)
			i += 5
			continue
		}
		result = append(result, data[i])
	}
	return result
}

// compareKeysRFC8785 orders keys by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
