package codec

import (
	"fmt"
	"strings"
)

// backslashEscapes maps the byte following a backslash to its decoded value.
var backslashEscapes = map[byte]byte{
	'\\': '\\',
	'$':  '$',
	'0':  0x00,
	'a':  0x07,
	'b':  0x08,
	't':  0x09,
	'n':  0x0A,
	'v':  0x0B,
	'f':  0x0C,
	'r':  0x0D,
}

// UnescapeCell decodes the cell dialect.
//
// Recognized shapes:
//   - a backslash followed by one of \ $ 0 a b t n v f r
//   - a dollar sign followed by exactly two hex digits
//
// Any other byte sequence passes through unchanged.
func UnescapeCell(s string) string {
	if strings.IndexByte(s, '\\') < 0 && strings.IndexByte(s, '$') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			if decoded, ok := backslashEscapes[s[i+1]]; ok {
				b.WriteByte(decoded)
				i++
				continue
			}
		case c == '$' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]):
			b.WriteByte(hexValue(s[i+1])<<4 | hexValue(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// EscapeReservedCellChars hides structural delimiters inside every
// parenthesized cell span of data.
//
// A span starts at '(' and ends at the first ')' that is not escaped by a
// backslash; at least one byte of content is required, so "()" extends to the
// next closing paren. Inside a span:
//
//	\\n -> $0A
//	\)  -> $29
//	>   -> $3E
//	}   -> $7D
//	]   -> $5D
//
// The rewritten forms decode back through UnescapeCell. Text outside spans is
// copied verbatim, as is an unterminated trailing span.
func EscapeReservedCellChars(data string) string {
	var b strings.Builder
	b.Grow(len(data) + len(data)/16)

	i := 0
	for i < len(data) {
		open := strings.IndexByte(data[i:], '(')
		if open < 0 {
			b.WriteString(data[i:])
			break
		}
		open += i
		end := cellSpanEnd(data, open)
		if end < 0 {
			b.WriteString(data[i:])
			break
		}

		b.WriteString(data[i:open])
		b.WriteByte('(')
		escapeSpan(&b, data[open+1:end])
		b.WriteByte(')')
		i = end + 1
	}
	return b.String()
}

// cellSpanEnd returns the index of the ')' closing the span opened at open,
// or -1 if the span is unterminated.
func cellSpanEnd(data string, open int) int {
	for j := open + 1; j < len(data); j++ {
		switch data[j] {
		case '\\':
			j++
		case ')':
			if j > open+1 {
				return j
			}
		}
	}
	return -1
}

func escapeSpan(b *strings.Builder, content string) {
	for k := 0; k < len(content); k++ {
		c := content[k]
		switch c {
		case '\\':
			switch {
			case strings.HasPrefix(content[k:], `\\n`):
				b.WriteString("$0A")
				k += 2
			case k+1 < len(content) && content[k+1] == ')':
				b.WriteString("$29")
				k++
			case k+1 < len(content):
				b.WriteByte(c)
				b.WriteByte(content[k+1])
				k++
			default:
				b.WriteByte(c)
			}
		case '>':
			b.WriteString("$3E")
		case '}':
			b.WriteString("$7D")
		case ']':
			b.WriteString("$5D")
		default:
			b.WriteByte(c)
		}
	}
}

// EncodeForOutput renders control bytes (0x00-0x1F), high bytes (0x80-0xFF)
// and backslash in a printable form: \\, \0, \r, \n, or \xHH.
//
// This is an output encoding for derived contact fields and is unrelated to
// the cell dialect decoded by UnescapeCell.
func EncodeForOutput(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == 0x00:
			b.WriteString(`\0`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\n':
			b.WriteString(`\n`)
		case c < 0x20 || c >= 0x80:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
