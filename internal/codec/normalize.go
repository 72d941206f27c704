package codec

import "strings"

// Normalize prepares raw Mork text for structural scanning:
//
//  1. the first "//" comment is removed up to the end of its line
//  2. line continuations (a backslash directly before CR or LF) are removed
//  3. every CR or LF is removed together with the whitespace following it
//
// The result contains no line breaks.
func Normalize(data string) string {
	data = stripFirstComment(data)
	data = stripContinuations(data)
	return collapseLines(data)
}

func stripFirstComment(data string) string {
	start := strings.Index(data, "//")
	if start < 0 {
		return data
	}
	end := strings.IndexByte(data[start:], '\n')
	if end < 0 {
		return data[:start]
	}
	return data[:start] + data[start+end:]
}

func stripContinuations(data string) string {
	if !strings.Contains(data, "\\\n") && !strings.Contains(data, "\\\r") {
		return data
	}
	var b strings.Builder
	b.Grow(len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) && (data[i+1] == '\n' || data[i+1] == '\r') {
			i++
			continue
		}
		b.WriteByte(data[i])
	}
	return b.String()
}

func collapseLines(data string) string {
	var b strings.Builder
	b.Grow(len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != '\n' && c != '\r' {
			b.WriteByte(c)
			continue
		}
		for i+1 < len(data) && isSpace(data[i+1]) {
			i++
		}
	}
	return b.String()
}

// isSpace matches the ASCII whitespace class used by the scanner.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
