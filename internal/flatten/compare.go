package flatten

import "strings"

// CompareIDs orders Mork ids.
//
// When both ids are non-empty hexadecimal strings they compare as unsigned
// integers of arbitrary width ("9" < "80" < "A0"). Otherwise they compare as
// plain strings. The result is -1, 0 or +1.
func CompareIDs(a, b string) int {
	if isHex(a) && isHex(b) {
		return compareHex(a, b)
	}
	return strings.Compare(a, b)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if hexDigit(s[i]) < 0 {
			return false
		}
	}
	return true
}

// compareHex compares two valid hex strings numerically without parsing them
// into fixed-width integers.
func compareHex(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := 0; i < len(a); i++ {
		da, db := hexDigit(a[i]), hexDigit(b[i])
		if da != db {
			if da < db {
				return -1
			}
			return 1
		}
	}
	return 0
}

func hexDigit(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
