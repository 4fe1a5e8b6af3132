package linkhdr

import "strings"

func isHTTPWhitespace(r rune) bool {
	return r == ' ' || r == '\t'
}

// relTypes splits a rel value into its relation types.
func relTypes(rel string) []string {
	return strings.FieldsFunc(rel, isHTTPWhitespace)
}

func hasRelType(rel string, want string) bool {
	for _, r := range relTypes(rel) {
		if equalFoldASCII(r, want) {
			return true
		}
	}
	return false
}

// equalFoldASCII is strings.EqualFold without Unicode case folding.
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func toLowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				b[j] = lowerASCII(b[j])
			}
			return string(b)
		}
	}
	return s
}
