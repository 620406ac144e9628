package pipeline

import (
	"strings"
	"unicode"
)

// isUpper reports whether s has at least one cased letter and no lower-case
// letters. "IBM" and "3M CO" are upper, "123" is not.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest: "acme SHOP" -> "Acme Shop", "o'neil" -> "O'Neil".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		isCased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case isCased && prevCased:
			b.WriteRune(unicode.ToLower(r))
		case isCased:
			b.WriteRune(unicode.ToTitle(r))
		default:
			b.WriteRune(r)
		}
		prevCased = isCased
	}
	return b.String()
}
