package pipeline

import (
	"strings"
	"unicode"
)

// digitConfusions are applied in order to all-digit tokens only.
var digitConfusions = [][2]string{
	{"l", "1"},
	{"O", "0"},
	{"S", "5"},
	{"|", "I"},
}

// CleanText collapses whitespace runs to single spaces and applies the
// digit-confusion table to tokens made only of digits.
//
// A token made only of digits never contains a confusable character, so in
// practice the table leaves the text unchanged.
func CleanText(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		if isDigits(word) {
			for _, r := range digitConfusions {
				word = strings.ReplaceAll(word, r[0], r[1])
			}
			words[i] = word
		}
	}
	return strings.Join(words, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
