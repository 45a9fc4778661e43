package utils

import (
	"strings"
	"unicode/utf8"
)

// ClampQuery trims surrounding space and cuts s to at most max runes.
// A max below 1 disables the cut.
func ClampQuery(s string, max int) string {
	s = strings.TrimSpace(s)
	if max < 1 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// IsRepetitive checks if a string is one rune repeated 3+ times ("aaa", "嗯嗯嗯")
func IsRepetitive(s string) bool {
	if utf8.RuneCountInString(s) <= 2 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	for _, r := range s {
		if r != first {
			return false
		}
	}
	return true
}

// IsSuggestable reports whether input is worth running autocomplete for.
func IsSuggestable(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !IsRepetitive(s)
}
