// Package similarity scores how closely a query resembles a title.
//
// The score is a cheap subsequence approximation, not an edit distance:
// insertions in the longer string are never penalized, only runes of the
// shorter string that cannot be found ahead of the cursor.
package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Score returns a value in [0,1] describing how much of the shorter string
// can be walked, in order, inside the longer one.
//
// When both strings have the same rune length a is treated as the shorter
// one, so Score(a, b) and Score(b, a) may differ.
func Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 1.0
	}

	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}

	matches := 0
	cursor := 0
	for _, r := range short {
		if idx := indexFrom(long, r, cursor); idx >= 0 {
			matches++
			cursor = idx + 1
		}
	}
	return float64(matches) / float64(len(short))
}

// indexFrom finds the next rune equal to r at or after start
func indexFrom(runes []rune, r rune, start int) int {
	for i := start; i < len(runes); i++ {
		if equalFold(runes[i], r) {
			return i
		}
	}
	return -1
}

// Helper function for case-insensitive rune equality
func equalFold(a, b rune) bool {
	if a == b {
		return true
	}

	// ASCII folding first
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}

	return unicode.SimpleFold(a) == b || unicode.SimpleFold(b) == a || unicode.ToLower(a) == unicode.ToLower(b)
}
