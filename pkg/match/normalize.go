package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize folds s for comparison: NFKC (full-width forms become ASCII),
// case folding, then every rune that is not a letter or a digit is dropped.
//
//	Normalize("Elden Ring")      == "eldenring"
//	Normalize("ＣＹＢＥＲＰＵＮＫ ２０７７") == "cyberpunk2077"
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded := folder.String(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Runs splits s into alternating digit and non-digit runs.
//
//	Runs("2take1") == []string{"2", "take", "1"}
func Runs(s string) []string {
	var runs []string
	start := 0
	var prevDigit bool
	for i, r := range s {
		digit := unicode.IsDigit(r)
		if i > 0 && digit != prevDigit {
			runs = append(runs, s[start:i])
			start = i
		}
		prevDigit = digit
	}
	if start < len(s) {
		runs = append(runs, s[start:])
	}
	return runs
}

// mixed reports whether s holds both letters and digits
func mixed(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLetter(r):
			letter = true
		}
		if letter && digit {
			return true
		}
	}
	return false
}
