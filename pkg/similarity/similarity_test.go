package similarity

import (
	"fmt"
	"testing"
)

func TestScore(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 0},
		{"", "elden", 0},
		{"elden", "", 0},
		{"Elden Ring", "elden ring", 1},
		{"ELDEN", "elden", 1},
		// subsequence of the longer string
		{"abc", "aXbXc", 1},
		{"eldenring", "theeldenringdeluxe", 1},
		// only the leading 2 can be walked
		{"2077", "2take1", 0.25},
		{"2take1", "2077", 0.25},
		{"take", "eldenring", 0.25},
		{"xyz", "abc", 0},
		// cursor never moves backwards
		{"abc", "cab", 2.0 / 3.0},
		{"cab", "abc", 1.0 / 3.0},
		// unicode
		{"艾尔登法环", "艾尔登法环黄金树之影", 1},
		{"法环", "艾尔登法环", 1},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s→%s", tc.a, tc.b), func(t *testing.T) {
			got := Score(tc.a, tc.b)
			if diff := got - tc.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Score(%q, %q) = %v, expected %v", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []string{"a", "ab", "cyberpunk2077", "2take1", "赛博朋克", "Hades II", "x"}
	for _, a := range inputs {
		for _, b := range inputs {
			s := Score(a, b)
			if s < 0 || s > 1 {
				t.Errorf("Score(%q, %q) = %v out of range", a, b, s)
			}
		}
	}
}

func BenchmarkScore(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Score("cyberpnk", "cyberpunk2077phantomliberty")
	}
}
