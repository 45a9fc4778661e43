package utils

import (
	"strings"
)

// SeenFilter drops case-insensitive repeats from a stream of strings.
// Not safe for concurrent use; create one per pass.
type SeenFilter struct {
	seen map[string]bool
}

// NewSeenFilter creates a filter that already treats every exclude as seen.
func NewSeenFilter(exclude ...string) *SeenFilter {
	seen := make(map[string]bool, len(exclude)+8)
	for _, e := range exclude {
		seen[strings.ToLower(e)] = true
	}
	return &SeenFilter{seen: seen}
}

// ShouldInclude returns true the first time a string is offered
// and false for any later case-insensitive repeat.
func (f *SeenFilter) ShouldInclude(s string) bool {
	key := strings.ToLower(s)
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}
