package session

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
)

const (
	// DefaultHistoryKey is the store key holding the JSON list of terms.
	DefaultHistoryKey = "searchHistory"
	// DefaultHistoryCap is how many recent searches are kept.
	DefaultHistoryCap = 5
)

// HistoryOptions configures a History. Zero fields take the defaults.
type HistoryOptions struct {
	Capacity int
	Key      string
	// OnWriteError is called after a failed store write, e.g. to count it.
	OnWriteError func(error)
}

// History is the recent-search list: most recent first, never more than
// Capacity entries, no two entries equal ignoring case.
// It is safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	store   Store
	terms   []string
	cap     int
	key     string
	onWrite func(error)
}

// NewHistory creates an empty history over store. Call Load to read the
// persisted list.
func NewHistory(store Store, opts HistoryOptions) *History {
	if opts.Capacity < 1 {
		opts.Capacity = DefaultHistoryCap
	}
	if opts.Key == "" {
		opts.Key = DefaultHistoryKey
	}
	return &History{
		store:   store,
		terms:   []string{},
		cap:     opts.Capacity,
		key:     opts.Key,
		onWrite: opts.OnWriteError,
	}
}

// Capacity returns the maximum number of kept terms.
func (h *History) Capacity() int {
	return h.cap
}

// Load replaces the in-memory list with the persisted one. A missing key
// or an unreadable value leaves the history empty.
func (h *History) Load() {
	data, err := h.store.Get(h.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warnf("Search history unavailable: %v", err)
		}
		return
	}

	var stored []string
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Warnf("Discarding unreadable search history: %v", err)
		return
	}

	// stored data may predate a smaller cap or carry dupes
	terms := make([]string, 0, h.cap)
	seen := utils.NewSeenFilter()
	for _, t := range stored {
		t = strings.TrimSpace(t)
		if t == "" || !seen.ShouldInclude(t) {
			continue
		}
		if len(terms) == h.cap {
			break
		}
		terms = append(terms, t)
	}

	h.mu.Lock()
	h.terms = terms
	h.mu.Unlock()
	log.Debugf("Loaded %d history entries", len(terms))
}

// Add moves term to the front, dropping any case-insensitive duplicate and
// anything past capacity, then writes the list through to the store.
// Blank terms are ignored.
func (h *History) Add(term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	next := make([]string, 0, h.cap)
	next = append(next, term)
	seen := utils.NewSeenFilter(term)
	for _, t := range h.terms {
		if len(next) == h.cap {
			break
		}
		if seen.ShouldInclude(t) {
			next = append(next, t)
		}
	}
	h.terms = next
	h.persist(next)
}

// Remove drops term, compared case-insensitively.
func (h *History) Remove(term string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := make([]string, 0, len(h.terms))
	for _, t := range h.terms {
		if !strings.EqualFold(t, strings.TrimSpace(term)) {
			next = append(next, t)
		}
	}
	if len(next) == len(h.terms) {
		return
	}
	h.terms = next
	h.persist(next)
}

// Clear empties the history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terms = []string{}
	h.persist(h.terms)
}

// Terms returns a copy of the list, most recent first.
func (h *History) Terms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string{}, h.terms...)
}

// Len returns the number of kept terms.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.terms)
}

// Recall returns up to limit entries that fuzzy-match pattern, best first.
// An empty pattern returns the most recent entries.
func (h *History) Recall(pattern string, limit int) []string {
	terms := h.Terms()
	if limit < 1 || limit > len(terms) {
		limit = len(terms)
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return terms[:limit]
	}

	matches := fuzzy.Find(pattern, terms)
	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// persist writes terms with h.mu held so writes land in order.
// Failures are logged and reported to onWrite only.
func (h *History) persist(terms []string) {
	data, err := json.Marshal(terms)
	if err == nil {
		err = h.store.Set(h.key, data)
	}
	if err != nil {
		log.Warnf("Failed to save search history: %v", err)
		if h.onWrite != nil {
			h.onWrite(err)
		}
	}
}
