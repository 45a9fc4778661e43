package suggest

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultCacheSize is how many prefixes a Cache keeps by default.
const DefaultCacheSize = 256

type cacheEntry struct {
	suggestions []Suggestion
	lastAccess  int64
}

// Cache keeps the suggestion lists of recently completed prefixes and
// evicts the least recently used one when full.
type Cache struct {
	entries     map[string]*cacheEntry
	accessCount int64
	hits        int64
	misses      int64
	maxEntries  int
	mu          sync.Mutex
}

// NewCache creates a cache holding at most maxEntries prefixes.
func NewCache(maxEntries int) *Cache {
	if maxEntries < 1 {
		maxEntries = DefaultCacheSize
	}
	return &Cache{
		entries:    make(map[string]*cacheEntry, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns the cached list for prefix. Callers must not modify it.
func (c *Cache) Get(prefix string) ([]Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[prefix]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	e.lastAccess = c.nextAccessTime()
	return e.suggestions, true
}

// Put stores suggestions for prefix, evicting the oldest entry if needed.
func (c *Cache) Put(prefix string, suggestions []Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[prefix]; ok {
		e.suggestions = suggestions
		e.lastAccess = c.nextAccessTime()
		return
	}
	if len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}
	c.entries[prefix] = &cacheEntry{suggestions: suggestions, lastAccess: c.nextAccessTime()}
}

// Len returns the number of cached prefixes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]int{
		"cacheEntries": len(c.entries),
		"maxEntries":   c.maxEntries,
		"cacheHits":    int(c.hits),
		"cacheMisses":  int(c.misses),
	}
}

func (c *Cache) nextAccessTime() int64 {
	c.accessCount++
	return c.accessCount
}

func (c *Cache) evictLRU() {
	var oldest string
	var oldestTime int64 = math.MaxInt64

	for prefix, e := range c.entries {
		if e.lastAccess < oldestTime {
			oldestTime = e.lastAccess
			oldest = prefix
		}
	}
	if oldestTime != math.MaxInt64 {
		delete(c.entries, oldest)
		log.Debugf("Evicted prefix '%s' from suggestion cache", oldest)
	}
}
