/*
Package session keeps the small pieces of per-user state that outlive a
single query: the recent search history and the display preferences.

State lives behind a Store, a plain key/value interface, so the same code
runs against an in-memory map in tests and the CLI, or a Pebble database
on disk for the long-running server:

	store, err := session.OpenPebble("~/.config/shelfserve/state", nil)
	history := session.NewHistory(store, session.HistoryOptions{})
	history.Load()
	history.Add("elden ring")

Nothing in this package returns storage failures to the search path.
*/
package session

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Store.Get for a key that was never set.
var ErrNotFound = errors.New("key not found")

// Store is the key/value backend for session state.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// MemoryStore is a Store backed by a map. The zero value is ready to use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}
