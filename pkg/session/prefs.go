package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

const (
	// PreferencesKey is the store key holding the JSON preferences object.
	PreferencesKey = "preferences"
	DefaultLocale  = "zh-CN"
)

// Preferences are the display settings that follow a user between sessions.
type Preferences struct {
	DarkMode bool   `json:"darkMode" msgpack:"dark"`
	Locale   string `json:"locale" msgpack:"locale"`
}

// DefaultPreferences returns light mode in the default locale.
func DefaultPreferences() Preferences {
	return Preferences{Locale: DefaultLocale}
}

// PreferenceStore reads and writes Preferences through a Store.
type PreferenceStore struct {
	mu    sync.Mutex
	store Store
	cur   Preferences
}

// NewPreferenceStore loads the persisted preferences, falling back to the
// defaults when none are stored or they cannot be read.
func NewPreferenceStore(store Store) *PreferenceStore {
	ps := &PreferenceStore{store: store, cur: DefaultPreferences()}

	data, err := store.Get(PreferencesKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		log.Warnf("Preferences unavailable: %v", err)
	default:
		var p Preferences
		if err := json.Unmarshal(data, &p); err != nil {
			log.Warnf("Discarding unreadable preferences: %v", err)
			break
		}
		if p.Locale == "" {
			p.Locale = DefaultLocale
		}
		ps.cur = p
	}
	return ps
}

// Get returns the current preferences.
func (ps *PreferenceStore) Get() Preferences {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.cur
}

// Set saves p. The in-memory value is updated even when the write fails,
// so the session keeps the user's choice.
func (ps *PreferenceStore) Set(p Preferences) error {
	if p.Locale == "" {
		p.Locale = DefaultLocale
	}
	ps.mu.Lock()
	ps.cur = p
	ps.mu.Unlock()

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := ps.store.Set(PreferencesKey, data); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
