package session

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
)

// PebbleStore is a Store on top of a Pebble LSM database.
// Keys are stored under the "session:" prefix.
type PebbleStore struct {
	db *pebble.DB
}

const pebblePrefix = "session:"

// OpenPebble opens (or creates) the database in dir. A nil fs uses the
// real filesystem; tests pass vfs.NewMem().
func OpenPebble(dir string, fs vfs.FS) (*PebbleStore, error) {
	opts := &pebble.Options{}
	if fs != nil {
		opts.FS = fs
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (p *PebbleStore) Get(key string) ([]byte, error) {
	value, closer, err := p.db.Get([]byte(pebblePrefix + key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer closer.Close()

	// value is only valid until closer.Close
	return append([]byte(nil), value...), nil
}

func (p *PebbleStore) Set(key string, value []byte) error {
	if err := p.db.Set([]byte(pebblePrefix+key), value, pebble.Sync); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}
