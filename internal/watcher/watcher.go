// Package watcher reloads the catalog when its file changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bastiangx/shelfserve/internal/logger"
	"github.com/bastiangx/shelfserve/internal/metrics"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the file must stay quiet before a reload.
const DefaultDebounce = 250 * time.Millisecond

// Replacer receives freshly loaded catalogs.
type Replacer interface {
	Replace(c *catalog.Catalog)
}

// CatalogWatcher watches one catalog file. Editors that save through a
// temp file and rename are covered because the parent directory is watched.
type CatalogWatcher struct {
	path     string
	target   Replacer
	debounce time.Duration
	fsw      *fsnotify.Watcher
	log      *log.Logger
}

// New starts watching path. A debounce below 1 uses DefaultDebounce.
func New(path string, target Replacer, debounce time.Duration) (*CatalogWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &CatalogWatcher{
		path:     abs,
		target:   target,
		debounce: debounce,
		fsw:      fsw,
		log:      logger.New("watcher"),
	}, nil
}

// Run handles file events until ctx is cancelled, then closes the watcher.
func (w *CatalogWatcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	w.log.Info("Watching catalog", "path", w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.log.Debug("Catalog changed", "op", event.Op)
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", "err", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

// reload keeps the current snapshot when the new file does not load
func (w *CatalogWatcher) reload(ctx context.Context) {
	c, err := catalog.LoadFile(ctx, w.path)
	metrics.IncCatalogReload(err)
	if err != nil {
		w.log.Error("Reload failed, keeping current catalog", "err", err)
		return
	}
	w.target.Replace(c)
	w.log.Info("Catalog reloaded", "products", c.Len(), "invalid", c.Invalid())
}
