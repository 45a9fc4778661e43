package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bastiangx/shelfserve/internal/metrics"
	"github.com/bastiangx/shelfserve/internal/utils"
	"github.com/bastiangx/shelfserve/pkg/browse"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/config"
	"github.com/bastiangx/shelfserve/pkg/session"
	"github.com/bastiangx/shelfserve/pkg/shelf"
	"github.com/charmbracelet/log"
)

// globalFlags are the persistent root flags
type globalFlags struct {
	configPath  string
	catalogPath string
	debug       bool
}

// app is everything a subcommand needs, built once per run.
type app struct {
	cfg         *config.Config
	configPath  string
	catalogPath string
	shelf       *shelf.Shelf
	closers     []io.Closer
}

func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, configPath, err := config.LoadConfigWithPriority(flags.configPath)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	resolver, err := utils.NewPathResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize path resolver: %w", err)
	}

	want := flags.catalogPath
	if want == "" {
		want = cfg.Catalog.Path
	}
	catalogPath, err := resolver.FindCatalog(want)
	if err != nil {
		return nil, fmt.Errorf("no catalog found (looked for %q and data/%s): %w", want, utils.CatalogNames[0], err)
	}
	c, err := catalog.LoadFile(ctx, catalogPath)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using catalog at: %s (%d products, %d invalid)", catalogPath, c.Len(), c.Invalid())

	a := &app{cfg: cfg, configPath: configPath, catalogPath: catalogPath}

	store, err := a.openStore(resolver.ConfigDir())
	if err != nil {
		// recent searches are optional, fall back to memory
		log.Warnf("History will not persist: %v", err)
		store = session.NewMemoryStore()
	}

	history := session.NewHistory(store, session.HistoryOptions{
		Capacity:     cfg.History.Capacity,
		Key:          cfg.History.Key,
		OnWriteError: metrics.IncHistoryWriteFailure,
	})
	history.Load()

	a.shelf = shelf.New(c, shelf.Options{
		FuzzyThreshold: cfg.Search.FuzzyThreshold,
		Buckets:        catalog.DefaultBuckets(),
		PageSize:       cfg.Search.PageSize,
		MaxPageSize:    cfg.Search.MaxPageSize,
		MaxQueryLen:    cfg.Search.MaxQueryLen,
		SuggestLimit:   cfg.Search.SuggestLimit,
		SuggestCache:   cfg.Search.SuggestCache,
		DefaultSort:    browse.SortKey(cfg.Search.DefaultSort),
		History:        history,
		Preferences:    session.NewPreferenceStore(store),
	})
	return a, nil
}

// openStore opens the session store named by [history] path; none means memory
func (a *app) openStore(configDir string) (session.Store, error) {
	dir := a.cfg.History.Path
	if dir == "" {
		return session.NewMemoryStore(), nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(configDir, dir)
	}
	if err := utils.EnsureDir(filepath.Dir(dir)); err != nil {
		return nil, err
	}
	store, err := session.OpenPebble(dir, nil)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)
	log.Debugf("Session store at: %s", dir)
	return store, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// stdoutIsTerminal reports whether stdout is an interactive terminal
func stdoutIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
