package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pders01/reels/internal/config"
	"github.com/pders01/reels/internal/debuglog"
	"github.com/pders01/reels/internal/media"
	"github.com/pders01/reels/internal/plugins"
	"github.com/pders01/reels/internal/plugins/user"
	"github.com/pders01/reels/internal/search"
	"github.com/pders01/reels/internal/source"
	"github.com/pders01/reels/internal/storage"
	"github.com/pders01/reels/internal/validation"
)

// env is everything a command needs, opened from the config and flags.
type env struct {
	cfg      *config.Config
	store    *storage.Store
	manager  *source.Manager
	searcher search.Searcher
	index    *search.BleveEngine
}

// pathsFor picks the validation mode: paths typed on the command line are
// trusted, paths from the config file must stay inside the app directories.
func pathsFor(explicit bool) *validation.PathHandler {
	if explicit {
		return validation.NewPermissivePathHandler()
	}
	return validation.NewSecurePathHandler()
}

func loadConfig() (*config.Config, error) {
	path := ""
	if configPath != "" {
		p, err := pathsFor(true).ConfigPath(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	dbFile := cfg.Database.Path
	if dbPath != "" {
		dbFile = dbPath
	}
	if cfg.Database.Path, err = pathsFor(dbPath != "").DBPath(dbFile); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	if cfg.Database.SearchIndex != "" {
		if cfg.Database.SearchIndex, err = pathsFor(false).IndexPath(cfg.Database.SearchIndex); err != nil {
			return nil, fmt.Errorf("invalid search index path: %w", err)
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if level == debuglog.LevelOff {
		return debuglog.Setup(level)
	}
	logFile, err := pathsFor(false).LogPath(cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("invalid log path: %w", err)
	}
	return debuglog.Setup(level, logFile)
}

func openEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg); err != nil {
		return nil, err
	}

	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	detector, err := media.NewTypeDetector()
	if err != nil {
		store.Close()
		return nil, err
	}
	registry := plugins.NewRegistry(cfg.Feed.HTTPTimeout)
	user.RegisterAll(registry)

	e := &env{
		cfg:      cfg,
		store:    store,
		manager:  source.NewManager(store, cfg, detector, registry),
		searcher: search.NewEngine(store),
	}

	// The bleve index is optional; the store scan keeps search working
	// without it.
	if cfg.Database.SearchIndex != "" {
		idx, err := search.NewBleveEngine(store, cfg.Database.SearchIndex)
		if err != nil {
			debuglog.Warnf("search index unavailable, falling back to store scan: %v", err)
		} else {
			e.index = idx
			e.searcher = idx
			e.manager.SetIndexer(idx)
		}
	}
	return e, nil
}

func (e *env) dataDir() string {
	return filepath.Dir(e.cfg.Database.Path)
}

func (e *env) Close() error {
	var errs []error
	if e.index != nil {
		errs = append(errs, e.index.Close())
	}
	errs = append(errs, e.store.Close(), debuglog.Close())
	return errors.Join(errs...)
}
