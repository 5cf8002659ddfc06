package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	cachepkg "github.com/darkcaves/dragonites/pkg/cache/sqlite"
	"github.com/darkcaves/dragonites/pkg/config"
	"github.com/darkcaves/dragonites/pkg/logging"
	"github.com/darkcaves/dragonites/pkg/metrics"
	"github.com/darkcaves/dragonites/pkg/provider"
	"github.com/darkcaves/dragonites/pkg/provider/pokeapi"
	"github.com/darkcaves/dragonites/pkg/resolver"
	"github.com/darkcaves/dragonites/pkg/roster"
	"github.com/darkcaves/dragonites/pkg/storage"
)

// app holds the components every command shares.
type app struct {
	cfg      *config.Config
	db       *sql.DB
	logger   *slog.Logger
	metrics  *metrics.Recorder
	store    *cachepkg.Store
	resolver *resolver.Resolver
}

func openApp(configPath string) (*app, error) {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Log.Logging())

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	store, err := cachepkg.New(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}

	rec := metrics.NewRecorder()
	client := pokeapi.NewClient(pokeapi.Config{
		BaseURL: cfg.Provider.BaseURL,
		Timeout: cfg.Provider.Timeout,
	})
	source := provider.NewRetryingSource(client, logger, rec, cfg.Provider.RetryAttempts, cfg.Provider.RetryBackoff)

	res := resolver.New(store, source, resolver.Options{
		TTL:              cfg.Cache.TTL,
		BulkDelay:        cfg.Bulk.Delay,
		SpeciesLimit:     cfg.Search.SpeciesLimit,
		MaxSearchResults: cfg.Search.MaxResults,
		Logger:           logger,
		Metrics:          rec,
	})

	logging.Debug(logger, "dragonites ready", logging.FieldPath, cfg.DBPath)
	return &app{cfg: cfg, db: db, logger: logger, metrics: rec, store: store, resolver: res}, nil
}

func (a *app) roster() (*roster.SQLiteRoster, error) {
	r, err := roster.New(a.db)
	if err != nil {
		return nil, fmt.Errorf("init roster: %w", err)
	}
	return r, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
