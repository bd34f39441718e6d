package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/browser"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/browser/chrome"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/config/file"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/storage/postgres"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/storage/sqlite"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/cli"
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
	"github.com/AlbertoRQ/Baratazo/internal/core/services"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
	"github.com/AlbertoRQ/Baratazo/internal/normalisers/listing"
)

// appRuntime assembles the services for one command invocation.
type appRuntime struct{}

var _ cli.Runtime = appRuntime{}

// Open connects the catalog store and wires the crawl pipeline around it.
// No browser starts until a crawl opens a session.
func (appRuntime) Open(ctx context.Context, settings domain.AppSettings) (*cli.Services, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	store, err := openCatalogStore(ctx, settings.Storage)
	if err != nil {
		return nil, err
	}

	factory := browser.Throttled(
		chrome.NewFactory(driven.BrowserConfigFrom(settings.Browser), settings.Crawl.PollInterval),
		settings.Crawl.ActionsPerSecond,
	)
	registry := services.NewBuiltinAdapterRegistry(settings.Crawl)
	crawler := services.NewCrawlController(factory, listing.New(), settings.Crawl)
	refresh := services.NewRefreshOrchestrator(registry, crawler, services.NewReconciler(store))

	return &cli.Services{
		Refresh: refresh,
		Catalog: services.NewCatalogService(store, registry),
		NewScheduler: func(r driving.RefreshService, every time.Duration, opts driving.RefreshOptions) driving.Scheduler {
			return services.NewScheduler(r, every, opts)
		},
		Close: store.Close,
	}, nil
}

func openCatalogStore(ctx context.Context, s domain.StorageSettings) (driven.CatalogStore, error) {
	switch s.Driver {
	case domain.StoragePostgres:
		logger.Debug("opening postgres catalog")
		store, err := postgres.NewStore(ctx, s.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres catalog: %w", err)
		}
		return store, nil
	default:
		dir := s.DataDir
		if dir == "" {
			home, err := file.HomeDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(home, "data")
		}
		logger.Debug("opening sqlite catalog in %s", dir)
		store, err := sqlite.NewStore(dir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite catalog: %w", err)
		}
		return store, nil
	}
}
