// Package cli implements the baratazo command line on top of cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

var version = "dev"

// Services are the core services a command works with once the effective
// settings are known.
type Services struct {
	Refresh driving.RefreshService
	Catalog driving.CatalogService

	// NewScheduler builds a scheduler that calls refresh with opts every
	// interval.
	NewScheduler func(refresh driving.RefreshService, every time.Duration, opts driving.RefreshOptions) driving.Scheduler

	// Close releases storage and browser resources. May be nil.
	Close func() error
}

// Runtime builds Services from settings. Commands call it after applying
// their flag overrides, so the browser and storage see the final values.
type Runtime interface {
	Open(ctx context.Context, settings domain.AppSettings) (*Services, error)
}

// ConfigWatcher signals when the configuration changes on disk. The
// settings service sees the new values by the time a signal arrives.
type ConfigWatcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

var (
	settingsService driving.SettingsService
	appRuntime      Runtime
	configWatcher   ConfigWatcher
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "baratazo",
	Short: "Crawl supermarket catalogs into a comparable price database",
	Long: `baratazo drives a browser through the online catalogs of Mercadona,
Consum and Bonpreu, normalises every listing into comparable prices per
kilogram, liter or item, and reloads each store's slice of the catalog.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service used by commands.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetRuntime sets the runtime that builds services for commands.
func SetRuntime(r Runtime) {
	appRuntime = r
}

// SetConfigWatcher sets the watcher long-running commands use to pick up
// configuration changes.
func SetConfigWatcher(w ConfigWatcher) {
	configWatcher = w
}

func loadSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func openServices(cmd *cobra.Command, settings domain.AppSettings) (*Services, error) {
	if appRuntime == nil {
		return nil, errors.New("runtime not configured")
	}
	svc, err := appRuntime.Open(cmd.Context(), settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open services: %w", err)
	}
	return svc, nil
}

func closeServices(svc *Services) {
	if svc == nil || svc.Close == nil {
		return
	}
	if err := svc.Close(); err != nil {
		logger.Warn("closing services: %v", err)
	}
}
