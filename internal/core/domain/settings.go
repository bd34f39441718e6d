package domain

import (
	"fmt"
	"time"
)

// StorageDriver selects the catalog store backend.
type StorageDriver string

// Available storage drivers.
const (
	// StorageSQLite stores the catalog in a local SQLite file.
	StorageSQLite StorageDriver = "sqlite"

	// StoragePostgres stores the catalog in a PostgreSQL database.
	StoragePostgres StorageDriver = "postgres"
)

// IsValid returns true if the driver is recognised.
func (d StorageDriver) IsValid() bool {
	return d == StorageSQLite || d == StoragePostgres
}

// String returns the string representation.
func (d StorageDriver) String() string {
	return string(d)
}

// CrawlSettings tunes the crawl loop and its bounded waits.
type CrawlSettings struct {
	// StableRounds is the default consecutive no-new-records threshold.
	StableRounds int

	// MaxRounds bounds extract/advance iterations per category.
	MaxRounds int

	// MaxPages caps paginated categories.
	MaxPages int

	// ScrollStep is the scroll delta in pixels.
	ScrollStep int

	// ScrollPause is the settle time after each scroll.
	ScrollPause time.Duration

	// WaitTimeout bounds structural waits such as cards appearing.
	WaitTimeout time.Duration

	// ConsentTimeout bounds the cookie banner lookup.
	ConsentTimeout time.Duration

	// StepTimeout bounds each next-page interaction strategy.
	StepTimeout time.Duration

	// PollInterval is the stability polling period.
	PollInterval time.Duration

	// ExtractRetries is how often a failed extraction is retried.
	ExtractRetries int

	// ActionsPerSecond throttles navigation and clicks per session.
	ActionsPerSecond float64

	// PostalCode is entered when a storefront asks for a delivery area.
	PostalCode string

	// Categories is the default category filter for crawl runs. Empty crawls
	// every category.
	Categories []string
}

// BrowserSettings configures the browser session factory.
type BrowserSettings struct {
	Headless          bool
	LoadImages        bool
	Locale            string
	UserAgent         string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration

	// BinaryPath points at a browser executable. Empty auto-detects one.
	BinaryPath string
}

// StorageSettings configures the catalog store.
type StorageSettings struct {
	Driver StorageDriver

	// DataDir holds the SQLite database. Empty uses ~/.baratazo/data.
	DataDir string

	// DSN is the PostgreSQL connection string.
	DSN string
}

// AppSettings holds all application configuration.
type AppSettings struct {
	Crawl   CrawlSettings
	Browser BrowserSettings
	Storage StorageSettings
}

// DefaultCrawlSettings returns the crawl defaults.
func DefaultCrawlSettings() CrawlSettings {
	return CrawlSettings{
		StableRounds:     5,
		MaxRounds:        400,
		MaxPages:         200,
		ScrollStep:       600,
		ScrollPause:      300 * time.Millisecond,
		WaitTimeout:      20 * time.Second,
		ConsentTimeout:   4 * time.Second,
		StepTimeout:      4 * time.Second,
		PollInterval:     100 * time.Millisecond,
		ExtractRetries:   2,
		ActionsPerSecond: 2,
		PostalCode:       "08203",
	}
}

// DefaultBrowserSettings returns the browser defaults.
func DefaultBrowserSettings() BrowserSettings {
	return BrowserSettings{
		Headless:          true,
		LoadImages:        true,
		Locale:            "es-ES",
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:     1400,
		ViewportHeight:    1000,
		NavigationTimeout: 30 * time.Second,
	}
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Crawl:   DefaultCrawlSettings(),
		Browser: DefaultBrowserSettings(),
		Storage: StorageSettings{
			Driver: StorageSQLite,
		},
	}
}

// Validate checks the settings for values the pipeline cannot run with.
func (s AppSettings) Validate() error {
	switch {
	case !s.Storage.Driver.IsValid():
		return fmt.Errorf("%w: storage driver %q", ErrInvalidInput, s.Storage.Driver)
	case s.Storage.Driver == StoragePostgres && s.Storage.DSN == "":
		return fmt.Errorf("%w: postgres storage requires storage.dsn", ErrInvalidInput)
	case s.Crawl.StableRounds < 1, s.Crawl.MaxRounds < 1, s.Crawl.MaxPages < 1:
		return fmt.Errorf("%w: crawl bounds must be positive", ErrInvalidInput)
	}
	return nil
}
