package driving

import (
	"context"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

// RefreshService crawls retailers and reloads their catalog slices.
type RefreshService interface {
	// Refresh crawls one store and, unless DryRun is set, reloads it.
	Refresh(ctx context.Context, store string, opts RefreshOptions) (*domain.RunReport, error)

	// RefreshAll refreshes every registered store in parallel.
	// Reports are returned in registration order; failures are joined.
	RefreshAll(ctx context.Context, opts RefreshOptions) ([]domain.RunReport, error)

	// Status returns the current or last run status for a store.
	Status(ctx context.Context, store string) (*RunStatus, error)

	// Stores returns the registered store names in registration order.
	Stores() []string
}

// RefreshOptions narrows a refresh run.
type RefreshOptions struct {
	// DryRun crawls and normalises without touching the catalog.
	DryRun bool

	// Categories keeps only categories whose label contains one of these
	// substrings, case-insensitively. Empty keeps all.
	Categories []string

	// LimitCategories caps the number of categories crawled. Zero is unlimited.
	LimitCategories int

	// Observer receives progress callbacks. May be nil.
	Observer RunObserver
}

// RunObserver receives refresh progress. Calls for different stores may
// arrive concurrently.
type RunObserver interface {
	StoreStarted(store string)
	CategoryDone(store string, batch domain.CategoryBatch)
	StoreFinished(store string, report *domain.RunReport, err error)
}

// RunStatus represents the state of a store's refresh.
type RunStatus struct {
	// Store identifies the retailer.
	Store string

	// Running indicates if a refresh is currently in progress.
	Running bool

	// Categories is the number of categories processed so far.
	Categories int

	// Records is the number of listings normalised so far.
	Records int

	// ErrorCount is the number of skipped categories.
	ErrorCount int
}
