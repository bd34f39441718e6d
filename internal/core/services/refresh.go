package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

// Ensure RefreshOrchestrator implements the interface.
var _ driving.RefreshService = (*RefreshOrchestrator)(nil)

// RefreshOrchestrator crawls stores and reloads their catalog slices.
type RefreshOrchestrator struct {
	registry   *AdapterRegistry
	crawler    *CrawlController
	reconciler *Reconciler
	now        func() time.Time

	// Status tracking
	mu       sync.RWMutex
	statuses map[string]*driving.RunStatus
}

// NewRefreshOrchestrator creates a refresh orchestrator.
func NewRefreshOrchestrator(
	registry *AdapterRegistry,
	crawler *CrawlController,
	reconciler *Reconciler,
) *RefreshOrchestrator {
	return &RefreshOrchestrator{
		registry:   registry,
		crawler:    crawler,
		reconciler: reconciler,
		now:        time.Now,
		statuses:   make(map[string]*driving.RunStatus),
	}
}

// Stores returns the registered store names.
func (o *RefreshOrchestrator) Stores() []string {
	return o.registry.Stores()
}

// Refresh crawls one store and, unless opts.DryRun is set, reloads it.
// The report is returned alongside any error so callers can show progress
// made before the failure.
func (o *RefreshOrchestrator) Refresh(
	ctx context.Context,
	store string,
	opts driving.RefreshOptions,
) (*domain.RunReport, error) {
	adapter, err := o.registry.Get(store)
	if err != nil {
		return nil, err
	}
	name := adapter.Profile().Store
	log := logger.For(name)

	if err := o.start(name); err != nil {
		return nil, err
	}
	defer o.finish(name)

	report := &domain.RunReport{
		Crawl:   domain.CrawlReport{Store: name},
		DryRun:  opts.DryRun,
		Started: o.now(),
	}
	if opts.Observer != nil {
		opts.Observer.StoreStarted(name)
	}

	listings, err := o.collect(ctx, name, adapter, opts, report)
	if err == nil {
		err = o.reload(ctx, name, listings, opts, report)
	}
	report.Finished = o.now()

	if err != nil {
		log.Error("%v", err)
	} else {
		log.Info("%s in %s", report.Crawl, report.Duration().Round(time.Millisecond))
	}
	if opts.Observer != nil {
		opts.Observer.StoreFinished(name, report, err)
	}
	return report, err
}

// collect drains the crawl stream into the report and returns every listing.
func (o *RefreshOrchestrator) collect(
	ctx context.Context,
	name string,
	adapter driven.SourceAdapter,
	opts driving.RefreshOptions,
	report *domain.RunReport,
) ([]domain.NormalizedListing, error) {
	batchesCh, errsCh := o.crawler.Crawl(ctx, adapter, CrawlOptions{
		Categories: opts.Categories,
		Limit:      opts.LimitCategories,
	})

	var listings []domain.NormalizedListing
	var crawlErr error
	for batchesCh != nil || errsCh != nil {
		select {
		case batch, ok := <-batchesCh:
			if !ok {
				batchesCh = nil
				continue
			}
			report.Crawl.Record(batch)
			listings = append(listings, batch.Listings...)
			o.update(name, func(s *driving.RunStatus) {
				s.Categories++
				s.Records += len(batch.Listings)
				if batch.Skipped() {
					s.ErrorCount++
				}
			})
			if opts.Observer != nil {
				opts.Observer.CategoryDone(name, batch)
			}
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil && crawlErr == nil {
				crawlErr = err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl %s: %w", name, err)
	}
	if crawlErr != nil {
		return nil, fmt.Errorf("crawl %s: %w", name, crawlErr)
	}
	return listings, nil
}

// reload applies the crawl unless this is a dry run. An empty crawl never
// reloads, so a broken storefront cannot wipe the store's catalog.
func (o *RefreshOrchestrator) reload(
	ctx context.Context,
	name string,
	listings []domain.NormalizedListing,
	opts driving.RefreshOptions,
	report *domain.RunReport,
) error {
	if opts.DryRun {
		return nil
	}
	if len(listings) == 0 {
		return fmt.Errorf("reload %s: %w: crawl produced nothing", name, domain.ErrNoListings)
	}
	reload, err := o.reconciler.Reload(ctx, name, listings)
	if err != nil {
		return err
	}
	report.Reload = reload
	return nil
}

// RefreshAll refreshes every registered store in parallel.
func (o *RefreshOrchestrator) RefreshAll(ctx context.Context, opts driving.RefreshOptions) ([]domain.RunReport, error) {
	stores := o.registry.Stores()
	reports := make([]*domain.RunReport, len(stores))
	errs := make([]error, len(stores))

	var wg sync.WaitGroup
	for i, store := range stores {
		wg.Add(1)
		go func(i int, store string) {
			defer wg.Done()
			reports[i], errs[i] = o.Refresh(ctx, store, opts)
		}(i, store)
	}
	wg.Wait()

	out := make([]domain.RunReport, 0, len(stores))
	for _, r := range reports {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, errors.Join(errs...)
}

// Status returns the current or last run status for a store.
func (o *RefreshOrchestrator) Status(_ context.Context, store string) (*driving.RunStatus, error) {
	adapter, err := o.registry.Get(store)
	if err != nil {
		return nil, err
	}
	name := adapter.Profile().Store

	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.statuses[name]; ok {
		// Return a copy to avoid race conditions
		cp := *status
		return &cp, nil
	}
	return &driving.RunStatus{Store: name}, nil
}

func (o *RefreshOrchestrator) start(store string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s, ok := o.statuses[store]; ok && s.Running {
		return fmt.Errorf("%w: %s", domain.ErrRunInProgress, store)
	}
	o.statuses[store] = &driving.RunStatus{Store: store, Running: true}
	return nil
}

func (o *RefreshOrchestrator) update(store string, fn func(*driving.RunStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.statuses[store]; ok {
		fn(s)
	}
}

func (o *RefreshOrchestrator) finish(store string) {
	o.update(store, func(s *driving.RunStatus) { s.Running = false })
}
