package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

// retryBackoff is the first pause before re-extracting; it doubles per retry.
const retryBackoff = 500 * time.Millisecond

// CrawlOptions narrows a crawl to a subset of the discovered categories.
type CrawlOptions struct {
	// Categories keeps categories whose label or URL contains one of these
	// substrings, ignoring case. Empty keeps all.
	Categories []string

	// Limit caps the number of categories after filtering. Zero is unlimited.
	Limit int
}

// CrawlController drives a SourceAdapter over its own browser session.
// It is written once for every retailer.
type CrawlController struct {
	factory    driven.SessionFactory
	normaliser driven.ListingNormaliser
	settings   domain.CrawlSettings
	backoff    time.Duration
}

// NewCrawlController creates a controller.
func NewCrawlController(
	factory driven.SessionFactory,
	normaliser driven.ListingNormaliser,
	settings domain.CrawlSettings,
) *CrawlController {
	return &CrawlController{
		factory:    factory,
		normaliser: normaliser,
		settings:   settings,
		backoff:    retryBackoff,
	}
}

// Crawl streams one CategoryBatch per category. Both channels are closed when
// the crawl ends; the error channel carries at most one run-level error.
// Category failures are reported on the batch, not the error channel.
func (c *CrawlController) Crawl(
	ctx context.Context,
	adapter driven.SourceAdapter,
	opts CrawlOptions,
) (<-chan domain.CategoryBatch, <-chan error) {
	batchesCh := make(chan domain.CategoryBatch)
	errsCh := make(chan error, 1)

	go func() {
		defer close(batchesCh)
		defer close(errsCh)

		store := adapter.Profile().Store
		log := logger.For(store)

		defer func() {
			if r := recover(); r != nil {
				log.Error("crawl panicked: %v", r)
				select {
				case errsCh <- fmt.Errorf("crawl %s: panic: %v", store, r):
				default:
				}
			}
		}()

		session, err := c.factory.Open(ctx)
		if err != nil {
			errsCh <- fmt.Errorf("open session: %w", err)
			return
		}
		defer func() {
			if err := session.Close(); err != nil {
				log.Warn("closing session: %v", err)
			}
		}()

		cats, err := adapter.DiscoverCategories(ctx, session)
		if err != nil {
			errsCh <- fmt.Errorf("discover categories: %w", err)
			return
		}
		cats = SelectCategories(cats, opts)
		log.Info("crawling %d categories", len(cats))

		for i, cat := range cats {
			if ctx.Err() != nil {
				errsCh <- ctx.Err()
				return
			}
			log.Debug("category %d/%d: %s", i+1, len(cats), cat)

			batch := c.crawlCategory(ctx, session, adapter, cat)
			if ctx.Err() != nil {
				errsCh <- ctx.Err()
				return
			}
			if batch.Err != nil {
				log.Warn("%s: %v", cat, batch.Err)
				if err := c.checkSession(ctx, session, batch.Err); err != nil {
					errsCh <- err
					return
				}
			}

			select {
			case batchesCh <- batch:
			case <-ctx.Done():
				errsCh <- ctx.Err()
				return
			}
		}
	}()

	return batchesCh, errsCh
}

// crawlCategory runs the open, extract and advance loop for one category.
func (c *CrawlController) crawlCategory(
	ctx context.Context,
	session driven.BrowserSession,
	adapter driven.SourceAdapter,
	cat domain.CategoryRef,
) domain.CategoryBatch {
	profile := adapter.Profile()
	log := logger.For(profile.Store)
	batch := domain.CategoryBatch{Category: cat}

	if err := adapter.OpenCategory(ctx, session, cat); err != nil {
		batch.Err = fmt.Errorf("open category %s: %w", cat, err)
		return batch
	}

	stable := profile.StableRounds
	if stable <= 0 {
		stable = c.settings.StableRounds
	}
	if stable <= 0 {
		stable = 1
	}
	maxRounds := profile.MaxRounds
	if maxRounds <= 0 {
		maxRounds = c.settings.MaxRounds
	}

	var raws []domain.RawListing
	seen := make(map[string]bool)
	quiet := 0

	for round := 1; maxRounds <= 0 || round <= maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			batch.Err = err
			break
		}
		batch.Rounds = round

		visible, err := c.extract(ctx, session, adapter, cat)
		if err != nil {
			batch.Err = fmt.Errorf("extract %s: %w", cat, err)
			break
		}

		added := 0
		for _, r := range visible {
			key := r.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			raws = append(raws, r)
			added++
		}
		log.Debug("%s round %d: %d visible, %d new, %d total", cat, round, len(visible), added, len(raws))

		if added == 0 {
			quiet++
		} else {
			quiet = 0
		}
		if quiet >= stable {
			break
		}

		moved, err := adapter.Advance(ctx, session, cat)
		if err != nil {
			batch.Err = fmt.Errorf("advance %s: %w", cat, err)
			break
		}
		// A scroll that did not move may still have triggered a lazy load,
		// so only paginated stores treat it as exhaustion.
		if !moved && profile.Mode == domain.AdvancePaginate {
			break
		}
	}

	batch.Listings = make([]domain.NormalizedListing, 0, len(raws))
	for _, r := range raws {
		batch.Listings = append(batch.Listings, c.normaliser.Normalise(profile.Store, r))
	}
	batch.Partial = batch.Err != nil && len(batch.Listings) > 0
	return batch
}

// extract reads the visible listings, retrying transient failures.
func (c *CrawlController) extract(
	ctx context.Context,
	session driven.BrowserSession,
	adapter driven.SourceAdapter,
	cat domain.CategoryRef,
) ([]domain.RawListing, error) {
	var err error
	wait := c.backoff
	for attempt := 0; attempt <= c.settings.ExtractRetries; attempt++ {
		if attempt > 0 {
			if perr := pause(ctx, wait); perr != nil {
				return nil, perr
			}
			wait *= 2
		}

		var out []domain.RawListing
		out, err = adapter.ExtractVisible(ctx, session, cat)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil || errors.Is(err, domain.ErrSessionClosed) || errors.Is(err, domain.ErrSessionLost) {
			return nil, err
		}
		logger.For(adapter.Profile().Store).Debug("extract %s attempt %d: %v", cat, attempt+1, err)
	}
	return nil, err
}

// checkSession decides whether a category failure was the browser dying.
func (c *CrawlController) checkSession(ctx context.Context, session driven.BrowserSession, cause error) error {
	if errors.Is(cause, domain.ErrSessionLost) || errors.Is(cause, domain.ErrSessionClosed) {
		return fmt.Errorf("%w: %w", domain.ErrSessionLost, cause)
	}
	if _, err := session.RunScript(ctx, driven.ScriptProbe); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", domain.ErrSessionLost, err)
	}
	return nil
}

// SelectCategories applies the operator's substring filters, then the limit.
func SelectCategories(cats []domain.CategoryRef, opts CrawlOptions) []domain.CategoryRef {
	var filters []string
	for _, f := range opts.Categories {
		if f = domain.NormaliseKey(f); f != "" {
			filters = append(filters, f)
		}
	}

	out := cats
	if len(filters) > 0 {
		out = make([]domain.CategoryRef, 0, len(cats))
		for _, cat := range cats {
			label := domain.NormaliseKey(cat.String())
			url := strings.ToLower(cat.URL)
			for _, f := range filters {
				if strings.Contains(label, f) || strings.Contains(url, f) {
					out = append(out, cat)
					break
				}
			}
		}
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
