package domain

import (
	"fmt"
	"strings"
	"time"
)

// AdvanceMode describes how a storefront exposes more listings.
type AdvanceMode string

// Advance modes.
const (
	// AdvanceScroll loads more listings as the viewport scrolls.
	AdvanceScroll AdvanceMode = "scroll"

	// AdvancePaginate splits listings across numbered pages.
	AdvancePaginate AdvanceMode = "paginate"
)

// SourceProfile describes a retailer adapter.
type SourceProfile struct {
	// Store is the display name persisted with every product (e.g. "Mercadona").
	Store string

	// Mode is how the adapter advances between batches.
	Mode AdvanceMode

	// StableRounds overrides the consecutive no-new-records threshold.
	// Zero uses the configured default.
	StableRounds int

	// MaxRounds bounds the extract/advance loop per category.
	// Zero uses the configured default.
	MaxRounds int
}

// CategoryRef is a crawl target discovered on a storefront.
type CategoryRef struct {
	// Name is the top-level section (e.g. "Lácteos").
	Name string

	// Subcategory is the leaf node, if the storefront has one.
	Subcategory string

	// URL opens the category listing.
	URL string
}

// Path returns the category path, outermost first, omitting empty levels.
func (c CategoryRef) Path() []string {
	path := make([]string, 0, 2)
	for _, p := range []string{c.Name, c.Subcategory} {
		if p = strings.TrimSpace(p); p != "" {
			path = append(path, p)
		}
	}
	return path
}

// String returns a human-readable label.
func (c CategoryRef) String() string {
	if p := c.Path(); len(p) > 0 {
		return strings.Join(p, " > ")
	}
	return c.URL
}

// CategoryBatch is the crawl output for one category.
type CategoryBatch struct {
	Category CategoryRef

	// Listings are the deduplicated, normalised records in the order seen.
	Listings []NormalizedListing

	// Rounds is the number of extract/advance iterations.
	Rounds int

	// Err is set when the category was skipped or cut short.
	Err error

	// Partial is true when Err interrupted extraction after records were kept.
	Partial bool
}

// Skipped reports whether the category counts as skipped in the crawl report.
func (b CategoryBatch) Skipped() bool {
	return b.Err != nil && !b.Partial
}

// CategoryFailure records why a category was skipped.
type CategoryFailure struct {
	Category CategoryRef
	Reason   string
}

// CrawlReport summarises one store's crawl.
type CrawlReport struct {
	Store     string
	Attempted int
	Succeeded int
	Skipped   int
	Records   int
	Failures  []CategoryFailure
}

// Record folds one category batch into the report.
func (r *CrawlReport) Record(b CategoryBatch) {
	r.Attempted++
	r.Records += len(b.Listings)
	if b.Skipped() {
		r.Skipped++
		r.Failures = append(r.Failures, CategoryFailure{Category: b.Category, Reason: b.Err.Error()})
		return
	}
	r.Succeeded++
}

// String renders the operator summary line.
func (r CrawlReport) String() string {
	return fmt.Sprintf("%s: %d categories attempted, %d succeeded, %d skipped, %d records normalised",
		r.Store, r.Attempted, r.Succeeded, r.Skipped, r.Records)
}

// ReloadReport summarises one store's catalog reload.
type ReloadReport struct {
	Store             string
	ProductsRemoved   int
	ProductsInserted  int
	CategoriesCreated int
	LinksCreated      int
}

// String renders the operator summary line.
func (r ReloadReport) String() string {
	return fmt.Sprintf("%s: %d products inserted, %d categories created, %d links created",
		r.Store, r.ProductsInserted, r.CategoriesCreated, r.LinksCreated)
}

// RunReport is the outcome of crawling and reloading one store.
type RunReport struct {
	Crawl    CrawlReport
	Reload   *ReloadReport
	DryRun   bool
	Started  time.Time
	Finished time.Time
}

// Duration returns how long the run took.
func (r RunReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
