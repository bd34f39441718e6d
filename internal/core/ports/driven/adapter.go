package driven

import (
	"context"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

// SourceAdapter knows how one retailer lays out its storefront.
// The crawl controller drives every adapter the same way: discover, then per
// category open, extract and advance until exhausted.
type SourceAdapter interface {
	// Profile describes the store and how it exposes more listings.
	Profile() domain.SourceProfile

	// DiscoverCategories returns the crawl targets, deduplicated and in
	// navigation order.
	DiscoverCategories(ctx context.Context, s BrowserSession) ([]domain.CategoryRef, error)

	// OpenCategory navigates to a category and waits for its first cards.
	// Returns domain.ErrNoListings when none appear in time.
	OpenCategory(ctx context.Context, s BrowserSession, cat domain.CategoryRef) error

	// ExtractVisible reads the listings currently rendered.
	ExtractVisible(ctx context.Context, s BrowserSession, cat domain.CategoryRef) ([]domain.RawListing, error)

	// Advance exposes the next batch of listings. It reports false when the
	// category is exhausted, and domain.ErrAdvanceFailed when every
	// interaction strategy failed.
	Advance(ctx context.Context, s BrowserSession, cat domain.CategoryRef) (bool, error)
}
