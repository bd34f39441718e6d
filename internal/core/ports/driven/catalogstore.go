package driven

import (
	"context"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

// CatalogStore persists the product catalog.
type CatalogStore interface {
	// Replace swaps one store's products and links for the snapshot in a
	// single atomic unit. Categories are shared and only ever added.
	// On error nothing is committed.
	Replace(ctx context.Context, store string, snapshot domain.CatalogSnapshot) (*domain.ReloadReport, error)

	// Products returns a store's products ordered by title.
	Products(ctx context.Context, store string) ([]domain.Product, error)

	// Categories returns every category ordered by category and subcategory.
	Categories(ctx context.Context) ([]domain.Category, error)

	// Links returns the product-category links of a store's products.
	Links(ctx context.Context, store string) ([]domain.ProductCategoryLink, error)

	// Summaries returns per-store product and category counts.
	Summaries(ctx context.Context) ([]domain.StoreSummary, error)

	// Close releases the underlying connection.
	Close() error
}
