package driving

import (
	"context"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

// CatalogService provides read access to the persisted catalog.
type CatalogService interface {
	// Summaries returns product and category counts per store.
	Summaries(ctx context.Context) ([]domain.StoreSummary, error)

	// Products returns a store's products.
	Products(ctx context.Context, store string) ([]domain.Product, error)
}
