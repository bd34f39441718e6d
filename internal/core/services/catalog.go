package services

import (
	"context"
	"fmt"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService reads the persisted catalog.
type CatalogService struct {
	store    driven.CatalogStore
	registry *AdapterRegistry
}

// NewCatalogService creates a catalog service. The registry, when set, makes
// Summaries list every supported store even before its first reload.
func NewCatalogService(store driven.CatalogStore, registry *AdapterRegistry) *CatalogService {
	return &CatalogService{store: store, registry: registry}
}

// Summaries returns product and category counts per store, registered
// stores first in registration order.
func (s *CatalogService) Summaries(ctx context.Context) ([]domain.StoreSummary, error) {
	stored, err := s.store.Summaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("summaries: %w", err)
	}
	if s.registry == nil {
		return stored, nil
	}

	byStore := make(map[string]domain.StoreSummary, len(stored))
	for _, sum := range stored {
		byStore[sum.Store] = sum
	}
	out := make([]domain.StoreSummary, 0, len(stored))
	for _, name := range s.registry.Stores() {
		sum, ok := byStore[name]
		if !ok {
			sum = domain.StoreSummary{Store: name}
		}
		out = append(out, sum)
		delete(byStore, name)
	}
	for _, sum := range stored {
		if _, ok := byStore[sum.Store]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

// Products returns a store's products.
func (s *CatalogService) Products(ctx context.Context, store string) ([]domain.Product, error) {
	if store == "" {
		return nil, fmt.Errorf("%w: store is required", domain.ErrInvalidInput)
	}
	products, err := s.store.Products(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("products %s: %w", store, err)
	}
	return products, nil
}
