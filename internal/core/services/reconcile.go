package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

// Reconciler replaces a store's slice of the catalog with freshly crawled
// listings.
type Reconciler struct {
	store driven.CatalogStore
}

// NewReconciler creates a reconciler writing to store.
func NewReconciler(store driven.CatalogStore) *Reconciler {
	return &Reconciler{store: store}
}

// Reload builds the snapshot for store and applies it in one unit of work.
// On failure the previous snapshot is left intact.
func (r *Reconciler) Reload(
	ctx context.Context,
	store string,
	listings []domain.NormalizedListing,
) (*domain.ReloadReport, error) {
	snap := BuildSnapshot(store, listings)
	report, err := r.store.Replace(ctx, store, snap)
	if err != nil {
		return nil, fmt.Errorf("reload %s: %w: %w", store, domain.ErrReloadFailed, err)
	}
	logger.For(store).Info("%s", report)
	return report, nil
}

// BuildSnapshot turns listings into the rows for one store. The first listing
// seen for a product id wins; later ones only contribute category links.
// Listings without a title are dropped.
func BuildSnapshot(store string, listings []domain.NormalizedListing) domain.CatalogSnapshot {
	snap := domain.CatalogSnapshot{Store: store}

	products := make(map[string]bool)
	categories := make(map[string]bool)
	links := make(map[domain.ProductCategoryLink]bool)

	for _, l := range listings {
		title := strings.Join(strings.Fields(l.Title), " ")
		if title == "" {
			continue
		}
		id := domain.ProductID(store, title)

		if !products[id] {
			products[id] = true
			snap.Products = append(snap.Products, domain.Product{
				ID:         id,
				Title:      title,
				Store:      store,
				PriceUnit:  l.Price,
				PriceKg:    l.ComparablePrice(),
				PriceL:     l.PricePerLiter,
				PriceItem:  l.PricePerItem,
				Image:      l.ImageURL,
				ProductURL: l.SourceURL,
			})
		}

		if !l.HasCategory() {
			continue
		}
		cat := domain.Category{
			Category:    strings.TrimSpace(l.Category),
			Subcategory: strings.TrimSpace(l.Subcategory),
		}
		cat.ID = domain.CategoryID(cat.Category, cat.Subcategory)
		if !categories[cat.ID] {
			categories[cat.ID] = true
			snap.Categories = append(snap.Categories, cat)
		}

		link := domain.ProductCategoryLink{ProductID: id, CategoryID: cat.ID}
		if !links[link] {
			links[link] = true
			snap.Links = append(snap.Links, link)
		}
	}
	return snap
}
