package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
)

// Ensure CatalogStore implements the interface.
var _ driven.CatalogStore = (*CatalogStore)(nil)

// CatalogStore is an in-memory implementation of driven.CatalogStore.
// Replace validates the whole snapshot before swapping it in, so a failed
// reload leaves the previous state untouched.
type CatalogStore struct {
	mu         sync.RWMutex
	products   map[string]domain.Product  // by id
	categories map[string]domain.Category // by id
	links      map[domain.ProductCategoryLink]struct{}
}

// NewCatalogStore creates an empty in-memory catalog.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
		links:      make(map[domain.ProductCategoryLink]struct{}),
	}
}

// Replace swaps one store's products and links.
func (s *CatalogStore) Replace(ctx context.Context, store string, snap domain.CatalogSnapshot) (*domain.ReloadReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := &domain.ReloadReport{Store: store}

	products := make(map[string]domain.Product, len(s.products))
	for id, p := range s.products {
		if p.Store == store {
			report.ProductsRemoved++
			continue
		}
		products[id] = p
	}
	for _, p := range snap.Products {
		if p.Store != store {
			return nil, fmt.Errorf("%w: product %q belongs to %q, not %q", domain.ErrInvalidInput, p.Title, p.Store, store)
		}
		if _, dup := products[p.ID]; dup {
			return nil, fmt.Errorf("inserting product %q: duplicate id %s", p.Title, p.ID)
		}
		products[p.ID] = p
		report.ProductsInserted++
	}

	categories := make(map[string]domain.Category, len(s.categories)+len(snap.Categories))
	pairs := make(map[[2]string]bool, len(s.categories))
	for id, c := range s.categories {
		categories[id] = c
		pairs[[2]string{c.Category, c.Subcategory}] = true
	}
	for _, c := range snap.Categories {
		pair := [2]string{c.Category, c.Subcategory}
		if _, ok := categories[c.ID]; ok || pairs[pair] {
			continue
		}
		categories[c.ID] = c
		pairs[pair] = true
		report.CategoriesCreated++
	}

	links := make(map[domain.ProductCategoryLink]struct{}, len(s.links))
	for l := range s.links {
		if p, ok := s.products[l.ProductID]; ok && p.Store == store {
			continue
		}
		links[l] = struct{}{}
	}
	for _, l := range snap.Links {
		if _, ok := products[l.ProductID]; !ok {
			return nil, fmt.Errorf("inserting link %s -> %s: unknown product", l.ProductID, l.CategoryID)
		}
		if _, ok := categories[l.CategoryID]; !ok {
			return nil, fmt.Errorf("inserting link %s -> %s: unknown category", l.ProductID, l.CategoryID)
		}
		if _, dup := links[l]; dup {
			continue
		}
		links[l] = struct{}{}
		report.LinksCreated++
	}

	s.products, s.categories, s.links = products, categories, links
	return report, nil
}

// Products returns a store's products ordered by title.
func (s *CatalogStore) Products(_ context.Context, store string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Product
	for _, p := range s.products {
		if p.Store == store {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Categories returns every category ordered by category and subcategory.
func (s *CatalogStore) Categories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Subcategory < out[j].Subcategory
	})
	return out, nil
}

// Links returns the links of a store's products.
func (s *CatalogStore) Links(_ context.Context, store string) ([]domain.ProductCategoryLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ProductCategoryLink
	for l := range s.links {
		if p, ok := s.products[l.ProductID]; ok && p.Store == store {
			out = append(out, l)
		}
	}
	sortLinks(out)
	return out, nil
}

// Summaries returns product and linked category counts per store.
func (s *CatalogStore) Summaries(_ context.Context) ([]domain.StoreSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStore := make(map[string]*domain.StoreSummary)
	cats := make(map[string]map[string]bool)
	for _, p := range s.products {
		sum, ok := byStore[p.Store]
		if !ok {
			sum = &domain.StoreSummary{Store: p.Store}
			byStore[p.Store] = sum
			cats[p.Store] = make(map[string]bool)
		}
		sum.Products++
	}
	for l := range s.links {
		p := s.products[l.ProductID]
		cats[p.Store][l.CategoryID] = true
	}

	out := make([]domain.StoreSummary, 0, len(byStore))
	for store, sum := range byStore {
		sum.Categories = len(cats[store])
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Store < out[j].Store })
	return out, nil
}

// Close is a no-op.
func (s *CatalogStore) Close() error {
	return nil
}

func sortLinks(links []domain.ProductCategoryLink) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].ProductID != links[j].ProductID {
			return links[i].ProductID < links[j].ProductID
		}
		return links[i].CategoryID < links[j].CategoryID
	})
}
