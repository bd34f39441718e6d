package services

import (
	"fmt"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/retailers/bonpreu"
	"github.com/AlbertoRQ/Baratazo/internal/retailers/consum"
	"github.com/AlbertoRQ/Baratazo/internal/retailers/mercadona"
)

// AdapterRegistry holds the retailer adapters in registration order.
type AdapterRegistry struct {
	order    []string
	adapters map[string]driven.SourceAdapter
}

// NewAdapterRegistry creates a registry holding adapters.
func NewAdapterRegistry(adapters ...driven.SourceAdapter) *AdapterRegistry {
	r := &AdapterRegistry{adapters: make(map[string]driven.SourceAdapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// NewBuiltinAdapterRegistry registers every supported retailer.
func NewBuiltinAdapterRegistry(settings domain.CrawlSettings) *AdapterRegistry {
	return NewAdapterRegistry(
		mercadona.New(settings),
		consum.New(settings),
		bonpreu.New(settings),
	)
}

// Register adds an adapter, replacing any with the same store name.
func (r *AdapterRegistry) Register(a driven.SourceAdapter) {
	key := domain.NormaliseKey(a.Profile().Store)
	if _, ok := r.adapters[key]; !ok {
		r.order = append(r.order, key)
	}
	r.adapters[key] = a
}

// Get returns the adapter for store, matched case-insensitively.
func (r *AdapterRegistry) Get(store string) (driven.SourceAdapter, error) {
	a, ok := r.adapters[domain.NormaliseKey(store)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedStore, store)
	}
	return a, nil
}

// Stores returns the display names in registration order.
func (r *AdapterRegistry) Stores() []string {
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.adapters[key].Profile().Store)
	}
	return out
}
