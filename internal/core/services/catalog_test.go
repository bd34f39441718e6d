package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/storage/memory"
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

func TestCatalogService_Summaries_IncludesRegisteredStores(t *testing.T) {
	store := memory.NewCatalogStore()
	ctx := context.Background()
	_, err := NewReconciler(store).Reload(ctx, "Consum", sampleListings("Consum"))
	require.NoError(t, err)
	_, err = NewReconciler(store).Reload(ctx, "Legacy", sampleListings("Legacy"))
	require.NoError(t, err)

	registry := NewAdapterRegistry(
		newScriptedAdapter("Mercadona", domain.AdvanceScroll),
		newScriptedAdapter("Consum", domain.AdvancePaginate),
	)
	sums, err := NewCatalogService(store, registry).Summaries(ctx)

	require.NoError(t, err)
	assert.Equal(t, []domain.StoreSummary{
		{Store: "Mercadona"},
		{Store: "Consum", Products: 2, Categories: 2},
		{Store: "Legacy", Products: 2, Categories: 2},
	}, sums)
}

func TestCatalogService_Products(t *testing.T) {
	store := memory.NewCatalogStore()
	ctx := context.Background()
	_, err := NewReconciler(store).Reload(ctx, "Consum", sampleListings("Consum"))
	require.NoError(t, err)
	service := NewCatalogService(store, nil)

	products, err := service.Products(ctx, "Consum")
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = service.Products(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sums, err := service.Summaries(ctx)
	require.NoError(t, err)
	assert.Len(t, sums, 1)
}

func TestAdapterRegistry(t *testing.T) {
	mercadona := newScriptedAdapter("Mercadona", domain.AdvanceScroll)
	replacement := newScriptedAdapter("MERCADONA", domain.AdvanceScroll)
	r := NewAdapterRegistry(mercadona, newScriptedAdapter("Bonpreu", domain.AdvanceScroll))

	got, err := r.Get(" mercadona ")
	require.NoError(t, err)
	assert.Same(t, mercadona, got)

	r.Register(replacement)
	got, err = r.Get("Mercadona")
	require.NoError(t, err)
	assert.Same(t, replacement, got)
	assert.Equal(t, []string{"MERCADONA", "Bonpreu"}, r.Stores())

	_, err = r.Get("Dia")
	assert.ErrorIs(t, err, domain.ErrUnsupportedStore)
}

func TestNewBuiltinAdapterRegistry(t *testing.T) {
	r := NewBuiltinAdapterRegistry(domain.DefaultCrawlSettings())

	assert.Equal(t, []string{"Mercadona", "Consum", "Bonpreu"}, r.Stores())
}
