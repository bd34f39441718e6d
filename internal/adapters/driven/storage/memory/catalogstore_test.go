package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

func testSnapshot(store string) domain.CatalogSnapshot {
	leche := domain.Product{
		ID:        domain.ProductID(store, "Leche entera 1 L"),
		Title:     "Leche entera 1 L",
		Store:     store,
		PriceUnit: decimal.NewNullDecimal(decimal.RequireFromString("0.95")),
	}
	pan := domain.Product{
		ID:    domain.ProductID(store, "Pan de molde"),
		Title: "Pan de molde",
		Store: store,
	}
	lacteos := domain.Category{ID: domain.CategoryID("Lácteos", "Leche"), Category: "Lácteos", Subcategory: "Leche"}
	panaderia := domain.Category{ID: domain.CategoryID("Panadería", ""), Category: "Panadería"}
	return domain.CatalogSnapshot{
		Store:      store,
		Products:   []domain.Product{leche, pan},
		Categories: []domain.Category{lacteos, panaderia},
		Links: []domain.ProductCategoryLink{
			{ProductID: leche.ID, CategoryID: lacteos.ID},
			{ProductID: pan.ID, CategoryID: panaderia.ID},
		},
	}
}

func TestCatalogStore_Replace(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	report, err := store.Replace(ctx, "Consum", testSnapshot("Consum"))
	require.NoError(t, err)
	assert.Equal(t, &domain.ReloadReport{Store: "Consum", ProductsInserted: 2, CategoriesCreated: 2, LinksCreated: 2}, report)

	products, err := store.Products(ctx, "Consum")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Leche entera 1 L", products[0].Title)
	assert.Equal(t, "Pan de molde", products[1].Title)
}

func TestCatalogStore_Replace_Idempotent(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	_, err := store.Replace(ctx, "Consum", testSnapshot("Consum"))
	require.NoError(t, err)
	before, _ := store.Products(ctx, "Consum")
	beforeLinks, _ := store.Links(ctx, "Consum")

	report, err := store.Replace(ctx, "Consum", testSnapshot("Consum"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.ProductsRemoved)
	assert.Zero(t, report.CategoriesCreated)

	after, _ := store.Products(ctx, "Consum")
	afterLinks, _ := store.Links(ctx, "Consum")
	assert.Equal(t, before, after)
	assert.Equal(t, beforeLinks, afterLinks)
}

func TestCatalogStore_Replace_StoreIsolation(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	_, err := store.Replace(ctx, "Consum", testSnapshot("Consum"))
	require.NoError(t, err)
	_, err = store.Replace(ctx, "Bonpreu", testSnapshot("Bonpreu"))
	require.NoError(t, err)
	_, err = store.Replace(ctx, "Consum", domain.CatalogSnapshot{Store: "Consum"})
	require.NoError(t, err)

	bonpreu, _ := store.Products(ctx, "Bonpreu")
	assert.Len(t, bonpreu, 2)
	links, _ := store.Links(ctx, "Bonpreu")
	assert.Len(t, links, 2)
	cats, _ := store.Categories(ctx)
	assert.Len(t, cats, 2, "categories are never deleted")

	sums, err := store.Summaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.StoreSummary{{Store: "Bonpreu", Products: 2, Categories: 2}}, sums)
}

func TestCatalogStore_Replace_FailureKeepsPreviousState(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	_, err := store.Replace(ctx, "Consum", testSnapshot("Consum"))
	require.NoError(t, err)

	broken := testSnapshot("Consum")
	broken.Links = append(broken.Links, domain.ProductCategoryLink{
		ProductID:  broken.Products[0].ID,
		CategoryID: domain.CategoryID("No", "Existe"),
	})
	_, err = store.Replace(ctx, "Consum", broken)
	require.Error(t, err)

	_, err = store.Replace(ctx, "Consum", testSnapshot("Bonpreu"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	products, _ := store.Products(ctx, "Consum")
	assert.Len(t, products, 2)
}

func TestCatalogStore_Replace_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCatalogStore().Replace(ctx, "Consum", testSnapshot("Consum"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalogStore_Categories_Sorted(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()
	_, err := store.Replace(ctx, "Consum", testSnapshot("Consum"))
	require.NoError(t, err)

	cats, err := store.Categories(ctx)

	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Lácteos", cats[0].Category)
	assert.Equal(t, "Panadería", cats[1].Category)
	assert.NoError(t, store.Close())
}
