package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Product is a persisted catalog entry. There is exactly one Product per
// (Store, Title) pair.
type Product struct {
	// ID is derived from the normalised store and title; see ProductID.
	ID string

	Title string
	Store string

	// PriceUnit is the absolute shelf price.
	PriceUnit decimal.NullDecimal

	// PriceKg is the comparable unit price used for cross-store sorting.
	PriceKg decimal.NullDecimal

	// PriceL and PriceItem keep the specific unit prices when known.
	PriceL    decimal.NullDecimal
	PriceItem decimal.NullDecimal

	Image      string
	ProductURL string
}

// Category is a persisted (category, subcategory) node shared across stores.
type Category struct {
	ID          string
	Category    string
	Subcategory string
}

// ProductCategoryLink joins a product to one of its categories.
type ProductCategoryLink struct {
	ProductID  string
	CategoryID string
}

// CatalogSnapshot is the complete replacement data for one store.
type CatalogSnapshot struct {
	Store      string
	Products   []Product
	Categories []Category
	Links      []ProductCategoryLink
}

// StoreSummary describes one store's slice of the catalog.
type StoreSummary struct {
	Store      string
	Products   int
	Categories int
}

// NormaliseKey lower-cases, NFKC-folds and collapses whitespace.
// It is the canonical form fed to the id hash.
func NormaliseKey(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ProductID returns the stable identifier for a store and title.
func ProductID(store, title string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(NormaliseKey(store)+"|"+NormaliseKey(title))).String()
}

// CategoryID returns the stable identifier for a category node.
func CategoryID(category, subcategory string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(NormaliseKey(category)+">"+NormaliseKey(subcategory))).String()
}
