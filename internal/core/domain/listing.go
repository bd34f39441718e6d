package domain

import (
	"crypto/sha1" //nolint:gosec // dedup fingerprint, not a security boundary
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
)

// RawListing is one product card as rendered by a storefront at crawl time.
// Adapters fill it from the DOM without interpreting any of the text.
type RawListing struct {
	// Name is the product name shown on the card.
	Name string

	// PriceText is the raw price label (e.g. "1,35 €").
	PriceText string

	// PackageText describes the package size (e.g. "Paquete 500 g").
	PackageText string

	// UnitPriceText is the advertised unit price label (e.g. "2,70 €/kg").
	UnitPriceText string

	// ImageURL is the product image, if any.
	ImageURL string

	// DetailURL links to the product page, if the storefront exposes one.
	DetailURL string

	// CategoryPath is the navigation path, outermost first.
	CategoryPath []string
}

// DedupKey returns the key used to recognise the same listing seen twice.
// The detail URL wins when present; otherwise the name and raw price label
// are hashed together.
func (r RawListing) DedupKey() string {
	if u := strings.TrimSpace(r.DetailURL); u != "" {
		if i := strings.IndexByte(u, '?'); i >= 0 {
			u = u[:i]
		}
		return u
	}
	sum := sha1.Sum([]byte(r.Name + "|" + r.PriceText)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// NormalizedListing is a listing with canonical quantities and derived prices.
// Zero-valued NullDecimal fields mean the value could not be determined.
type NormalizedListing struct {
	Title string
	Store string

	Price decimal.NullDecimal

	PricePerKg    decimal.NullDecimal
	PricePerLiter decimal.NullDecimal
	PricePerItem  decimal.NullDecimal

	TotalGrams       decimal.NullDecimal
	TotalMilliliters decimal.NullDecimal
	TotalItems       int

	ImageURL  string
	SourceURL string

	Category    string
	Subcategory string
}

// HasCategory reports whether the listing carries any category information.
func (l NormalizedListing) HasCategory() bool {
	return strings.TrimSpace(l.Category) != "" || strings.TrimSpace(l.Subcategory) != ""
}

// ComparablePrice returns the best unit price for cross-store comparison:
// per kg, then per liter, then per item, then the absolute price.
func (l NormalizedListing) ComparablePrice() decimal.NullDecimal {
	for _, p := range []decimal.NullDecimal{l.PricePerKg, l.PricePerLiter, l.PricePerItem, l.Price} {
		if p.Valid {
			return p
		}
	}
	return decimal.NullDecimal{}
}
