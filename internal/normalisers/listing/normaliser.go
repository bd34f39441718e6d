// Package listing maps raw storefront cards to normalised listings.
package listing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/normalisers/pricing"
	"github.com/AlbertoRQ/Baratazo/internal/normalisers/quantity"
)

// Ensure Normaliser implements the interface.
var _ driven.ListingNormaliser = (*Normaliser)(nil)

// Normaliser parses price and package text and derives unit prices.
type Normaliser struct{}

// New creates a new listing normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise converts a raw listing. The package size is read from the
// package text, falling back to the name when the package text says nothing.
func (n *Normaliser) Normalise(store string, raw domain.RawListing) domain.NormalizedListing {
	out := domain.NormalizedListing{
		Title:     collapse(raw.Name),
		Store:     store,
		Price:     quantity.ParsePrice(raw.PriceText),
		ImageURL:  strings.TrimSpace(raw.ImageURL),
		SourceURL: strings.TrimSpace(raw.DetailURL),
	}

	size := quantity.ParsePackageSize(raw.PackageText)
	if size.IsZero() && raw.PackageText != raw.Name {
		size = quantity.ParsePackageSize(raw.Name)
	}

	if g, ok := size.Grams(); ok {
		out.TotalGrams = decimal.NewNullDecimal(g)
	}
	if ml, ok := size.Milliliters(); ok {
		out.TotalMilliliters = decimal.NewNullDecimal(ml)
	}
	if items, ok := size.Items(); ok {
		out.TotalItems = items
	}

	units := pricing.Derive(out.Price, size, raw.UnitPriceText)
	out.PricePerKg = units.PerKg
	out.PricePerLiter = units.PerLiter
	out.PricePerItem = units.PerItem

	if len(raw.CategoryPath) > 0 {
		out.Category = collapse(raw.CategoryPath[0])
	}
	if len(raw.CategoryPath) > 1 {
		out.Subcategory = collapse(raw.CategoryPath[len(raw.CategoryPath)-1])
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
