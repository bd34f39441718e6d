// Package pricing derives comparable unit prices from a shelf price and a
// canonical package size.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/normalisers/quantity"
)

// Places is the precision every derived price is rounded to.
const Places = 4

var thousand = decimal.NewFromInt(1000)

// Derive computes price per kg, per liter and per item.
//
// Values come from the package size when it is known; anything still missing
// is taken from the advertised unit-price label. An invalid price derives
// nothing but still reads the label.
func Derive(price decimal.NullDecimal, size domain.PackageSize, label string) domain.UnitPrices {
	var out domain.UnitPrices

	if price.Valid {
		if g, ok := size.Grams(); ok {
			out.PerKg = decimal.NewNullDecimal(price.Decimal.Mul(thousand).Div(g))
		}
		if ml, ok := size.Milliliters(); ok {
			out.PerLiter = decimal.NewNullDecimal(price.Decimal.Mul(thousand).Div(ml))
		}
		if n, ok := size.Items(); ok {
			out.PerItem = decimal.NewNullDecimal(price.Decimal.Div(decimal.NewFromInt(int64(n))))
		}
	}

	if label != "" {
		adv := quantity.ParseUnitPriceLabel(label)
		if !out.PerKg.Valid {
			out.PerKg = adv.PerKg
		}
		if !out.PerLiter.Valid {
			out.PerLiter = adv.PerLiter
		}
		if !out.PerItem.Valid {
			out.PerItem = adv.PerItem
		}
	}

	out.PerKg = round(out.PerKg)
	out.PerLiter = round(out.PerLiter)
	out.PerItem = round(out.PerItem)
	return out
}

func round(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Round(Places))
}
