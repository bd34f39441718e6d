package quantity

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

var unitLabelRe = regexp.MustCompile(`(` + numberExpr + `)\s*(?:€|eur)?\s*/\s*(kilos?|kg|litros?|lt|l|unidad|uds?|u)\b`)

// ParseUnitPriceLabel reads an advertised unit price such as "2,70 €/kg",
// "1,05 €/l" or "0,25 €/ud". The first label per unit wins; a label that
// does not parse leaves the field invalid.
func ParseUnitPriceLabel(text string) domain.UnitPrices {
	var out domain.UnitPrices
	t := clean(text)
	if t == "" {
		return out
	}

	for _, m := range unitLabelRe.FindAllStringSubmatch(t, -1) {
		d, ok := toDecimal(m[1])
		if !ok {
			continue
		}
		v := decimal.NewNullDecimal(d)
		switch m[2] {
		case "kg", "kilo", "kilos":
			if !out.PerKg.Valid {
				out.PerKg = v
			}
		case "l", "lt", "litro", "litros":
			if !out.PerLiter.Valid {
				out.PerLiter = v
			}
		default:
			if !out.PerItem.Valid {
				out.PerItem = v
			}
		}
	}
	return out
}
