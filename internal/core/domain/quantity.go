package domain

import "github.com/shopspring/decimal"

// UnitKind identifies the canonical unit a package size is expressed in.
type UnitKind string

// Canonical units.
const (
	// UnitNone means the package size could not be determined.
	UnitNone UnitKind = ""

	// UnitGrams is total weight in grams.
	UnitGrams UnitKind = "g"

	// UnitMilliliters is total volume in milliliters.
	UnitMilliliters UnitKind = "ml"

	// UnitItems is a count of items.
	UnitItems UnitKind = "items"
)

// PackageSize is a package descriptor reduced to exactly one canonical magnitude.
type PackageSize struct {
	Unit   UnitKind
	Amount decimal.Decimal
}

// GramsOf returns a weight-based package size.
func GramsOf(d decimal.Decimal) PackageSize {
	return PackageSize{Unit: UnitGrams, Amount: d}
}

// MillilitersOf returns a volume-based package size.
func MillilitersOf(d decimal.Decimal) PackageSize {
	return PackageSize{Unit: UnitMilliliters, Amount: d}
}

// ItemsOf returns a count-based package size.
func ItemsOf(n int64) PackageSize {
	return PackageSize{Unit: UnitItems, Amount: decimal.NewFromInt(n)}
}

// IsZero reports whether the size is undetermined.
func (p PackageSize) IsZero() bool {
	return p.Unit == UnitNone || !p.Amount.IsPositive()
}

// Grams returns the total weight, if the size is weight-based.
func (p PackageSize) Grams() (decimal.Decimal, bool) {
	if p.Unit != UnitGrams || !p.Amount.IsPositive() {
		return decimal.Zero, false
	}
	return p.Amount, true
}

// Milliliters returns the total volume, if the size is volume-based.
func (p PackageSize) Milliliters() (decimal.Decimal, bool) {
	if p.Unit != UnitMilliliters || !p.Amount.IsPositive() {
		return decimal.Zero, false
	}
	return p.Amount, true
}

// Items returns the item count, if the size is count-based.
func (p PackageSize) Items() (int, bool) {
	if p.Unit != UnitItems || !p.Amount.IsPositive() {
		return 0, false
	}
	return int(p.Amount.IntPart()), true
}

// UnitPrices holds derived or advertised unit prices.
type UnitPrices struct {
	PerKg    decimal.NullDecimal
	PerLiter decimal.NullDecimal
	PerItem  decimal.NullDecimal
}

// IsEmpty reports whether no unit price is known.
func (u UnitPrices) IsEmpty() bool {
	return !u.PerKg.Valid && !u.PerLiter.Valid && !u.PerItem.Valid
}
