package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertNull(t *testing.T, expected string, got decimal.NullDecimal) {
	t.Helper()
	if expected == "" {
		assert.False(t, got.Valid, "expected null, got %s", got.Decimal)
		return
	}
	if assert.True(t, got.Valid, "expected %s, got null", expected) {
		assert.True(t, dec(expected).Equal(got.Decimal), "expected %s, got %s", expected, got.Decimal)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "comma decimal with euro sign", input: "1,35 €", expected: "1.35"},
		{name: "euro sign glued", input: "3,99€", expected: "3.99"},
		{name: "leading euro sign", input: "€ 2,50", expected: "2.50"},
		{name: "euros word", input: "3,99 euros", expected: "3.99"},
		{name: "thousands and decimals", input: "Precio: 1.234,56 €", expected: "1234.56"},
		{name: "dot decimal", input: "2.49", expected: "2.49"},
		{name: "skips leading quantity", input: "1 kg 3,99 €", expected: "3.99"},
		{name: "unit price label", input: "3,99€/kg", expected: "3.99"},
		{name: "bare number", input: "4", expected: "4"},
		{name: "quantity only", input: "2 uds", expected: ""},
		{name: "weight only", input: "500 g", expected: ""},
		{name: "no digits", input: "gratis", expected: ""},
		{name: "empty", input: "", expected: ""},
		{name: "nbsp before euro", input: "1,35\u00a0€", expected: "1.35"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertNull(t, tt.expected, ParsePrice(tt.input))
		})
	}
}

func TestParsePackageSize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		unit     domain.UnitKind
		expected string
	}{
		{name: "grams", input: "750 g", unit: domain.UnitGrams, expected: "750"},
		{name: "kilograms", input: "Bolsa 1 kg", unit: domain.UnitGrams, expected: "1000"},
		{name: "gr abbreviation", input: "Tarrina 250 gr", unit: domain.UnitGrams, expected: "250"},
		{name: "milligrams", input: "500 mg", unit: domain.UnitGrams, expected: "0.5"},
		{name: "grouped thousands", input: "1.500 g", unit: domain.UnitGrams, expected: "1500"},
		{name: "comma liters", input: "Botella 1,5 l", unit: domain.UnitMilliliters, expected: "1500"},
		{name: "centiliters", input: "Lata 33 cl", unit: domain.UnitMilliliters, expected: "330"},
		{name: "litro word", input: "Brick 1 litro", unit: domain.UnitMilliliters, expected: "1000"},
		{name: "spaced multiplier", input: "Pack 6 x 330 ml", unit: domain.UnitMilliliters, expected: "1980"},
		{name: "glued multiplier", input: "6x330ml", unit: domain.UnitMilliliters, expected: "1980"},
		{name: "times sign", input: "3 × 1,5 l", unit: domain.UnitMilliliters, expected: "4500"},
		{name: "weight pack", input: "Pack 2 x 1 kg", unit: domain.UnitGrams, expected: "2000"},
		{name: "pack weight before volume", input: "2 x 520 g 500 ml", unit: domain.UnitMilliliters, expected: "1000"},
		{name: "pack volume before weight", input: "2 x 500 ml 520 g", unit: domain.UnitGrams, expected: "1040"},
		{name: "deciliters", input: "Tarro 2,5 dl", unit: domain.UnitMilliliters, expected: "250"},
		{name: "count pack", input: "2 x 6 uds", unit: domain.UnitItems, expected: "12"},
		{name: "x inside a word", input: "Queso extra 500 g", unit: domain.UnitGrams, expected: "500"},
		{name: "later match wins", input: "500 g 1 l", unit: domain.UnitMilliliters, expected: "1000"},
		{name: "count units", input: "3 uds", unit: domain.UnitItems, expected: "3"},
		{name: "rolls", input: "Papel 12 rollos", unit: domain.UnitItems, expected: "12"},
		{name: "bare number", input: "12 huevos", unit: domain.UnitItems, expected: "12"},
		{name: "nbsp", input: "1\u00a0kg", unit: domain.UnitGrams, expected: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePackageSize(tt.input)
			assert.Equal(t, tt.unit, got.Unit)
			assert.True(t, dec(tt.expected).Equal(got.Amount), "expected %s, got %s", tt.expected, got.Amount)
		})
	}
}

func TestParsePackageSize_Undetermined(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"Pan de molde",
		"2 o 3 piezas",
		"0 uds",
		"6 x tarrinas",
		"99999999999999999999 uds",
		"1000 x 1000 uds",
		"Ref 1234567",
	} {
		t.Run(input, func(t *testing.T) {
			assert.True(t, ParsePackageSize(input).IsZero())
		})
	}
}

func TestParseUnitPriceLabel(t *testing.T) {
	tests := []struct {
		name                     string
		input                    string
		perKg, perLiter, perItem string
	}{
		{name: "per kg", input: "2,70 €/kg", perKg: "2.70"},
		{name: "per liter upper case", input: "(1,05 €/L)", perLiter: "1.05"},
		{name: "per unit", input: "0,25 €/ud", perItem: "0.25"},
		{name: "spaced kilo", input: "3,00 € / kilo", perKg: "3.00"},
		{name: "both labels", input: "2,70 €/kg 1,05 €/l", perKg: "2.70", perLiter: "1.05"},
		{name: "shelf price only", input: "1,35 €"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUnitPriceLabel(tt.input)
			assertNull(t, tt.perKg, got.PerKg)
			assertNull(t, tt.perLiter, got.PerLiter)
			assertNull(t, tt.perItem, got.PerItem)
		})
	}
}
