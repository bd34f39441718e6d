package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lower-cases", input: "Leche ENTERA", expected: "leche entera"},
		{name: "trims", input: "  Leche  ", expected: "leche"},
		{name: "collapses whitespace", input: "Leche \t\n entera", expected: "leche entera"},
		{name: "folds nbsp", input: "Leche\u00a0entera", expected: "leche entera"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormaliseKey(tt.input))
		})
	}
}

func TestProductID_Stable(t *testing.T) {
	first := ProductID("Mercadona", "Leche entera Hacendado 1 L")
	second := ProductID("Mercadona", "Leche entera Hacendado 1 L")

	assert.Equal(t, first, second)
	_, err := uuid.Parse(first)
	require.NoError(t, err)
}

func TestProductID_KnownValue(t *testing.T) {
	// uuid5(NAMESPACE_URL, "mercadona|leche") must not change between releases.
	expected := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mercadona|leche")).String()
	assert.Equal(t, expected, ProductID("Mercadona", "Leche"))
}

func TestProductID_InsensitiveToCaseAndWhitespace(t *testing.T) {
	base := ProductID("Mercadona", "Leche entera")

	assert.Equal(t, base, ProductID("mercadona", "LECHE ENTERA"))
	assert.Equal(t, base, ProductID(" Mercadona ", "  Leche   entera "))
}

func TestProductID_DistinguishesStores(t *testing.T) {
	assert.NotEqual(t, ProductID("Mercadona", "Leche"), ProductID("Consum", "Leche"))
}

func TestCategoryID(t *testing.T) {
	base := CategoryID("Lácteos", "Leche")

	assert.Equal(t, base, CategoryID(" lácteos ", "LECHE"))
	assert.NotEqual(t, base, CategoryID("Leche", "Lácteos"))
	assert.NotEqual(t, base, ProductID("Lácteos", "Leche"), "separator keeps id spaces apart")
}
