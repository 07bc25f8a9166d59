package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct() *Product {
	return &Product{
		ID:   "p1",
		Name: "Sofa",
		Variants: []ColorVariant{
			{VariantID: "v-dark-red", Color: "Dark Red", QuantityAvailable: 3},
			{VariantID: "v-red", Color: "Red", QuantityAvailable: 5},
			{VariantID: "v-blue", Color: "Navy Blue", QuantityAvailable: 1},
		},
	}
}

func TestMatchVariant_ExactMatchWinsOverSubstring(t *testing.T) {
	v, ok := testProduct().MatchVariant("red")

	require.True(t, ok)
	assert.Equal(t, "v-red", v.VariantID)
}

func TestMatchVariant_SubstringFallback(t *testing.T) {
	v, ok := testProduct().MatchVariant("BLUE")

	require.True(t, ok)
	assert.Equal(t, "v-blue", v.VariantID)
}

func TestMatchVariant_FirstSubstringInStoredOrder(t *testing.T) {
	p := testProduct()
	p.Variants = p.Variants[:1]
	p.Variants = append(p.Variants, ColorVariant{VariantID: "v-light-red", Color: "Light Red"})

	v, ok := p.MatchVariant("Red")

	require.True(t, ok)
	assert.Equal(t, "v-dark-red", v.VariantID)
}

func TestMatchVariant_NoMatch(t *testing.T) {
	_, ok := testProduct().MatchVariant("green")
	assert.False(t, ok)

	_, ok = testProduct().MatchVariant("  ")
	assert.False(t, ok)
}

func TestMatchVariant_ReturnsPointerIntoProduct(t *testing.T) {
	p := testProduct()
	v, ok := p.MatchVariant("navy blue")
	require.True(t, ok)

	v.QuantityAvailable = 0
	assert.Equal(t, 0, p.Variants[2].QuantityAvailable)
}

func TestEffectivePrice(t *testing.T) {
	v := ColorVariant{UnitPrice: decimal.NewFromInt(20), DiscountPrice: decimal.NewFromInt(15)}
	assert.True(t, decimal.NewFromInt(15).Equal(v.EffectivePrice()))

	v.DiscountPrice = decimal.Zero
	assert.True(t, decimal.NewFromInt(20).Equal(v.EffectivePrice()))
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"10", 1000},
		{"19.99", 1999},
		{"0.005", 1},
		{"4.994", 499},
		{"0", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.amount)), tt.amount)
	}
}
