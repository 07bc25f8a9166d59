package main

import (
	"strings"
	"testing"

	"github.com/anneth/shop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadProducts(t *testing.T) {
	catalog := `[
		{"name":"Armchair","category":"living","variants":[
			{"color":"red","unitPrice":"120.00","discountPrice":"99.99","quantityAvailable":5},
			{"variantId":"armchair-grey","color":"grey","unitPrice":120,"quantityAvailable":2}
		]},
		{"id":"lamp","name":"Lamp","variants":[{"color":"white","unitPrice":"15","quantityAvailable":10}]}
	]`

	products, err := readProducts(strings.NewReader(catalog))
	require.NoError(t, err)
	require.Len(t, products, 2)

	chair := products[0]
	assert.NotEmpty(t, chair.ID)
	assert.NotEmpty(t, chair.Variants[0].VariantID)
	assert.Equal(t, "armchair-grey", chair.Variants[1].VariantID)
	assert.Equal(t, "99.99", chair.Variants[0].EffectivePrice().String())
	assert.Equal(t, "120", chair.Variants[1].EffectivePrice().String())
	assert.False(t, chair.CreatedAt.IsZero())

	assert.Equal(t, "lamp", products[1].ID)
}

func TestReadProducts_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":       `{`,
		"missing name":   `[{"variants":[{"color":"red"}]}]`,
		"no variants":    `[{"name":"Lamp"}]`,
		"missing color":  `[{"name":"Lamp","variants":[{"quantityAvailable":1}]}]`,
		"negative stock": `[{"name":"Lamp","variants":[{"color":"red","quantityAvailable":-1}]}]`,
		"negative sold":  `[{"name":"Lamp","variants":[{"color":"red","quantityAvailable":1,"quantitySold":-2}]}]`,
	}
	for name, catalog := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := readProducts(strings.NewReader(catalog))
			assert.Error(t, err)
		})
	}

	_, err := readProducts(strings.NewReader(`[{"name":"Lamp","variants":[{"quantityAvailable":1}]}]`))
	assert.ErrorIs(t, err, domain.ErrInvalidColor)

	_, err = readProducts(strings.NewReader(`[{"name":"Lamp","variants":[{"color":"red","quantitySold":-1}]}]`))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}
