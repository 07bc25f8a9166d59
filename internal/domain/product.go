package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string         `bson:"_id" json:"id"`
	Name        string         `bson:"name" json:"name"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Category    string         `bson:"category,omitempty" json:"category,omitempty"`
	Sold        int            `bson:"sold" json:"sold"`
	Variants    []ColorVariant `bson:"variants" json:"variants"`
	CreatedAt   time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updated_at" json:"updatedAt"`
}

// ColorVariant is one purchasable color of a product. Stock is tracked per variant.
type ColorVariant struct {
	VariantID         string          `bson:"variant_id" json:"variantId"`
	Color             string          `bson:"color" json:"color"`
	UnitPrice         decimal.Decimal `bson:"unit_price" json:"unitPrice"`
	DiscountPrice     decimal.Decimal `bson:"discount_price" json:"discountPrice"`
	QuantityAvailable int             `bson:"quantity_available" json:"quantityAvailable"`
	QuantitySold      int             `bson:"quantity_sold" json:"quantitySold"`
	Image             string          `bson:"image,omitempty" json:"image,omitempty"`
}

// EffectivePrice is what the customer pays per unit.
func (v ColorVariant) EffectivePrice() decimal.Decimal {
	if v.DiscountPrice.IsPositive() {
		return v.DiscountPrice
	}
	return v.UnitPrice
}

// MatchVariant finds the variant for a requested color. An exact case-insensitive
// match wins; otherwise the first variant whose color contains the requested color
// (case-insensitive) in stored order is returned.
func (p *Product) MatchVariant(color string) (*ColorVariant, bool) {
	want := strings.ToLower(strings.TrimSpace(color))
	if want == "" {
		return nil, false
	}

	for i := range p.Variants {
		if strings.ToLower(p.Variants[i].Color) == want {
			return &p.Variants[i], true
		}
	}
	for i := range p.Variants {
		if strings.Contains(strings.ToLower(p.Variants[i].Color), want) {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

func (p *Product) Variant(variantID string) (*ColorVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].VariantID == variantID {
			return &p.Variants[i], true
		}
	}
	return nil, false
}
