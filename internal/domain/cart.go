package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the single active cart of a user. Subtotal and TotalQuantity are derived
// from Items and must be recomputed after every change to the lines.
type Cart struct {
	ID            string          `bson:"_id" json:"id"`
	UserID        string          `bson:"user_id" json:"userId"`
	Items         []CartItem      `bson:"items" json:"cart"`
	Subtotal      decimal.Decimal `bson:"subtotal" json:"subtotal"`
	DeliveryFee   decimal.Decimal `bson:"delivery_fee" json:"deliveryFee"`
	TotalQuantity int             `bson:"total_quantity" json:"totalQuantity"`
	Version       int64           `bson:"version" json:"-"`
	CreatedAt     time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updatedAt"`
}

type CartItem struct {
	ID            string          `bson:"id" json:"id"`
	ProductID     string          `bson:"product_id" json:"productId"`
	VariantID     string          `bson:"variant_id" json:"variantId"`
	Color         string          `bson:"color" json:"color"`
	Name          string          `bson:"name" json:"name"`
	Image         string          `bson:"image,omitempty" json:"image,omitempty"`
	Quantity      int             `bson:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `bson:"unit_price" json:"unitPrice"`
	DiscountPrice decimal.Decimal `bson:"discount_price" json:"discountPrice"`
	MaxQuantity   int             `bson:"max_quantity" json:"maxQuantity"`
	AddedAt       time.Time       `bson:"added_at" json:"addedAt"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.DiscountPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total is what the customer is charged: subtotal plus delivery fee.
func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal.Add(c.DeliveryFee)
}

func (c *Cart) Recalculate() {
	subtotal := decimal.Zero
	quantity := 0
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
		quantity += item.Quantity
	}
	c.Subtotal = subtotal
	c.TotalQuantity = quantity
}

// Merge adds item to the cart. A line for the same product variant absorbs the
// quantity; otherwise the item is appended as a new line.
func (c *Cart) Merge(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID && c.Items[i].VariantID == item.VariantID {
			c.Items[i].Quantity += item.Quantity
			c.Items[i].AddedAt = item.AddedAt
			return
		}
	}
	c.Items = append(c.Items, item)
}

func (c *Cart) FindItem(lineItemID string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].ID == lineItemID {
			return i, true
		}
	}
	return -1, false
}

// SetQuantity changes the quantity of a line; zero or less removes it.
func (c *Cart) SetQuantity(lineItemID string, quantity int) error {
	idx, ok := c.FindItem(lineItemID)
	if !ok {
		return ErrLineItemNotFound
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		return nil
	}
	c.Items[idx].Quantity = quantity
	return nil
}
