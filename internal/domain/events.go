package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventTypeOrderPlaced = "order.placed"

// OrderPlacedEvent is published after a checkout completes.
type OrderPlacedEvent struct {
	EventType       string          `json:"event_type"`
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	Email           string          `json:"email"`
	OrderStatus     OrderStatus     `json:"order_status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItem     `json:"items"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

func NewOrderPlacedEvent(order *Order, email string) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventType:       EventTypeOrderPlaced,
		OrderID:         order.ID,
		UserID:          order.OrderBy,
		Email:           email,
		OrderStatus:     order.OrderStatus,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		Items:           order.Items,
		OccurredAt:      time.Now().UTC(),
	}
}
