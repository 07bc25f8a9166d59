package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNotProcessed   OrderStatus = "Not Processed"
	OrderStatusCashOnDelivery OrderStatus = "Cash on Delivery"
	OrderStatusProcessing     OrderStatus = "Processing"
	OrderStatusDispatched     OrderStatus = "Dispatched"
	OrderStatusCancelled      OrderStatus = "Cancelled"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNotProcessed:   {OrderStatusProcessing, OrderStatusCashOnDelivery, OrderStatusDispatched, OrderStatusCancelled},
	OrderStatusCashOnDelivery: {OrderStatusDispatched, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusDispatched, OrderStatusCancelled},
	OrderStatusDispatched:     {OrderStatusDelivered, OrderStatusCancelled},
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusDelivered
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// PaymentOutcome is the normalized result of a payment intent lookup.
type PaymentOutcome string

const (
	PaymentSucceeded     PaymentOutcome = "succeeded"
	PaymentPending       PaymentOutcome = "pending"
	PaymentFailed        PaymentOutcome = "failed"
	PaymentIndeterminate PaymentOutcome = "indeterminate"
)

// InitialOrderStatus picks the status an order starts in. Anything that is not a
// clear success, pending or failure leaves the order unprocessed.
func InitialOrderStatus(outcome PaymentOutcome) OrderStatus {
	switch outcome {
	case PaymentSucceeded:
		return OrderStatusProcessing
	case PaymentPending:
		return OrderStatusCashOnDelivery
	case PaymentFailed:
		return OrderStatusCancelled
	default:
		return OrderStatusNotProcessed
	}
}

type OrderItem struct {
	ProductID string          `bson:"product_id" json:"productId"`
	VariantID string          `bson:"variant_id" json:"variantId"`
	Color     string          `bson:"color" json:"color"`
	Name      string          `bson:"name" json:"name"`
	Image     string          `bson:"image,omitempty" json:"image,omitempty"`
	Quantity  int             `bson:"quantity" json:"quantity"`
	Price     decimal.Decimal `bson:"price" json:"price"`
}

type Order struct {
	ID                string          `bson:"_id" json:"id"`
	OrderBy           string          `bson:"order_by" json:"orderBy"`
	CartID            string          `bson:"cart_id" json:"cartId"`
	Items             []OrderItem     `bson:"items" json:"products"`
	Subtotal          decimal.Decimal `bson:"subtotal" json:"subtotal"`
	DeliveryFee       decimal.Decimal `bson:"delivery_fee" json:"deliveryFee"`
	TotalAmount       decimal.Decimal `bson:"total_amount" json:"totalAmount"`
	Phone             string          `bson:"phone,omitempty" json:"phone,omitempty"`
	ShippingAddress   string          `bson:"shipping_address" json:"shippingAddress"`
	PaymentIntentID   string          `bson:"payment_intent_id,omitempty" json:"paymentIntent,omitempty"`
	PaymentStatus     string          `bson:"payment_status,omitempty" json:"paymentStatus,omitempty"`
	CheckoutSessionID string          `bson:"checkout_session_id,omitempty" json:"checkoutSessionId,omitempty"`
	CheckoutURL       string          `bson:"checkout_url,omitempty" json:"checkoutUrl,omitempty"`
	OrderStatus       OrderStatus     `bson:"order_status" json:"orderStatus"`
	FailureCode       string          `bson:"failure_code,omitempty" json:"failureCode,omitempty"`
	IdempotencyKey    string          `bson:"idempotency_key,omitempty" json:"-"`
	CreatedAt         time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `bson:"updated_at" json:"updatedAt"`
}

type OrderInput struct {
	Cart              *Cart
	UserID            string
	Phone             string
	Address           *Address
	PaymentIntentID   string
	PaymentStatus     string
	Outcome           PaymentOutcome
	CheckoutSessionID string
	CheckoutURL       string
	IdempotencyKey    string
}

// BuildOrder turns a cart snapshot and the payment result into a new order.
// Lines are copied so later cart edits never reach the order.
func BuildOrder(in OrderInput) (*Order, error) {
	if in.Cart == nil || in.Cart.IsEmpty() {
		return nil, ErrCartEmpty
	}
	if in.Address == nil {
		return nil, ErrAddressNotFound
	}

	items := make([]OrderItem, len(in.Cart.Items))
	for i, line := range in.Cart.Items {
		items[i] = OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Color:     line.Color,
			Name:      line.Name,
			Image:     line.Image,
			Quantity:  line.Quantity,
			Price:     line.DiscountPrice,
		}
	}

	outcome := in.Outcome
	if in.PaymentIntentID == "" {
		outcome = PaymentIndeterminate
	}

	now := time.Now().UTC()
	return &Order{
		ID:                uuid.NewString(),
		OrderBy:           in.UserID,
		CartID:            in.Cart.ID,
		Items:             items,
		Subtotal:          in.Cart.Subtotal,
		DeliveryFee:       in.Cart.DeliveryFee,
		TotalAmount:       in.Cart.Total(),
		Phone:             in.Phone,
		ShippingAddress:   in.Address.Flatten(),
		PaymentIntentID:   in.PaymentIntentID,
		PaymentStatus:     in.PaymentStatus,
		CheckoutSessionID: in.CheckoutSessionID,
		CheckoutURL:       in.CheckoutURL,
		OrderStatus:       InitialOrderStatus(outcome),
		IdempotencyKey:    in.IdempotencyKey,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Decrements lists the stock movements the order requires.
func (o *Order) Decrements() []StockMovement {
	out := make([]StockMovement, len(o.Items))
	for i, item := range o.Items {
		out[i] = StockMovement{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Color:     item.Color,
			Quantity:  item.Quantity,
		}
	}
	return out
}

// StockMovement identifies a quantity of one product variant. When VariantID is
// empty the variant is resolved from Color.
type StockMovement struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
}
