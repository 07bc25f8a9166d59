package domain

import "errors"

// Kind groups errors by how callers are expected to react to them.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindExternalService Kind = "external_service"
	KindValidation      Kind = "validation"
	KindInternal        Kind = "internal"
)

var (
	ErrCartNotFound         = errors.New("cart not found")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrLineItemNotFound     = errors.New("line item not found in cart")
	ErrProductNotFound      = errors.New("product not found")
	ErrColorVariantNotFound = errors.New("no variant of the product matches the requested color")
	ErrVariantNotFound      = errors.New("product variant not found")
	ErrAddressNotFound      = errors.New("shipping address not found")
	ErrOrderNotFound        = errors.New("order not found")

	ErrOutOfStock         = errors.New("insufficient stock for product variant")
	ErrCartConflict       = errors.New("cart was modified concurrently")
	ErrDuplicateOrder     = errors.New("order already exists for idempotency key")
	ErrIllegalTransition  = errors.New("illegal status transition")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidDeliveryFee = errors.New("delivery fee must not be negative")
	ErrInvalidColor       = errors.New("color must not be empty")
	ErrInvalidProductID   = errors.New("product id must not be empty")
	ErrInvalidAddress     = errors.New("address is incomplete")
	ErrNoItems            = errors.New("at least one item is required")

	ErrPaymentGateway     = errors.New("payment gateway request failed")
	ErrUpstreamTimeout    = errors.New("upstream dependency timed out")
	ErrWebhookSignature   = errors.New("webhook signature verification failed")
	ErrGatewayUnavailable = errors.New("payment gateway circuit open")
)

type classified struct {
	err  error
	kind Kind
	code string
}

// sentinels lists every classified error. Lookups walk an error's chain from
// the outermost wrapper inward and stop at the first listed sentinel.
var sentinels = []classified{
	{ErrCartNotFound, KindNotFound, "cart_not_found"},
	{ErrCartEmpty, KindNotFound, "cart_empty"},
	{ErrLineItemNotFound, KindNotFound, "line_item_not_found"},
	{ErrProductNotFound, KindNotFound, "product_not_found"},
	{ErrColorVariantNotFound, KindNotFound, "color_variant_not_found"},
	{ErrVariantNotFound, KindNotFound, "variant_not_found"},
	{ErrAddressNotFound, KindNotFound, "address_not_found"},
	{ErrOrderNotFound, KindNotFound, "order_not_found"},

	{ErrOutOfStock, KindConflict, "out_of_stock"},
	{ErrCartConflict, KindConflict, "cart_conflict"},
	{ErrDuplicateOrder, KindConflict, "duplicate_order"},
	{ErrIllegalTransition, KindConflict, "illegal_transition"},

	{ErrInvalidQuantity, KindValidation, "invalid_quantity"},
	{ErrInvalidDeliveryFee, KindValidation, "invalid_delivery_fee"},
	{ErrInvalidColor, KindValidation, "invalid_color"},
	{ErrInvalidProductID, KindValidation, "invalid_product_id"},
	{ErrInvalidAddress, KindValidation, "invalid_address"},
	{ErrNoItems, KindValidation, "no_items"},

	{ErrPaymentGateway, KindExternalService, "payment_gateway_error"},
	{ErrUpstreamTimeout, KindExternalService, "timeout"},
	{ErrWebhookSignature, KindExternalService, "invalid_signature"},
	{ErrGatewayUnavailable, KindExternalService, "payment_gateway_unavailable"},
}

func classify(err error) (classified, bool) {
	for err != nil {
		for _, c := range sentinels {
			if err == c.err {
				return c, true
			}
		}
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				if c, ok := classify(inner); ok {
					return c, true
				}
			}
			return classified{}, false
		default:
			return classified{}, false
		}
	}
	return classified{}, false
}

// KindOf returns the kind of the first known sentinel in err's chain.
// Unknown errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if c, ok := classify(err); ok {
		return c.kind
	}
	return KindInternal
}

// CodeOf returns the stable code of the first known sentinel in err's chain.
func CodeOf(err error) string {
	if c, ok := classify(err); ok {
		return c.code
	}
	return "internal_error"
}

// MessageOf returns the client-facing message for err: the text of its
// sentinel, without the context wrapped around it.
func MessageOf(err error) string {
	if c, ok := classify(err); ok {
		return c.err.Error()
	}
	return "Something went wrong!"
}

// ErrorForCode is the inverse of CodeOf. It returns nil for unknown codes.
func ErrorForCode(code string) error {
	for _, c := range sentinels {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
