package payment

import (
	"github.com/anneth/shop/internal/domain"
)

type SessionRequest struct {
	Cart              *domain.Cart
	CustomerEmail     string
	ClientReferenceID string
}

// Session is the hosted checkout page opened for a cart.
type Session struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	PaymentIntentID string `json:"paymentIntent,omitempty"`
	PaymentStatus   string `json:"paymentStatus,omitempty"`
}

type IntentStatus struct {
	Raw     string
	Outcome domain.PaymentOutcome
}

// ClassifyIntentStatus maps a raw gateway intent status to an outcome. Unknown
// and empty statuses are indeterminate.
func ClassifyIntentStatus(raw string) domain.PaymentOutcome {
	switch raw {
	case "succeeded":
		return domain.PaymentSucceeded
	case "requires_action", "requires_payment_method":
		return domain.PaymentPending
	case "canceled", "failed":
		return domain.PaymentFailed
	default:
		return domain.PaymentIndeterminate
	}
}
