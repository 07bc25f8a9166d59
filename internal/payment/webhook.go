package payment

import (
	"fmt"

	"github.com/anneth/shop/internal/domain"
	"github.com/stripe/stripe-go/v76/webhook"
)

type WebhookEvent struct {
	ID   string
	Type string
}

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify checks the Stripe-Signature header against the raw request body.
func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebhookSignature, err)
	}
	return &WebhookEvent{ID: event.ID, Type: string(event.Type)}, nil
}
