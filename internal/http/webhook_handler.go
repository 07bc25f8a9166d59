package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/anneth/shop/internal/payment"
)

const stripeSignatureHeader = "Stripe-Signature"

type WebhookVerifier interface {
	Verify(payload []byte, signatureHeader string) (*payment.WebhookEvent, error)
}

type WebhookHandler struct {
	verifier WebhookVerifier
}

func NewWebhookHandler(verifier WebhookVerifier) *WebhookHandler {
	return &WebhookHandler{verifier: verifier}
}

// POST /api/v1/order/webhooks/stripe
//
// The event is only verified and acknowledged.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}

	event, err := h.verifier.Verify(payload, r.Header.Get(stripeSignatureHeader))
	if err != nil {
		slog.WarnContext(r.Context(), "rejected webhook", "error", err)
		respondError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
		return
	}

	slog.InfoContext(r.Context(), "webhook received", "event_id", event.ID, "event_type", event.Type)
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
