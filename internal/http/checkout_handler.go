package http

import (
	"context"
	"net/http"
	"time"

	"github.com/anneth/shop/internal/service"
)

const idempotencyKeyHeader = "Idempotency-Key"

type CheckoutService interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

// POST /api/v1/order/checkout-session
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	key := r.Header.Get(idempotencyKeyHeader)
	if len(key) > 255 {
		respondError(w, http.StatusBadRequest, "invalid_idempotency_key", "Idempotency-Key must be at most 255 characters")
		return
	}

	result, err := h.checkout.Checkout(ctx, service.CheckoutRequest{
		UserID:         principal.UserID,
		Email:          principal.Email,
		Phone:          principal.Phone,
		IdempotencyKey: key,
	})
	if err != nil {
		if result != nil && result.Order != nil {
			// the order was stored before the failure; tell the client which one
			w.Header().Set("X-Order-ID", result.Order.ID)
		}
		handleServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}
