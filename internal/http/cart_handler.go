package http

import (
	"context"
	"net/http"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/service"
	"github.com/shopspring/decimal"
)

type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	CreateOrReplace(ctx context.Context, userID string, items []service.ItemRequest) (*domain.Cart, error)
	AddItems(ctx context.Context, userID string, items []service.ItemRequest) (*domain.Cart, error)
	UpdateLineItem(ctx context.Context, userID, lineItemID string, quantity int, deliveryFee decimal.Decimal) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type CartItemDTO struct {
	ProductID string `json:"productId"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type CartRequestDTO struct {
	Cart []CartItemDTO `json:"cart"`
}

type UpdateCartRequestDTO struct {
	ItemID      string              `json:"itemId"`
	NewQuantity int                 `json:"newQuantity"`
	TotalAmt    decimal.NullDecimal `json:"totalAmt"`
}

func (d CartRequestDTO) items() []service.ItemRequest {
	items := make([]service.ItemRequest, len(d.Cart))
	for i, item := range d.Cart {
		items[i] = service.ItemRequest{
			ProductID: item.ProductID,
			Color:     item.Color,
			Quantity:  item.Quantity,
		}
	}
	return items
}

// GET /api/v1/user/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.Get(ctx, principal.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// POST /api/v1/user/create-cart
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CartRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(req.Cart) == 0 {
		respondError(w, http.StatusBadRequest, "no_items", "cart must contain at least one item")
		return
	}

	cart, err := h.carts.CreateOrReplace(ctx, principal.UserID, req.items())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, cart)
}

// POST /api/v1/user/add-cart
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CartRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.carts.AddItems(ctx, principal.UserID, req.items())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// PUT /api/v1/user/update-cart
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req UpdateCartRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "itemId is required")
		return
	}

	// absent fee means no delivery fee
	fee := decimal.Zero
	if req.TotalAmt.Valid {
		fee = req.TotalAmt.Decimal
	}

	cart, err := h.carts.UpdateLineItem(ctx, principal.UserID, req.ItemID, req.NewQuantity, fee)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

// DELETE /api/v1/user/empty-cart
func (h *CartHandler) EmptyCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.Clear(ctx, principal.UserID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
