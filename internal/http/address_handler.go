package http

import (
	"context"
	"net/http"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AddressService interface {
	Create(ctx context.Context, userID string, address domain.Address) (*domain.Address, error)
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Delete(ctx context.Context, userID, addressID string) error
}

type AddressHandler struct {
	addresses AddressService
	timeout   time.Duration
}

func NewAddressHandler(addresses AddressService, timeout time.Duration) *AddressHandler {
	return &AddressHandler{
		addresses: addresses,
		timeout:   timeout,
	}
}

type AddressRequestDTO struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// POST /api/v1/user/address
func (h *AddressHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddressRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	address, err := h.addresses.Create(ctx, principal.UserID, domain.Address{
		Street:  req.Street,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
		Country: req.Country,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, address)
}

// GET /api/v1/user/address
func (h *AddressHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	addresses, err := h.addresses.List(ctx, principal.UserID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if addresses == nil {
		addresses = []domain.Address{}
	}

	respondJSON(w, http.StatusOK, addresses)
}

// DELETE /api/v1/user/address/{addressID}
func (h *AddressHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	principal, ok := principalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.addresses.Delete(ctx, principal.UserID, chi.URLParam(r, "addressID")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
