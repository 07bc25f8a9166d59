package inventory

import (
	"context"

	"github.com/anneth/shop/internal/domain"
)

// Store defines the stock operations the ledger needs from storage.
type Store interface {
	// FindProduct returns the product with its variants
	FindProduct(ctx context.Context, productID string) (*domain.Product, error)

	// DecrementVariant atomically moves quantity from available to sold.
	// Fails with domain.ErrOutOfStock when fewer than quantity units are available.
	DecrementVariant(ctx context.Context, productID, variantID string, quantity int) error

	// RestoreVariant reverses a previous DecrementVariant
	RestoreVariant(ctx context.Context, productID, variantID string, quantity int) error
}
