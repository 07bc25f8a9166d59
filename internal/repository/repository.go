package repository

import (
	"context"

	"github.com/anneth/shop/internal/domain"
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// ReplaceCart overwrites the user's cart with a fresh one and bumps its version.
	ReplaceCart(ctx context.Context, cart *domain.Cart) error
	// SaveCart persists cart if the stored version still equals cart.Version.
	// Version 0 means the cart must not exist yet.
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type ProductRepository interface {
	FindProduct(ctx context.Context, productID string) (*domain.Product, error)
	DecrementVariant(ctx context.Context, productID, variantID string, quantity int) error
	RestoreVariant(ctx context.Context, productID, variantID string, quantity int) error
	InsertProducts(ctx context.Context, products []domain.Product) error
	DeleteAllProducts(ctx context.Context) (int64, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	// CancelOrder moves an order from status from to Cancelled and records why,
	// failing when the stored status is no longer from. An order that is
	// already Cancelled only gets the failure code.
	CancelOrder(ctx context.Context, orderID string, from domain.OrderStatus, failureCode string) error
}

type AddressRepository interface {
	CreateAddress(ctx context.Context, address *domain.Address) error
	LatestAddress(ctx context.Context, userID string) (*domain.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
}
