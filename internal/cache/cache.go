package cache

import (
	"context"
	"errors"

	"github.com/anneth/shop/internal/domain"
)

// CartCache is a read-through cache of carts. Every Delete bumps the key's
// generation; Set is dropped when the generation moved after it was read, so
// a fill racing a write never resurrects the older cart.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Generation(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, cart *domain.Cart, generation int64) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
