package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anneth/shop/internal/cache"
	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const maxCartWriteAttempts = 3

// Catalog resolves products when items are put into a cart.
type Catalog interface {
	FindProduct(ctx context.Context, productID string) (*domain.Product, error)
}

type ItemRequest struct {
	ProductID string
	Color     string
	Quantity  int
}

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog Catalog
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog Catalog) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
	}
}

// Get returns the user's cart, preferring the cache.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.WarnContext(ctx, "cart cache get failed", "user_id", userID, "error", err)
		}

		gen, genErr := s.cache.Generation(ctx, userID)

		cart, err = s.repo.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		if genErr != nil {
			slog.WarnContext(ctx, "cart cache generation failed", "user_id", userID, "error", genErr)
		} else {
			s.fillCache(ctx, userID, cart, gen)
		}

		return cart, nil
	})
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil, domain.ErrCartEmpty
	}
	if err != nil {
		return nil, err
	}

	cart := v.(*domain.Cart)
	if cart.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}
	return cart, nil
}

// LoadForCheckout reads the committed cart from the store, bypassing the cache.
func (s *CartService) LoadForCheckout(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}
	return cart, nil
}

// CreateOrReplace discards the user's current cart and stores one built from items.
func (s *CartService) CreateOrReplace(ctx context.Context, userID string, items []ItemRequest) (*domain.Cart, error) {
	lines, err := s.resolveItems(ctx, items)
	if err != nil {
		return nil, err
	}

	cart := &domain.Cart{UserID: userID}
	for _, line := range lines {
		cart.Merge(line)
	}
	cart.Recalculate()

	if err := s.repo.ReplaceCart(ctx, cart); err != nil {
		slog.ErrorContext(ctx, "repo replace cart failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

// AddItems merges items into the user's cart, creating the cart if needed.
func (s *CartService) AddItems(ctx context.Context, userID string, items []ItemRequest) (*domain.Cart, error) {
	if len(items) == 0 {
		return nil, domain.ErrNoItems
	}
	lines, err := s.resolveItems(ctx, items)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, userID, true, func(cart *domain.Cart) error {
		for _, line := range lines {
			cart.Merge(line)
		}
		return nil
	})
}

// UpdateLineItem sets the quantity of one line and the cart's delivery fee.
// A quantity of zero or less removes the line.
func (s *CartService) UpdateLineItem(ctx context.Context, userID, lineItemID string, quantity int, deliveryFee decimal.Decimal) (*domain.Cart, error) {
	if deliveryFee.IsNegative() {
		return nil, domain.ErrInvalidDeliveryFee
	}

	return s.mutate(ctx, userID, false, func(cart *domain.Cart) error {
		if err := cart.SetQuantity(lineItemID, quantity); err != nil {
			return err
		}
		cart.DeliveryFee = deliveryFee
		return nil
	})
}

// Clear removes the user's cart. Clearing a missing cart is not an error.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrCartNotFound) {
		slog.ErrorContext(ctx, "repo delete cart failed", "user_id", userID, "error", err)
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// mutate runs a read-modify-write on the cart, retrying when another writer
// committed in between.
func (s *CartService) mutate(ctx context.Context, userID string, create bool, apply func(*domain.Cart) error) (*domain.Cart, error) {
	for attempt := 1; attempt <= maxCartWriteAttempts; attempt++ {
		cart, err := s.repo.GetCart(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrCartNotFound) && create:
			cart = &domain.Cart{UserID: userID}
		case err != nil:
			return nil, err
		}

		if err := apply(cart); err != nil {
			return nil, err
		}
		cart.Recalculate()

		err = s.repo.SaveCart(ctx, cart)
		if errors.Is(err, domain.ErrCartConflict) {
			slog.DebugContext(ctx, "cart write conflict, retrying", "user_id", userID, "attempt", attempt)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "repo save cart failed", "user_id", userID, "error", err)
			return nil, err
		}

		s.invalidateCache(userID)
		return cart, nil
	}
	return nil, domain.ErrCartConflict
}

// resolveItems validates the requested items and snapshots the catalog data for each.
func (s *CartService) resolveItems(ctx context.Context, items []ItemRequest) ([]domain.CartItem, error) {
	products := make(map[string]*domain.Product)
	now := time.Now().UTC()

	lines := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		switch {
		case strings.TrimSpace(item.ProductID) == "":
			return nil, domain.ErrInvalidProductID
		case strings.TrimSpace(item.Color) == "":
			return nil, domain.ErrInvalidColor
		case item.Quantity <= 0:
			return nil, domain.ErrInvalidQuantity
		}

		product, ok := products[item.ProductID]
		if !ok {
			var err error
			if product, err = s.catalog.FindProduct(ctx, item.ProductID); err != nil {
				return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
			}
			products[item.ProductID] = product
		}

		variant, ok := product.MatchVariant(item.Color)
		if !ok {
			return nil, fmt.Errorf("product %s color %q: %w", item.ProductID, item.Color, domain.ErrColorVariantNotFound)
		}

		lines = append(lines, domain.CartItem{
			ID:            uuid.NewString(),
			ProductID:     product.ID,
			VariantID:     variant.VariantID,
			Color:         variant.Color,
			Name:          product.Name,
			Image:         variant.Image,
			Quantity:      item.Quantity,
			UnitPrice:     variant.UnitPrice,
			DiscountPrice: variant.EffectivePrice(),
			MaxQuantity:   variant.QuantityAvailable,
			AddedAt:       now,
		})
	}
	return lines, nil
}

// fillCache stores cart unless the cart was invalidated after gen was read.
func (s *CartService) fillCache(ctx context.Context, userID string, cart *domain.Cart, gen int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, userID, cart, gen); err != nil {
		slog.WarnContext(ctx, "cart cache set failed", "user_id", userID, "error", err)
	}
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		slog.Warn("cart cache invalidate failed", "user_id", userID, "error", err)
	}
}
