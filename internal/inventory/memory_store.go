package inventory

import (
	"context"
	"sync"

	"github.com/anneth/shop/internal/domain"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product // productID -> product
}

// NewMemoryStore creates a new in-memory stock store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*domain.Product),
	}
}

// SetProduct stores a copy of the product (used for initialization)
func (s *MemoryStore) SetProduct(product domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.Variants = append([]domain.ColorVariant(nil), product.Variants...)
	s.products[product.ID] = &product
}

// FindProduct returns a copy so callers cannot mutate stored stock
func (s *MemoryStore) FindProduct(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[productID]
	if !exists {
		return nil, domain.ErrProductNotFound
	}

	cp := *product
	cp.Variants = append([]domain.ColorVariant(nil), product.Variants...)
	return &cp, nil
}

func (s *MemoryStore) DecrementVariant(_ context.Context, productID, variantID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	variant, product, err := s.variant(productID, variantID)
	if err != nil {
		return err
	}
	if variant.QuantityAvailable < quantity {
		return domain.ErrOutOfStock
	}

	variant.QuantityAvailable -= quantity
	variant.QuantitySold += quantity
	product.Sold += quantity
	return nil
}

func (s *MemoryStore) RestoreVariant(_ context.Context, productID, variantID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	variant, product, err := s.variant(productID, variantID)
	if err != nil {
		return err
	}

	variant.QuantityAvailable += quantity
	variant.QuantitySold -= quantity
	product.Sold -= quantity
	return nil
}

// variant must be called with the lock held
func (s *MemoryStore) variant(productID, variantID string) (*domain.ColorVariant, *domain.Product, error) {
	product, exists := s.products[productID]
	if !exists {
		return nil, nil, domain.ErrProductNotFound
	}
	variant, ok := product.Variant(variantID)
	if !ok {
		return nil, nil, domain.ErrVariantNotFound
	}
	return variant, product, nil
}
