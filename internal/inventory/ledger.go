package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anneth/shop/internal/domain"
)

// Ledger records stock leaving the warehouse. Every decrement is a single
// conditional update in the store, so available stock never goes negative.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// DecrementStock takes quantity units of one variant out of stock.
func (l *Ledger) DecrementStock(ctx context.Context, move domain.StockMovement) error {
	resolved, err := l.resolve(ctx, move)
	if err != nil {
		return err
	}
	return l.store.DecrementVariant(ctx, resolved.ProductID, resolved.VariantID, resolved.Quantity)
}

// DecrementBatch applies all movements or none of them. Variants are resolved
// before anything is written; if a decrement fails, the ones already applied
// are restored in reverse order.
func (l *Ledger) DecrementBatch(ctx context.Context, moves []domain.StockMovement) error {
	resolved := make([]domain.StockMovement, len(moves))
	for i, move := range moves {
		r, err := l.resolve(ctx, move)
		if err != nil {
			return fmt.Errorf("item %d (product %s): %w", i, move.ProductID, err)
		}
		resolved[i] = r
	}

	for i, move := range resolved {
		err := l.store.DecrementVariant(ctx, move.ProductID, move.VariantID, move.Quantity)
		if err != nil {
			l.compensate(ctx, resolved[:i])
			return fmt.Errorf("item %d (product %s, variant %s): %w", i, move.ProductID, move.VariantID, err)
		}
	}
	return nil
}

func (l *Ledger) compensate(ctx context.Context, applied []domain.StockMovement) {
	// the caller's context may already be done; restores must still run
	ctx = context.WithoutCancel(ctx)
	for i := len(applied) - 1; i >= 0; i-- {
		move := applied[i]
		if err := l.store.RestoreVariant(ctx, move.ProductID, move.VariantID, move.Quantity); err != nil {
			slog.ErrorContext(ctx, "failed to restore stock",
				"product_id", move.ProductID,
				"variant_id", move.VariantID,
				"quantity", move.Quantity,
				"error", err)
		}
	}
}

// resolve validates a movement and fills in its variant id.
func (l *Ledger) resolve(ctx context.Context, move domain.StockMovement) (domain.StockMovement, error) {
	if move.Quantity <= 0 {
		return move, domain.ErrInvalidQuantity
	}
	if move.ProductID == "" {
		return move, domain.ErrInvalidProductID
	}
	if move.VariantID != "" {
		return move, nil
	}

	product, err := l.store.FindProduct(ctx, move.ProductID)
	if err != nil {
		return move, err
	}
	variant, ok := product.MatchVariant(move.Color)
	if !ok {
		return move, domain.ErrVariantNotFound
	}
	move.VariantID = variant.VariantID
	return move, nil
}
