package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/payment"
	"github.com/anneth/shop/internal/repository"
)

// PaymentGateway is the payment provider as seen by checkout.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
	RetrievePaymentIntentStatus(ctx context.Context, intentID string) (payment.IntentStatus, error)
}

type StockLedger interface {
	DecrementBatch(ctx context.Context, moves []domain.StockMovement) error
}

type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) error
}

// Each handler bounds calls to one dependency with its own timeout.

type PaymentHandler struct {
	gateway PaymentGateway
	timeout time.Duration
}

func NewPaymentHandler(gateway PaymentGateway, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		gateway: gateway,
		timeout: timeout,
	}
}

func (h *PaymentHandler) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	session, err := h.gateway.CreateSession(ctx, req)
	return session, upstreamError(ctx, err)
}

func (h *PaymentHandler) IntentStatus(ctx context.Context, intentID string) (payment.IntentStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status, err := h.gateway.RetrievePaymentIntentStatus(ctx, intentID)
	return status, upstreamError(ctx, err)
}

type AddressHandler struct {
	repo    repository.AddressRepository
	timeout time.Duration
}

func NewAddressHandler(repo repository.AddressRepository, timeout time.Duration) *AddressHandler {
	return &AddressHandler{
		repo:    repo,
		timeout: timeout,
	}
}

func (h *AddressHandler) Latest(ctx context.Context, userID string) (*domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	address, err := h.repo.LatestAddress(ctx, userID)
	return address, upstreamError(ctx, err)
}

type OrderHandler struct {
	repo    repository.OrderRepository
	timeout time.Duration
}

func NewOrderHandler(repo repository.OrderRepository, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		repo:    repo,
		timeout: timeout,
	}
}

func (h *OrderHandler) Create(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return upstreamError(ctx, h.repo.CreateOrder(ctx, order))
}

func (h *OrderHandler) ByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	order, err := h.repo.FindByIdempotencyKey(ctx, userID, key)
	return order, upstreamError(ctx, err)
}

func (h *OrderHandler) Cancel(ctx context.Context, orderID string, from domain.OrderStatus, failureCode string) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return upstreamError(ctx, h.repo.CancelOrder(ctx, orderID, from, failureCode))
}

type StockHandler struct {
	ledger  StockLedger
	timeout time.Duration
}

func NewStockHandler(ledger StockLedger, timeout time.Duration) *StockHandler {
	return &StockHandler{
		ledger:  ledger,
		timeout: timeout,
	}
}

func (h *StockHandler) DecrementBatch(ctx context.Context, moves []domain.StockMovement) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return upstreamError(ctx, h.ledger.DecrementBatch(ctx, moves))
}

// upstreamError marks err as a timeout when the handler's deadline expired.
func upstreamError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return err
}
