package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/payment"
)

const CheckoutStatusSuccess = "success"

// CartLoader reads the committed cart a checkout starts from.
type CartLoader interface {
	LoadForCheckout(ctx context.Context, userID string) (*domain.Cart, error)
}

// CheckoutRecorder counts finished checkouts by outcome.
type CheckoutRecorder interface {
	RecordCheckout(outcome string)
}

type CheckoutRequest struct {
	UserID         string
	Email          string
	Phone          string
	IdempotencyKey string
}

type CheckoutResult struct {
	Status   string               `json:"status"`
	Session  *payment.Session     `json:"session,omitempty"`
	Order    *domain.Order        `json:"order,omitempty"`
	Stage    domain.CheckoutStage `json:"-"`
	Replayed bool                 `json:"-"`
}

type CheckoutDeps struct {
	Carts          CartLoader
	Payments       *PaymentHandler
	Addresses      *AddressHandler
	Orders         *OrderHandler
	Stock          *StockHandler
	Events         OrderEventPublisher
	Recorder       CheckoutRecorder
	PublishTimeout time.Duration
}

type CheckoutService struct {
	carts          CartLoader
	payments       *PaymentHandler
	addresses      *AddressHandler
	orders         *OrderHandler
	stock          *StockHandler
	events         OrderEventPublisher
	recorder       CheckoutRecorder
	publishTimeout time.Duration
}

func NewCheckoutService(deps CheckoutDeps) *CheckoutService {
	s := &CheckoutService{
		carts:          deps.Carts,
		payments:       deps.Payments,
		addresses:      deps.Addresses,
		orders:         deps.Orders,
		stock:          deps.Stock,
		events:         deps.Events,
		recorder:       deps.Recorder,
		publishTimeout: deps.PublishTimeout,
	}
	if s.publishTimeout <= 0 {
		s.publishTimeout = 5 * time.Second
	}
	return s
}

// checkoutState carries everything one checkout has produced so far.
type checkoutState struct {
	req     CheckoutRequest
	stage   domain.CheckoutStage
	cart    *domain.Cart
	session *payment.Session
	intent  payment.IntentStatus
	order   *domain.Order
}

func (st *checkoutState) advance(next domain.CheckoutStage) error {
	if !st.stage.CanTransitionTo(next) {
		return fmt.Errorf("%w: checkout %s -> %s", domain.ErrIllegalTransition, st.stage, next)
	}
	st.stage = next
	return nil
}

func (st *checkoutState) abort(err error) error {
	reached := st.stage
	st.stage = domain.CheckoutStageAborted
	return &CheckoutError{Stage: reached, Err: err}
}

func (st *checkoutState) result() *CheckoutResult {
	return &CheckoutResult{
		Status:  CheckoutStatusSuccess,
		Session: st.session,
		Order:   st.order,
		Stage:   st.stage,
	}
}

// Checkout turns the user's cart into a payment session and an order, then
// takes the ordered stock out of inventory. The cart is left untouched.
//
// When stock reconciliation fails the order is kept but cancelled, and both
// the result and the error are returned.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.IdempotencyKey != "" {
		existing, err := s.orders.ByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "duplicate checkout request",
				"user_id", req.UserID, "idempotency_key", req.IdempotencyKey, "order_id", existing.ID)
			s.record("replayed")
			return replay(existing)
		case !errors.Is(err, domain.ErrOrderNotFound):
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}

	st := &checkoutState{req: req, stage: domain.CheckoutStageIdle}
	result, err := s.run(ctx, st)
	if result != nil && result.Replayed {
		s.record("replayed")
		return result, err
	}
	if err != nil {
		s.record("aborted")
		slog.WarnContext(ctx, "checkout aborted", "user_id", req.UserID, "error", err)
		return result, err
	}

	s.record("complete")
	s.publishOrderPlaced(ctx, st.order, req.Email)
	return result, nil
}

func (s *CheckoutService) run(ctx context.Context, st *checkoutState) (*CheckoutResult, error) {
	cart, err := s.carts.LoadForCheckout(ctx, st.req.UserID)
	if err != nil {
		return nil, st.abort(err)
	}
	st.cart = cart
	if err := st.advance(domain.CheckoutStageCartValidated); err != nil {
		return nil, st.abort(err)
	}

	session, err := s.payments.CreateSession(ctx, payment.SessionRequest{
		Cart:              cart,
		CustomerEmail:     st.req.Email,
		ClientReferenceID: cart.ID,
	})
	if err != nil {
		return nil, st.abort(err)
	}
	st.session = session
	if err := st.advance(domain.CheckoutStagePaymentSessionCreated); err != nil {
		return nil, st.abort(err)
	}

	st.intent = s.intentStatus(ctx, session)

	order, err := s.persistOrder(ctx, st)
	if err != nil {
		var dup *replayError
		if errors.As(err, &dup) {
			return replay(dup.order)
		}
		return nil, st.abort(err)
	}
	st.order = order
	if err := st.advance(domain.CheckoutStageOrderPersisted); err != nil {
		return nil, st.abort(err)
	}

	if err := s.stock.DecrementBatch(ctx, order.Decrements()); err != nil {
		s.cancelOrder(ctx, order, err)
		return st.result(), st.abort(err)
	}
	if err := st.advance(domain.CheckoutStageInventoryReconciled); err != nil {
		return nil, st.abort(err)
	}

	if err := st.advance(domain.CheckoutStageComplete); err != nil {
		return nil, st.abort(err)
	}
	return st.result(), nil
}

// intentStatus looks up the session's payment intent. A failed lookup leaves
// the outcome indeterminate rather than failing the checkout.
func (s *CheckoutService) intentStatus(ctx context.Context, session *payment.Session) payment.IntentStatus {
	if session.PaymentIntentID == "" {
		return payment.IntentStatus{Outcome: domain.PaymentIndeterminate}
	}
	status, err := s.payments.IntentStatus(ctx, session.PaymentIntentID)
	if err != nil {
		slog.WarnContext(ctx, "payment intent lookup failed",
			"payment_intent_id", session.PaymentIntentID, "error", err)
		return payment.IntentStatus{Outcome: domain.PaymentIndeterminate}
	}
	return status
}

// replayError signals that a concurrent request with the same idempotency key
// already stored its order.
type replayError struct {
	order *domain.Order
}

func (e *replayError) Error() string {
	return "order " + e.order.ID + " already placed"
}

func (s *CheckoutService) persistOrder(ctx context.Context, st *checkoutState) (*domain.Order, error) {
	address, err := s.addresses.Latest(ctx, st.req.UserID)
	if err != nil {
		return nil, err
	}

	paymentStatus := st.intent.Raw
	if paymentStatus == "" {
		paymentStatus = st.session.PaymentStatus
	}

	order, err := domain.BuildOrder(domain.OrderInput{
		Cart:              st.cart,
		UserID:            st.req.UserID,
		Phone:             st.req.Phone,
		Address:           address,
		PaymentIntentID:   st.session.PaymentIntentID,
		PaymentStatus:     paymentStatus,
		Outcome:           st.intent.Outcome,
		CheckoutSessionID: st.session.ID,
		CheckoutURL:       st.session.URL,
		IdempotencyKey:    st.req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	err = s.orders.Create(ctx, order)
	if errors.Is(err, domain.ErrDuplicateOrder) && st.req.IdempotencyKey != "" {
		existing, lookupErr := s.orders.ByIdempotencyKey(ctx, st.req.UserID, st.req.IdempotencyKey)
		if lookupErr != nil {
			return nil, err
		}
		return nil, &replayError{order: existing}
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order persisted",
		"order_id", order.ID, "user_id", order.OrderBy, "order_status", order.OrderStatus)
	return order, nil
}

// cancelOrder compensates a failed stock reconciliation. The failure code is
// stored with the order so a replay of the same request reports it again.
func (s *CheckoutService) cancelOrder(ctx context.Context, order *domain.Order, cause error) {
	code := domain.CodeOf(cause)
	ctx = context.WithoutCancel(ctx)
	if err := s.orders.Cancel(ctx, order.ID, order.OrderStatus, code); err != nil {
		slog.ErrorContext(ctx, "failed to cancel order after stock reconciliation failure",
			"order_id", order.ID, "error", err)
		return
	}
	order.OrderStatus = domain.OrderStatusCancelled
	order.FailureCode = code
}

func (s *CheckoutService) publishOrderPlaced(ctx context.Context, order *domain.Order, email string) {
	if s.events == nil {
		return
	}
	event := domain.NewOrderPlacedEvent(order, email)
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		defer cancel()
		if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
			slog.ErrorContext(ctx, "failed to publish order placed event", "order_id", event.OrderID, "error", err)
		}
	}()
}

func (s *CheckoutService) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordCheckout(outcome)
	}
}

// replay rebuilds the result of an earlier checkout from its stored order.
// An order cancelled by a failed stock reconciliation replays that failure.
func replay(order *domain.Order) (*CheckoutResult, error) {
	var session *payment.Session
	if order.CheckoutSessionID != "" {
		session = &payment.Session{
			ID:              order.CheckoutSessionID,
			URL:             order.CheckoutURL,
			PaymentIntentID: order.PaymentIntentID,
			PaymentStatus:   order.PaymentStatus,
		}
	}
	result := &CheckoutResult{
		Status:   CheckoutStatusSuccess,
		Session:  session,
		Order:    order,
		Stage:    domain.CheckoutStageComplete,
		Replayed: true,
	}
	if order.FailureCode == "" {
		return result, nil
	}

	cause := domain.ErrorForCode(order.FailureCode)
	if cause == nil {
		cause = fmt.Errorf("checkout failed with %s", order.FailureCode)
	}
	result.Stage = domain.CheckoutStageAborted
	return result, &CheckoutError{Stage: domain.CheckoutStageOrderPersisted, Err: cause}
}
