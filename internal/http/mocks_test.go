package http

import (
	"context"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/payment"
	"github.com/anneth/shop/internal/service"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

var testSecret = []byte("test-secret")

func signToken(subject string, secret []byte) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: "jane@example.com",
		Phone: "555-0100",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString(secret)
	if err != nil {
		panic(err)
	}
	return s
}

type mockCartService struct {
	cart *domain.Cart
	err  error

	userID   string
	items    []service.ItemRequest
	lineID   string
	quantity int
	fee      decimal.Decimal
	cleared  bool
}

func (m *mockCartService) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.userID = userID
	return m.cart, m.err
}

func (m *mockCartService) CreateOrReplace(_ context.Context, userID string, items []service.ItemRequest) (*domain.Cart, error) {
	m.userID, m.items = userID, items
	return m.cart, m.err
}

func (m *mockCartService) AddItems(_ context.Context, userID string, items []service.ItemRequest) (*domain.Cart, error) {
	m.userID, m.items = userID, items
	return m.cart, m.err
}

func (m *mockCartService) UpdateLineItem(_ context.Context, userID, lineItemID string, quantity int, fee decimal.Decimal) (*domain.Cart, error) {
	m.userID, m.lineID, m.quantity, m.fee = userID, lineItemID, quantity, fee
	if m.err == nil && fee.IsNegative() {
		return nil, domain.ErrInvalidDeliveryFee
	}
	return m.cart, m.err
}

func (m *mockCartService) Clear(_ context.Context, userID string) error {
	m.userID, m.cleared = userID, true
	return m.err
}

type mockCheckoutService struct {
	result *service.CheckoutResult
	err    error
	req    service.CheckoutRequest
}

func (m *mockCheckoutService) Checkout(_ context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	m.req = req
	return m.result, m.err
}

type mockOrderService struct {
	orders []domain.Order
	err    error
}

func (m *mockOrderService) List(_ context.Context, userID string) ([]domain.Order, error) {
	return m.orders, m.err
}

func (m *mockOrderService) Get(_ context.Context, userID, orderID string) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.ID == orderID && o.OrderBy == userID {
			return &o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

type mockAddressService struct {
	created   domain.Address
	addresses []domain.Address
	err       error
	deleted   string
}

func (m *mockAddressService) Create(_ context.Context, userID string, address domain.Address) (*domain.Address, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}
	address.ID = "addr-1"
	address.UserID = userID
	m.created = address
	return &address, m.err
}

func (m *mockAddressService) List(_ context.Context, _ string) ([]domain.Address, error) {
	return m.addresses, m.err
}

func (m *mockAddressService) Delete(_ context.Context, _, addressID string) error {
	m.deleted = addressID
	return m.err
}

type mockVerifier struct {
	err     error
	payload []byte
	header  string
}

func (m *mockVerifier) Verify(payload []byte, header string) (*payment.WebhookEvent, error) {
	m.payload, m.header = payload, header
	if m.err != nil {
		return nil, m.err
	}
	return &payment.WebhookEvent{ID: "evt_1", Type: "checkout.session.completed"}, nil
}
