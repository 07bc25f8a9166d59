package service

import (
	"context"
	"sync"
	"time"

	"github.com/anneth/shop/internal/cache"
	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/payment"
)

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp
}

type mockCartRepository struct {
	m         sync.Mutex
	carts     map[string]*domain.Cart
	conflicts int // SaveCart fails with ErrCartConflict this many times
	saves     int
	err       error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return copyCart(cart), nil
}

func (m *mockCartRepository) ReplaceCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if prev, ok := m.carts[cart.UserID]; ok {
		cart.ID = prev.ID
		cart.Version = prev.Version + 1
	} else {
		cart.ID = "cart-" + cart.UserID
		cart.Version = 1
	}
	m.carts[cart.UserID] = copyCart(cart)
	return nil
}

func (m *mockCartRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	if m.conflicts > 0 {
		m.conflicts--
		return domain.ErrCartConflict
	}

	stored, ok := m.carts[cart.UserID]
	switch {
	case cart.Version == 0 && ok:
		return domain.ErrCartConflict
	case cart.Version == 0:
		cart.ID = "cart-" + cart.UserID
	case !ok || stored.Version != cart.Version:
		return domain.ErrCartConflict
	}
	cart.Version++
	m.carts[cart.UserID] = copyCart(cart)
	return nil
}

func (m *mockCartRepository) DeleteCart(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[userID]; !ok {
		return domain.ErrCartNotFound
	}
	delete(m.carts, userID)
	return nil
}

type mockCache struct {
	m           sync.RWMutex
	carts       map[string]*domain.Cart
	generations map[string]int64
	deletes     int
	err         error
	beforeSet   func() // runs once before the next Set takes effect
}

func newMockCache() *mockCache {
	return &mockCache{
		carts:       make(map[string]*domain.Cart),
		generations: make(map[string]int64),
	}
}

func (m *mockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return copyCart(cart), nil
}

func (m *mockCache) Generation(_ context.Context, userID string) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.generations[userID], m.err
}

func (m *mockCache) Set(_ context.Context, userID string, cart *domain.Cart, generation int64) error {
	m.m.Lock()
	hook := m.beforeSet
	m.beforeSet = nil
	m.m.Unlock()
	if hook != nil {
		hook()
	}

	m.m.Lock()
	defer m.m.Unlock()
	if m.generations[userID] != generation {
		return m.err
	}
	m.carts[userID] = copyCart(cart)
	return m.err
}

func (m *mockCache) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.deletes++
	m.generations[userID]++
	delete(m.carts, userID)
	return m.err
}

type mockGateway struct {
	m            sync.Mutex
	session      *payment.Session
	sessionErr   error
	intent       string
	intentErr    error
	delay        time.Duration
	sessionCalls int
	lastRequest  payment.SessionRequest
}

func (m *mockGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	m.m.Lock()
	m.sessionCalls++
	m.lastRequest = req
	delay := m.delay
	m.m.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	s := *m.session
	return &s, nil
}

func (m *mockGateway) RetrievePaymentIntentStatus(_ context.Context, _ string) (payment.IntentStatus, error) {
	if m.intentErr != nil {
		return payment.IntentStatus{}, m.intentErr
	}
	return payment.IntentStatus{Raw: m.intent, Outcome: payment.ClassifyIntentStatus(m.intent)}, nil
}

type mockAddressRepository struct {
	m         sync.Mutex
	addresses []domain.Address
	err       error
}

func (m *mockAddressRepository) CreateAddress(_ context.Context, address *domain.Address) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if address.ID == "" {
		address.ID = "addr-" + address.Street
	}
	m.addresses = append(m.addresses, *address)
	return nil
}

func (m *mockAddressRepository) LatestAddress(_ context.Context, userID string) (*domain.Address, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for i := len(m.addresses) - 1; i >= 0; i-- {
		if m.addresses[i].UserID == userID {
			a := m.addresses[i]
			return &a, nil
		}
	}
	return nil, domain.ErrAddressNotFound
}

func (m *mockAddressRepository) ListAddresses(_ context.Context, userID string) ([]domain.Address, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.Address
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, m.err
}

func (m *mockAddressRepository) DeleteAddress(_ context.Context, userID, addressID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	for i, a := range m.addresses {
		if a.UserID == userID && a.ID == addressID {
			m.addresses = append(m.addresses[:i], m.addresses[i+1:]...)
			return nil
		}
	}
	return domain.ErrAddressNotFound
}

type mockOrderRepository struct {
	m         sync.Mutex
	orders    map[string]domain.Order
	createErr error
	updateErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[string]domain.Order)}
}

func (m *mockOrderRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if order.IdempotencyKey != "" {
		for _, o := range m.orders {
			if o.OrderBy == order.OrderBy && o.IdempotencyKey == order.IdempotencyKey {
				return domain.ErrDuplicateOrder
			}
		}
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *mockOrderRepository) GetOrder(_ context.Context, userID, orderID string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.OrderBy != userID {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (m *mockOrderRepository) ListOrders(_ context.Context, userID string) ([]domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.OrderBy == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) FindByIdempotencyKey(_ context.Context, userID, key string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.orders {
		if o.OrderBy == userID && o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderRepository) CancelOrder(_ context.Context, orderID string, from domain.OrderStatus, failureCode string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	o, ok := m.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.OrderStatus != from || (from != domain.OrderStatusCancelled && !from.CanTransitionTo(domain.OrderStatusCancelled)) {
		return domain.ErrIllegalTransition
	}
	o.OrderStatus = domain.OrderStatusCancelled
	o.FailureCode = failureCode
	m.orders[orderID] = o
	return nil
}

func (m *mockOrderRepository) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.orders)
}

type mockPublisher struct {
	events chan domain.OrderPlacedEvent
	err    error
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{events: make(chan domain.OrderPlacedEvent, 10)}
}

func (m *mockPublisher) PublishOrderPlaced(_ context.Context, event domain.OrderPlacedEvent) error {
	m.events <- event
	return m.err
}

type mockRecorder struct {
	m        sync.Mutex
	outcomes []string
}

func (m *mockRecorder) RecordCheckout(outcome string) {
	m.m.Lock()
	defer m.m.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}
