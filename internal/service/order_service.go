package service

import (
	"context"

	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/repository"
)

// OrderService serves the caller's order history.
type OrderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

func (s *OrderService) List(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.repo.ListOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return s.repo.GetOrder(ctx, userID, orderID)
}
