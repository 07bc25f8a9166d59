package service

import (
	"context"
	"log/slog"

	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/repository"
)

type AddressService struct {
	repo repository.AddressRepository
}

func NewAddressService(repo repository.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

// Create stores a new address for the user. The newest address is the one
// checkout ships to.
func (s *AddressService) Create(ctx context.Context, userID string, address domain.Address) (*domain.Address, error) {
	if err := address.Validate(); err != nil {
		return nil, err
	}
	address.ID = ""
	address.UserID = userID

	if err := s.repo.CreateAddress(ctx, &address); err != nil {
		slog.ErrorContext(ctx, "repo create address failed", "user_id", userID, "error", err)
		return nil, err
	}
	return &address, nil
}

func (s *AddressService) Latest(ctx context.Context, userID string) (*domain.Address, error) {
	return s.repo.LatestAddress(ctx, userID)
}

func (s *AddressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Delete(ctx context.Context, userID, addressID string) error {
	return s.repo.DeleteAddress(ctx, userID, addressID)
}
