package app

import (
	"context"
	"errors"

	"github.com/freshcart/backend/internal/cart/domain"
)

var (
	ErrNotFound     = errors.New("cart not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo CartRepo
}

func NewService(repo CartRepo) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	return s.repo.Get(ctx, userID)
}

func (s *Service) AddItem(ctx context.Context, userID string, item domain.CartItem) (domain.Cart, error) {
	if item.ProductID == "" || item.Quantity <= 0 {
		return domain.Cart{}, ErrInvalidInput
	}

	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	if err := s.repo.AddItem(ctx, cart.ID, item); err != nil {
		return domain.Cart{}, err
	}

	return s.repo.Get(ctx, userID)
}

func (s *Service) SetItemQuantity(ctx context.Context, userID string, item domain.CartItem) (domain.Cart, error) {
	if item.ProductID == "" || item.Quantity <= 0 {
		return domain.Cart{}, ErrInvalidInput
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	if err := s.repo.SetItemQuantity(ctx, cart.ID, item); err != nil {
		return domain.Cart{}, err
	}

	return s.repo.Get(ctx, userID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error) {
	if productID == "" {
		return domain.Cart{}, ErrInvalidInput
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
		return domain.Cart{}, err
	}

	return s.repo.Get(ctx, userID)
}
