package app

import (
	"context"

	"github.com/freshcart/backend/internal/cart/domain"
)

type CartRepo interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	GetOrCreate(ctx context.Context, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, cartID string, item domain.CartItem) error
	SetItemQuantity(ctx context.Context, cartID string, item domain.CartItem) error
	RemoveItem(ctx context.Context, cartID string, productID string) error
	Clear(ctx context.Context, userID string) error
}
