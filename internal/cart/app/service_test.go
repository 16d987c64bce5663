package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/backend/internal/cart/domain"
)

type memRepo struct {
	carts map[string]*domain.Cart // by user id
	byID  map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{carts: make(map[string]*domain.Cart), byID: make(map[string]string)}
}

func (r *memRepo) Get(_ context.Context, userID string) (domain.Cart, error) {
	cart, ok := r.carts[userID]
	if !ok {
		return domain.Cart{}, ErrNotFound
	}
	return *cart, nil
}

func (r *memRepo) GetOrCreate(_ context.Context, userID string) (domain.Cart, error) {
	if cart, ok := r.carts[userID]; ok {
		return *cart, nil
	}
	cart := &domain.Cart{ID: uuid.NewString(), UserID: userID}
	r.carts[userID] = cart
	r.byID[cart.ID] = userID
	return *cart, nil
}

func (r *memRepo) AddItem(_ context.Context, cartID string, item domain.CartItem) error {
	cart := r.carts[r.byID[cartID]]
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, item)
	return nil
}

func (r *memRepo) SetItemQuantity(_ context.Context, cartID string, item domain.CartItem) error {
	cart := r.carts[r.byID[cartID]]
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity = item.Quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, item)
	return nil
}

func (r *memRepo) RemoveItem(_ context.Context, cartID string, productID string) error {
	cart := r.carts[r.byID[cartID]]
	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	cart.Items = kept
	return nil
}

func (r *memRepo) Clear(_ context.Context, userID string) error {
	if cart, ok := r.carts[userID]; ok {
		cart.Items = nil
	}
	return nil
}

func TestAddItem(t *testing.T) {
	svc := NewService(newMemRepo())
	userID := uuid.NewString()

	cart, err := svc.AddItem(context.Background(), userID, domain.CartItem{ProductID: "p1", Quantity: 2})
	require.NoError(t, err, "first add creates the cart")
	require.Len(t, cart.Items, 1)

	cart, err = svc.AddItem(context.Background(), userID, domain.CartItem{ProductID: "p1", Quantity: 3})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(5), cart.Items[0].Quantity, "adding an existing product accumulates")
}

func TestAddItem_Validation(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.AddItem(context.Background(), uuid.NewString(), domain.CartItem{ProductID: "", Quantity: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddItem(context.Background(), uuid.NewString(), domain.CartItem{ProductID: "p1", Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetItemQuantity(t *testing.T) {
	svc := NewService(newMemRepo())
	userID := uuid.NewString()

	_, err := svc.SetItemQuantity(context.Background(), userID, domain.CartItem{ProductID: "p1", Quantity: 4})
	require.ErrorIs(t, err, ErrNotFound, "updates never create a cart")

	_, err = svc.AddItem(context.Background(), userID, domain.CartItem{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	cart, err := svc.SetItemQuantity(context.Background(), userID, domain.CartItem{ProductID: "p1", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int32(4), cart.Items[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	svc := NewService(newMemRepo())
	userID := uuid.NewString()

	_, err := svc.AddItem(context.Background(), userID, domain.CartItem{ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), userID, domain.CartItem{ProductID: "p2", Quantity: 1})
	require.NoError(t, err)

	cart, err := svc.RemoveItem(context.Background(), userID, "p1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)

	_, err = svc.RemoveItem(context.Background(), userID, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}
