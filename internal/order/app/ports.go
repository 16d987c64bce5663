package app

import (
	"context"

	cartdomain "github.com/freshcart/backend/internal/cart/domain"
	catalogdomain "github.com/freshcart/backend/internal/catalog/domain"
	"github.com/freshcart/backend/internal/order/domain"
)

// CommitOpts tune what else joins the ledger's atomic unit.
type CommitOpts struct {
	// ClearCartUserID empties that user's cart in the same transaction as
	// the order and transaction rows. Empty string skips the clear.
	ClearCartUserID string
}

// Ledger is the single writer of orders. Commit persists the order and its
// transaction together or not at all. For orders carrying a payment intent it
// performs the existence check inside the same transaction and returns
// domain.ErrDuplicatePaymentRef on a hit, so concurrent equivalent commits
// produce exactly one order.
type Ledger interface {
	Commit(ctx context.Context, order domain.Order, txn domain.Transaction, opts CommitOpts) (domain.Order, error)
}

type OrderReader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error)

	ListTransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
	ListAllTransactions(ctx context.Context) ([]domain.Transaction, error)
}

type CartStore interface {
	Get(ctx context.Context, userID string) (cartdomain.Cart, error)
}

type ProductFinder interface {
	Get(ctx context.Context, id string) (catalogdomain.Product, error)
}
