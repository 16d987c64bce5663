package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	cartapp "github.com/freshcart/backend/internal/cart/app"
	cartdomain "github.com/freshcart/backend/internal/cart/domain"
	"github.com/freshcart/backend/internal/order/domain"
	"github.com/freshcart/backend/internal/payment/pricing"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("order not found")
)

const maxSnapshotConcurrency = 10

type Service struct {
	ledger  Ledger
	reader  OrderReader
	cart    CartStore
	catalog ProductFinder
	rules   pricing.Rules

	trustClientTotal bool
	log              *slog.Logger
}

func NewService(ledger Ledger, reader OrderReader, cart CartStore, catalog ProductFinder, rules pricing.Rules, trustClientTotal bool, log *slog.Logger) *Service {
	return &Service{
		ledger:           ledger,
		reader:           reader,
		cart:             cart,
		catalog:          catalog,
		rules:            rules,
		trustClientTotal: trustClientTotal,
		log:              log,
	}
}

type PlaceOrderRequest struct {
	Address       domain.Address
	PaymentMethod domain.PaymentMethod
	PaymentStatus domain.PaymentStatus
	OrderStatus   domain.OrderStatus
	TotalAmount   int64
	PaymentIntent string
}

// PlaceOrder is the synchronous settlement path: COD orders and post-payment
// confirmation of online orders. The order, its transaction and the cart
// clear commit as one unit; any failure before that leaves the cart intact.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (domain.Order, error) {
	if req.PaymentMethod != domain.PaymentOnline && req.PaymentMethod != domain.PaymentCOD {
		return domain.Order{}, fmt.Errorf("%w: payment method %q", ErrInvalidInput, req.PaymentMethod)
	}
	if len(req.Address) == 0 {
		return domain.Order{}, fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if req.TotalAmount < 0 {
		return domain.Order{}, fmt.Errorf("%w: total must be >= 0", ErrInvalidInput)
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = domain.PaymentPending
	}
	if req.OrderStatus == "" {
		req.OrderStatus = domain.OrderProcessing
	}

	cart, err := s.cart.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, cartapp.ErrNotFound) {
			return domain.Order{}, ErrEmptyCart
		}
		return domain.Order{}, err
	}
	if cart.IsEmpty() {
		return domain.Order{}, ErrEmptyCart
	}

	items, err := s.snapshotItems(ctx, cart.Items)
	if err != nil {
		return domain.Order{}, err
	}

	total := req.TotalAmount
	if !s.trustClientTotal {
		var subtotal int64
		for _, it := range items {
			subtotal += it.UnitPrice * int64(it.Quantity)
		}
		total = s.rules.Total(subtotal, 0)
	}

	orderID := uuid.NewString()
	order := domain.Order{
		ID:            orderID,
		UserID:        userID,
		Items:         items,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
		OrderStatus:   req.OrderStatus,
		PaymentIntent: req.PaymentIntent,
		Address:       req.Address,
	}

	txn := domain.Transaction{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		UserID:        userID,
		TransactionID: transactionRef(req.PaymentMethod, req.PaymentIntent, orderID),
		Amount:        total,
		PaymentMethod: req.PaymentMethod,
		Status:        transactionStatus(req.PaymentStatus),
	}

	created, err := s.ledger.Commit(ctx, order, txn, CommitOpts{ClearCartUserID: userID})
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order placed",
		slog.String("order_id", created.ID),
		slog.String("user_id", userID),
		slog.String("payment_method", string(created.PaymentMethod)),
		slog.Int64("total_amount", created.TotalAmount),
	)
	return created, nil
}

// snapshotItems freezes each cart line into an order item using the
// product's first listed price tier, zero when the product has no tiers.
func (s *Service) snapshotItems(ctx context.Context, cartItems []cartdomain.CartItem) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, len(cartItems))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSnapshotConcurrency)

	for idx := range cartItems {
		g.Go(func() error {
			line := cartItems[idx]
			if line.Quantity <= 0 {
				return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
			}

			product, err := s.catalog.Get(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("snapshot product %s: %w", line.ProductID, err)
			}

			items[idx] = domain.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.SnapshotPrice(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func transactionRef(method domain.PaymentMethod, paymentIntent, orderID string) string {
	if method == domain.PaymentOnline {
		if paymentIntent != "" {
			return paymentIntent
		}
		return "N/A"
	}
	return orderID
}

func transactionStatus(ps domain.PaymentStatus) domain.TransactionStatus {
	switch ps {
	case domain.PaymentPaid:
		return domain.TxnSuccess
	case domain.PaymentFailed:
		return domain.TxnFailed
	default:
		return domain.TxnPending
	}
}

func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.reader.ListByUser(ctx, userID)
}

func (s *Service) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.reader.ListAll(ctx)
}

// GetOrder is owner-scoped: a user can only read their own order.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error) {
	order, err := s.reader.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != userID {
		return domain.Order{}, ErrNotFound
	}
	return order, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return domain.Order{}, fmt.Errorf("%w: order status %q", ErrInvalidInput, status)
	}
	return s.reader.UpdateStatus(ctx, orderID, status)
}

func (s *Service) ListUserTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.reader.ListTransactionsByUser(ctx, userID)
}

func (s *Service) ListAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.reader.ListAllTransactions(ctx)
}
