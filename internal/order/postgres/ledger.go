package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshcart/backend/internal/order/app"
	"github.com/freshcart/backend/internal/order/domain"
	"github.com/freshcart/backend/pkg/outbox"
)

const (
	EventOrderCreated = "order.created"
	EventOrderPaid    = "order.paid"
)

// Ledger is the single writer of orders and transactions. Everything in
// Commit happens in one postgres transaction; the partial unique index on
// orders.payment_intent backs the idempotency check so a concurrent loser
// surfaces as a unique violation, not a duplicate order.
type Ledger struct {
	pool        *pgxpool.Pool
	ordersTopic string
}

func NewLedger(pool *pgxpool.Pool, ordersTopic string) *Ledger {
	return &Ledger{pool: pool, ordersTopic: ordersTopic}
}

func (l *Ledger) Commit(ctx context.Context, order domain.Order, txn domain.Transaction, opts app.CommitOpts) (domain.Order, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if order.PaymentIntent != "" {
		var existing string
		err := tx.QueryRow(ctx,
			`SELECT id FROM orders WHERE payment_intent=$1`, order.PaymentIntent,
		).Scan(&existing)
		if err == nil {
			return domain.Order{}, domain.ErrDuplicatePaymentRef
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, err
		}
	}

	created, err := l.insertOrder(ctx, tx, order)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, domain.ErrDuplicatePaymentRef
		}
		return domain.Order{}, err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO transactions(id, order_id, user_id, transaction_id, amount, payment_method, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		txn.ID, txn.OrderID, txn.UserID, txn.TransactionID, txn.Amount, txn.PaymentMethod, txn.Status,
	).Scan(&txn.CreatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert transaction: %w", err)
	}

	if opts.ClearCartUserID != "" {
		_, err = tx.Exec(ctx,
			`DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id=$1)`,
			opts.ClearCartUserID,
		)
		if err != nil {
			return domain.Order{}, fmt.Errorf("clear cart: %w", err)
		}
	}

	eventType := EventOrderCreated
	if created.PaymentStatus == domain.PaymentPaid {
		eventType = EventOrderPaid
	}
	event := map[string]any{
		"type":           eventType,
		"order_id":       created.ID,
		"user_id":        created.UserID,
		"total_amount":   created.TotalAmount,
		"payment_method": created.PaymentMethod,
		"payment_status": created.PaymentStatus,
	}
	if err := outbox.InsertTx(ctx, tx, uuid.NewString(), l.ordersTopic, created.ID, event); err != nil {
		return domain.Order{}, fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

func (l *Ledger) insertOrder(ctx context.Context, tx pgx.Tx, order domain.Order) (domain.Order, error) {
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return domain.Order{}, err
	}

	var intent *string
	if order.PaymentIntent != "" {
		intent = &order.PaymentIntent
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO orders(id, user_id, total_amount, payment_method, payment_status, order_status,
		                    payment_intent, address, discount_applied, coupon_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		order.ID, order.UserID, order.TotalAmount, order.PaymentMethod, order.PaymentStatus,
		order.OrderStatus, intent, addressJSON, order.DiscountApplied, order.CouponCode,
	).Scan(&order.CreatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items(order_id, product_id, product_name, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5)`,
			order.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return domain.Order{}, fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return order, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
