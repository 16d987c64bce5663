package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshcart/backend/internal/order/app"
	"github.com/freshcart/backend/internal/order/domain"
)

type Reader struct {
	pool *pgxpool.Pool
}

func NewReader(pool *pgxpool.Pool) *Reader {
	return &Reader{pool: pool}
}

const orderColumns = `id, user_id, total_amount, payment_method, payment_status, order_status,
	COALESCE(payment_intent, ''), address, discount_applied, coupon_code, created_at`

func (r *Reader) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	return r.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userUUID)
}

func (r *Reader) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *Reader) GetByID(ctx context.Context, id string) (domain.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return domain.Order{}, app.ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	order.Items, err = r.orderItems(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *Reader) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return domain.Order{}, app.ErrNotFound
	}

	tag, err := r.pool.Exec(ctx, `UPDATE orders SET order_status=$2 WHERE id=$1`, orderID, status)
	if err != nil {
		return domain.Order{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Order{}, app.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *Reader) ListTransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	return r.listTransactions(ctx,
		`SELECT id, order_id, user_id, transaction_id, amount, payment_method, status, created_at
		 FROM transactions WHERE user_id=$1 ORDER BY created_at DESC`, userUUID)
}

func (r *Reader) ListAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return r.listTransactions(ctx,
		`SELECT id, order_id, user_id, transaction_id, amount, payment_method, status, created_at
		 FROM transactions ORDER BY created_at DESC`)
}

func (r *Reader) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		orderID, err := uuid.Parse(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items, err = r.orderItems(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Reader) listTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		var id, orderID, userID uuid.UUID
		if err := rows.Scan(&id, &orderID, &userID, &txn.TransactionID, &txn.Amount,
			&txn.PaymentMethod, &txn.Status, &txn.CreatedAt); err != nil {
			return nil, err
		}
		txn.ID = id.String()
		txn.OrderID = orderID.String()
		txn.UserID = userID.String()
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (r *Reader) orderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, product_name, quantity, unit_price FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var productID uuid.UUID
		if err := rows.Scan(&productID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		item.ProductID = productID.String()
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var order domain.Order
	var id, userID uuid.UUID
	var addressJSON []byte

	err := row.Scan(&id, &userID, &order.TotalAmount, &order.PaymentMethod, &order.PaymentStatus,
		&order.OrderStatus, &order.PaymentIntent, &addressJSON, &order.DiscountApplied,
		&order.CouponCode, &order.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	order.ID = id.String()
	order.UserID = userID.String()
	if len(addressJSON) > 0 {
		if err := json.Unmarshal(addressJSON, &order.Address); err != nil {
			return domain.Order{}, err
		}
	}
	return order, nil
}
