package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshcart/backend/internal/cart/app"
	"github.com/freshcart/backend/internal/cart/domain"
)

type CartRepo struct {
	pool *pgxpool.Pool
}

func NewCartRepo(pool *pgxpool.Pool) *CartRepo {
	return &CartRepo{pool: pool}
}

func (r *CartRepo) Get(ctx context.Context, userID string) (domain.Cart, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.Cart{}, err
	}

	var cart domain.Cart
	var cartID uuid.UUID
	err = r.pool.QueryRow(ctx,
		`SELECT id, created_at, updated_at FROM carts WHERE user_id=$1`, userUUID,
	).Scan(&cartID, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Cart{}, err
	}

	cart.ID = cartID.String()
	cart.UserID = userID

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE cart_id=$1 ORDER BY added_at`, cartID,
	)
	if err != nil {
		return domain.Cart{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var productID uuid.UUID
		var item domain.CartItem
		if err := rows.Scan(&productID, &item.Quantity); err != nil {
			return domain.Cart{}, err
		}
		item.ProductID = productID.String()
		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}

func (r *CartRepo) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := r.Get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, app.ErrNotFound) {
		return domain.Cart{}, err
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.Cart{}, err
	}

	_, err = r.pool.Exec(ctx, `INSERT INTO carts(user_id) VALUES ($1)`, userUUID)
	if err != nil && !isUniqueViolation(err) {
		// unique violation means another request created it concurrently
		return domain.Cart{}, err
	}

	return r.Get(ctx, userID)
}

func (r *CartRepo) AddItem(ctx context.Context, cartID string, item domain.CartItem) error {
	cartUUID, err := uuid.Parse(cartID)
	if err != nil {
		return err
	}
	productUUID, err := uuid.Parse(item.ProductID)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO cart_items(cart_id, product_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		cartUUID, productUUID, item.Quantity,
	)
	return err
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID string, item domain.CartItem) error {
	cartUUID, err := uuid.Parse(cartID)
	if err != nil {
		return err
	}
	productUUID, err := uuid.Parse(item.ProductID)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO cart_items(cart_id, product_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		cartUUID, productUUID, item.Quantity,
	)
	return err
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID string, productID string) error {
	cartUUID, err := uuid.Parse(cartID)
	if err != nil {
		return err
	}
	productUUID, err := uuid.Parse(productID)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id=$1 AND product_id=$2`, cartUUID, productUUID,
	)
	return err
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id=$1)`, userUUID,
	)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
