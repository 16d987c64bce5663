package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshcart/backend/internal/catalog/app"
	"github.com/freshcart/backend/internal/catalog/domain"
)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	prodID, err := uuid.Parse(id)
	if err != nil {
		return domain.Product{}, app.ErrInvalidInput
	}

	var p domain.Product
	var rowID uuid.UUID
	err = r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM products WHERE id=$1`, prodID,
	).Scan(&rowID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = rowID.String()

	p.Weights, err = r.weights(ctx, prodID)
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	var cur uuid.NullUUID
	if strings.TrimSpace(cursor) != "" {
		uid, err := uuid.Parse(strings.TrimSpace(cursor))
		if err != nil {
			return nil, "", app.ErrInvalidInput
		}
		cur = uuid.NullUUID{UUID: uid, Valid: true}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM products
		 WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		   AND ($2::uuid IS NULL OR id > $2)
		 ORDER BY id
		 LIMIT $3`,
		strings.TrimSpace(query), cur, int32(limit),
	)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := make([]domain.Product, 0, limit)
	for rows.Next() {
		var p domain.Product
		var rowID uuid.UUID
		if err := rows.Scan(&rowID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, "", err
		}
		p.ID = rowID.String()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	for i := range out {
		prodID, err := uuid.Parse(out[i].ID)
		if err != nil {
			return nil, "", err
		}
		out[i].Weights, err = r.weights(ctx, prodID)
		if err != nil {
			return nil, "", err
		}
	}

	var nextCursor string
	if len(out) == limit {
		nextCursor = out[len(out)-1].ID
	}
	return out, nextCursor, nil
}

func (r *ProductRepo) weights(ctx context.Context, productID uuid.UUID) ([]domain.Weight, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT label, price FROM product_weights WHERE product_id=$1 ORDER BY position`, productID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weights []domain.Weight
	for rows.Next() {
		var w domain.Weight
		if err := rows.Scan(&w.Label, &w.Price); err != nil {
			return nil, err
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}
