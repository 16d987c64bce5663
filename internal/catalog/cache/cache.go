// Package cache layers a read-through product cache over the catalog repo so
// the settlement snapshot path does not hit postgres for every cart line.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"

	"github.com/freshcart/backend/internal/catalog/app"
	"github.com/freshcart/backend/internal/catalog/domain"
)

type ProductCache struct {
	source app.ProductRepo
	client *redis.Client
	log    *slog.Logger
	group  singleflight.Group
	ttl    time.Duration
}

func New(source app.ProductRepo, client *redis.Client, log *slog.Logger, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{source: source, client: client, log: log, ttl: ttl}
}

func cacheKey(id string) string {
	return "product:" + id
}

func (c *ProductCache) Get(ctx context.Context, id string) (domain.Product, error) {
	if p, ok := c.lookup(ctx, id); ok {
		return p, nil
	}

	// singleflight collapses concurrent cache misses into one repo fetch.
	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		if p, ok := c.lookup(ctx, id); ok {
			return p, nil
		}

		p, err := c.source.Get(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		c.store(ctx, p)
		return p, nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

// List is uncached; listing is not on the settlement path.
func (c *ProductCache) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Product, string, error) {
	return c.source.List(ctx, query, limit, cursor)
}

func (c *ProductCache) lookup(ctx context.Context, id string) (domain.Product, bool) {
	if c.client == nil {
		return domain.Product{}, false
	}

	value, err := c.client.Get(ctx, cacheKey(id)).Result()
	if err == redis.Nil {
		return domain.Product{}, false
	}
	if err != nil {
		c.log.Warn("product cache read failed", slog.String("product_id", id), slog.Any("err", err))
		return domain.Product{}, false
	}

	var p domain.Product
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return domain.Product{}, false
	}
	return p, true
}

func (c *ProductCache) store(ctx context.Context, p domain.Product) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(p.ID), payload, c.ttl).Err(); err != nil {
		c.log.Warn("product cache write failed", slog.String("product_id", p.ID), slog.Any("err", err))
	}
}
