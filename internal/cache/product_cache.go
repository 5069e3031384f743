package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

const productKeyPrefix = "product:"

func productKey(id int64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

type redisProductCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

var _ domain.ProductCache = (*redisProductCache)(nil)

func NewRedisProductCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) domain.ProductCache {
	return &redisProductCache{client: client, ttl: ttl, log: logger}
}

func (c *redisProductCache) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get %s: %w", productKey(id), err)
	}

	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		c.log.Warnf("Cache: Dropping undecodable entry %s: %v", productKey(id), err)
		_ = c.client.Del(ctx, productKey(id)).Err()
		return nil, nil
	}
	return &product, nil
}

func (c *redisProductCache) SetProduct(ctx context.Context, product *domain.Product) error {
	payload, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("cache encode product %d: %w", product.ID, err)
	}
	if err := c.client.Set(ctx, productKey(product.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", productKey(product.ID), err)
	}
	return nil
}

func (c *redisProductCache) InvalidateProducts(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate %v: %w", keys, err)
	}
	c.log.Debugf("Cache: Invalidated %d product key(s)", len(keys))
	return nil
}

// noopProductCache is used when no redis address is configured.
type noopProductCache struct{}

func NewNoopProductCache() domain.ProductCache { return noopProductCache{} }

func (noopProductCache) GetProduct(context.Context, int64) (*domain.Product, error) { return nil, nil }

func (noopProductCache) SetProduct(context.Context, *domain.Product) error { return nil }

func (noopProductCache) InvalidateProducts(context.Context, ...int64) error { return nil }
