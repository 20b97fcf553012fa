package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/loopcart/ranking-service/internal/ports"
)

const productDetailKeyPrefix = "product:detail:"

// RedisProductCache invalidates read-through product detail entries when a
// product's stock is depleted.
type RedisProductCache struct {
	client *redis.Client
}

func NewRedisProductCache(client *redis.Client) *RedisProductCache {
	return &RedisProductCache{client: client}
}

func (c *RedisProductCache) Invalidate(ctx context.Context, productID int64) error {
	return c.client.Del(ctx, productDetailKeyPrefix+strconv.FormatInt(productID, 10)).Err()
}

var _ ports.ProductCache = (*RedisProductCache)(nil)
