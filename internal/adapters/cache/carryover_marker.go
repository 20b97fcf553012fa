package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

// RedisCarryOverMarker records which day pairs have already been seeded so a
// repeated carry-over run cannot double the scores.
type RedisCarryOverMarker struct {
	client *redis.Client
}

func NewRedisCarryOverMarker(client *redis.Client) *RedisCarryOverMarker {
	return &RedisCarryOverMarker{client: client}
}

func (m *RedisCarryOverMarker) Acquire(ctx context.Context, fromDate, toDate time.Time, ttl time.Duration) (bool, error) {
	return m.client.SetNX(ctx, markerKey(fromDate, toDate), "1", ttl).Result()
}

func (m *RedisCarryOverMarker) Release(ctx context.Context, fromDate, toDate time.Time) error {
	return m.client.Del(ctx, markerKey(fromDate, toDate)).Err()
}

func markerKey(fromDate, toDate time.Time) string {
	return "ranking:carryover:" + domain.FormatDate(fromDate) + ":" + domain.FormatDate(toDate)
}

var _ ports.CarryOverMarker = (*RedisCarryOverMarker)(nil)
