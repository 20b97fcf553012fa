package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loopcart/ranking-service/internal/domain"
	"github.com/loopcart/ranking-service/internal/ports"
)

const (
	rankingKeyPrefix = "ranking:all:"

	// RankingTTL bounds how long an abandoned day's structure lives; only the
	// current and previous day are ever queried live.
	RankingTTL = 48 * time.Hour
)

// RedisRankingStore keeps one sorted set per day: member = product id,
// score = accumulated weighted score.
type RedisRankingStore struct {
	client *redis.Client
}

func NewRedisRankingStore(client *redis.Client) *RedisRankingStore {
	return &RedisRankingStore{client: client}
}

func (s *RedisRankingStore) IncrementScore(ctx context.Context, date time.Time, productID int64, weight domain.Weight) error {
	key := rankingKey(date)
	member := strconv.FormatInt(productID, 10)
	if err := s.client.ZIncrBy(ctx, key, weight.Value, member).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, RankingTTL).Err()
}

func (s *RedisRankingStore) CarryOverScore(ctx context.Context, fromDate, toDate time.Time) (int, error) {
	fromKey := rankingKey(fromDate)
	toKey := rankingKey(toDate)

	entries, err := s.client.ZRangeWithScores(ctx, fromKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	seeded := 0
	pipe := s.client.Pipeline()
	for _, entry := range entries {
		if entry.Score <= 0 {
			continue
		}
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		pipe.ZIncrBy(ctx, toKey, entry.Score*domain.WeightCarryOver.Value, member)
		seeded++
	}
	if seeded == 0 {
		return 0, nil
	}
	pipe.Expire(ctx, toKey, RankingTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return seeded, nil
}

func (s *RedisRankingStore) Range(ctx context.Context, date time.Time, start, end int64) ([]ports.RankingEntry, error) {
	entries, err := s.client.ZRevRangeWithScores(ctx, rankingKey(date), start, end).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ports.RankingEntry, 0, len(entries))
	for _, entry := range entries {
		member, ok := entry.Member.(string)
		if !ok {
			continue
		}
		productID, parseErr := strconv.ParseInt(member, 10, 64)
		if parseErr != nil {
			continue
		}
		out = append(out, ports.RankingEntry{ProductID: productID, Score: entry.Score})
	}
	return out, nil
}

func (s *RedisRankingStore) Rank(ctx context.Context, date time.Time, productID int64) (int64, bool, error) {
	rank, err := s.client.ZRevRank(ctx, rankingKey(date), strconv.FormatInt(productID, 10)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rank + 1, true, nil
}

func rankingKey(date time.Time) string {
	return rankingKeyPrefix + domain.FormatDate(date)
}

var _ ports.RankingStore = (*RedisRankingStore)(nil)
