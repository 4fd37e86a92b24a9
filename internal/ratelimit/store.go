package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the atomic per-key timestamp-set collaborator the sliding-window
// limiter runs on. Correctness under concurrent checks relies entirely on
// the store's per-key atomicity, not on client-side locking.
type Store interface {
	PurgeBefore(ctx context.Context, key string, cutoff time.Time) error
	Count(ctx context.Context, key string) (int64, error)
	// Oldest returns the earliest retained timestamp, or the zero time when
	// the key holds no entries.
	Oldest(ctx context.Context, key string) (time.Time, error)
	Add(ctx context.Context, key string, ts time.Time) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// RedisStore implements Store on a redis sorted set per identifier, scored
// by unix timestamp.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) PurgeBefore(ctx context.Context, key string, cutoff time.Time) error {
	return s.client.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff.Unix(), 10)).Err()
}

func (s *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

func (s *RedisStore) Oldest(ctx context.Context, key string) (time.Time, error) {
	entries, err := s.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return time.Time{}, err
	}
	if len(entries) == 0 {
		return time.Time{}, nil
	}
	return time.Unix(int64(entries[0].Score), 0), nil
}

func (s *RedisStore) Add(ctx context.Context, key string, ts time.Time) error {
	member := strconv.FormatInt(ts.UnixNano(), 10)
	return s.client.ZAdd(ctx, key, redis.Z{Score: float64(ts.Unix()), Member: member}).Err()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
