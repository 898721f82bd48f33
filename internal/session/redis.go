package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashureev/pricewatch/internal/domain"
)

const redisKeyPrefix = "pricewatch:session:"

// RedisStore keeps pending sessions in Redis so guided commands survive
// process restarts. Expiry uses native key TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at addr. ttl of 0 disables expiry.
func NewRedisStore(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

// Begin creates or overwrites the pending session for owner.
func (s *RedisStore) Begin(ctx context.Context, owner string, step domain.SessionStep) error {
	if err := s.client.Set(ctx, redisKeyPrefix+owner, string(step), s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Consume removes and returns the pending session step for owner.
// GETDEL makes take-and-delete a single round trip, so concurrent
// messages from one owner cannot both observe the pending step.
func (s *RedisStore) Consume(ctx context.Context, owner string) (domain.SessionStep, bool, error) {
	value, err := s.client.GetDel(ctx, redisKeyPrefix+owner).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session: %w", err)
	}
	return domain.SessionStep(value), true, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
