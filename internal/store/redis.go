package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements CounterStore on Redis. API-call units live in a
// per-user sorted set scored by unix time so the window rolls instead of
// resetting at a fixed boundary.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func apiCallKey(userID string) string {
	return fmt.Sprintf("chat:apicalls:%s", userID)
}

func streamKey(streamID string) string {
	return fmt.Sprintf("chat:stream:%s", streamID)
}

func (s *RedisStore) GetAPICallCount(ctx context.Context, userID string, window time.Duration) (int, error) {
	key := apiCallKey(userID)
	cutoff := time.Now().Add(-window).UnixMilli()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", cutoff))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("get api call count: %w", err)
	}
	return int(card.Val()), nil
}

func (s *RedisStore) RecordAPICall(ctx context.Context, userID string, window time.Duration) error {
	key := apiCallKey(userID)
	now := time.Now()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record api call: %w", err)
	}
	return nil
}

func (s *RedisStore) CreateStreamID(ctx context.Context, streamID, chatID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, streamKey(streamID), chatID, ttl).Err(); err != nil {
		return fmt.Errorf("create stream id: %w", err)
	}
	return nil
}
