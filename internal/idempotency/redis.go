package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache is the redis implementation of Cache. Records expire after TTL,
// which bounds the replay window instead of keeping keys forever.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new redis-backed idempotency cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

var _ Cache = (*RedisCache)(nil)

func redisKey(endpoint string, userID uuid.UUID, requestHash string) string {
	return fmt.Sprintf("idempotency:%s:%s:%s", endpoint, userID, requestHash)
}

// Lookup returns the stored record for the key, or nil on a miss
func (c *RedisCache) Lookup(ctx context.Context, endpoint string, userID uuid.UUID, requestHash string) (*Record, error) {
	raw, err := c.client.Get(ctx, redisKey(endpoint, userID, requestHash)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lookup idempotency key: %w", err)
	}

	record := &Record{}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}

	return record, nil
}

// Store persists the record, keeping the first one when the key exists
func (c *RedisCache) Store(ctx context.Context, record *Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency record: %w", err)
	}

	key := redisKey(record.Endpoint, record.UserID, record.RequestHash)
	if err := c.client.SetNX(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}

	return nil
}
