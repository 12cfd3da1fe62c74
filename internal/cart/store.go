package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Load(ctx context.Context, sessionID string) (Cart, error)
	Increment(ctx context.Context, sessionID string, variantID uint, quantity int) error
	Remove(ctx context.Context, sessionID string, variantID uint) error
	Clear(ctx context.Context, sessionID string) error
}

// RedisStore keeps each cart as a hash of variant id to quantity under
// cart:<session id>. Every write refreshes the expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (Cart, error) {
	fields, err := r.client.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	c := make(Cart, len(fields))
	for field, value := range fields {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(value)
		if err != nil || qty <= 0 {
			continue
		}
		c[uint(id)] = qty
	}
	return c, nil
}

func (r *RedisStore) Increment(ctx context.Context, sessionID string, variantID uint, quantity int) error {
	key := cartKey(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, variantField(variantID), int64(quantity))
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hincrby failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, sessionID string, variantID uint) error {
	if err := r.client.HDel(ctx, cartKey(sessionID), variantField(variantID)).Err(); err != nil {
		return fmt.Errorf("redis hdel failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func variantField(variantID uint) string {
	return strconv.FormatUint(uint64(variantID), 10)
}
