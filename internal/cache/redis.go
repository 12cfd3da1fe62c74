package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sportzone/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	categoriesKey = "catalog:categories"
	settingsKey   = "catalog:settings"
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCache) GetCategories(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	if err := r.get(ctx, categoriesKey, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *RedisCache) SetCategories(ctx context.Context, categories []*model.Category) error {
	return r.set(ctx, categoriesKey, categories)
}

func (r *RedisCache) GetSettings(ctx context.Context) (*model.SiteSettings, error) {
	var settings model.SiteSettings
	if err := r.get(ctx, settingsKey, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *RedisCache) SetSettings(ctx context.Context, settings *model.SiteSettings) error {
	return r.set(ctx, settingsKey, settings)
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, categoriesKey, settingsKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string, out any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
