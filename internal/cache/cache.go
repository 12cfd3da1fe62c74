// Package cache holds read-through caches for slow-changing catalog data.
package cache

import (
	"context"
	"errors"

	"sportzone/internal/model"
)

type CatalogCache interface {
	GetCategories(ctx context.Context) ([]*model.Category, error)
	SetCategories(ctx context.Context, categories []*model.Category) error
	GetSettings(ctx context.Context) (*model.SiteSettings, error)
	SetSettings(ctx context.Context, settings *model.SiteSettings) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
