package repository

import (
	"context"
	"errors"

	"sportzone/internal/model"

	"gorm.io/gorm"
)

type SiteSettingsRepository interface {
	// Get returns the single settings row, or empty settings when none exist.
	Get(ctx context.Context) (*model.SiteSettings, error)
}

type siteSettingsRepoImpl struct {
	db *gorm.DB
}

func NewSiteSettingsRepository(db *gorm.DB) SiteSettingsRepository {
	return &siteSettingsRepoImpl{db: db}
}

func (r *siteSettingsRepoImpl) Get(ctx context.Context) (*model.SiteSettings, error) {
	var settings model.SiteSettings
	err := r.db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.SiteSettings{}, nil
	}
	if err != nil {
		return nil, err
	}

	return &settings, nil
}
