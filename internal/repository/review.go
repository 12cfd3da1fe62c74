package repository

import (
	"context"

	"sportzone/internal/model"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	Exists(ctx context.Context, userID, productID uint) (bool, error)
	ListByProduct(ctx context.Context, productID uint) ([]*model.Review, error)
	AverageRating(ctx context.Context, productID uint) (float64, error)
	ReviewedProductIDs(ctx context.Context, userID uint) ([]uint, error)
}

type reviewRepoImpl struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepoImpl{
		db: db,
	}
}

func (r *reviewRepoImpl) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Omit("User").Create(review).Error
}

func (r *reviewRepoImpl) Exists(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error

	return count > 0, err
}

func (r *reviewRepoImpl) ListByProduct(ctx context.Context, productID uint) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *reviewRepoImpl) AverageRating(ctx context.Context, productID uint) (float64, error) {
	var res struct {
		Avg *float64
	}
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("AVG(rating) AS avg").
		Where("product_id = ?", productID).
		Scan(&res).Error
	if err != nil || res.Avg == nil {
		return 0, err
	}

	return *res.Avg, nil
}

func (r *reviewRepoImpl) ReviewedProductIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("user_id = ?", userID).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}
