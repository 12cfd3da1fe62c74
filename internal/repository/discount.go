package repository

import (
	"context"

	"sportzone/internal/model"

	"gorm.io/gorm"
)

type DiscountRepository interface {
	// ListActive returns switched-on discounts. Their time windows are
	// checked by the pricing engine.
	ListActive(ctx context.Context) ([]model.Discount, error)
	List(ctx context.Context) ([]*model.Discount, error)
	FindByID(ctx context.Context, id uint) (*model.Discount, error)
	Create(ctx context.Context, discount *model.Discount) error
	Save(ctx context.Context, discount *model.Discount) error
	Delete(ctx context.Context, id uint) error
}

type discountRepoImpl struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepoImpl{
		db: db,
	}
}

func (r *discountRepoImpl) ListActive(ctx context.Context) ([]model.Discount, error) {
	var discounts []model.Discount
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}

	return discounts, nil
}

func (r *discountRepoImpl) List(ctx context.Context) ([]*model.Discount, error) {
	var discounts []*model.Discount
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}

	return discounts, nil
}

func (r *discountRepoImpl) FindByID(ctx context.Context, id uint) (*model.Discount, error) {
	var discount model.Discount
	if err := r.db.WithContext(ctx).First(&discount, id).Error; err != nil {
		return nil, notFound(err, "discount")
	}

	return &discount, nil
}

func (r *discountRepoImpl) Create(ctx context.Context, discount *model.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

func (r *discountRepoImpl) Save(ctx context.Context, discount *model.Discount) error {
	return r.db.WithContext(ctx).Save(discount).Error
}

func (r *discountRepoImpl) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Discount{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "discount")
	}
	return nil
}
