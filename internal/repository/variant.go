package repository

import (
	"context"

	"sportzone/internal/model"

	"gorm.io/gorm"
)

type VariantRepository interface {
	FindByID(ctx context.Context, id uint) (*model.ProductVariant, error)
	FindMany(ctx context.Context, ids []uint) ([]*model.ProductVariant, error)
	Create(ctx context.Context, variant *model.ProductVariant) error
	Update(ctx context.Context, variant *model.ProductVariant) error
	Delete(ctx context.Context, productID, variantID uint) error
}

type variantRepoImpl struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepoImpl{
		db: db,
	}
}

func (r *variantRepoImpl) FindByID(ctx context.Context, id uint) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&variant, id).Error
	if err != nil {
		return nil, notFound(err, "product variant")
	}

	return &variant, nil
}

// FindMany returns the variants that still exist, with their products.
func (r *variantRepoImpl) FindMany(ctx context.Context, ids []uint) ([]*model.ProductVariant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var variants []*model.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&variants).Error
	if err != nil {
		return nil, err
	}

	return variants, nil
}

func (r *variantRepoImpl) Create(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Omit("Product").Create(variant).Error
}

func (r *variantRepoImpl) Update(ctx context.Context, variant *model.ProductVariant) error {
	res := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("id = ? AND product_id = ?", variant.ID, variant.ProductID).
		Updates(map[string]interface{}{
			"weight_grams": variant.WeightGrams,
			"price":        variant.Price,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "product variant")
	}
	return nil
}

func (r *variantRepoImpl) Delete(ctx context.Context, productID, variantID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		Delete(&model.ProductVariant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "product variant")
	}
	return nil
}
