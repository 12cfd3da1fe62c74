package repository

import (
	"context"

	"sportzone/internal/model"

	"gorm.io/gorm"
)

type PaymentMethodRepository interface {
	ListActive(ctx context.Context) ([]*model.PaymentMethod, error)
	List(ctx context.Context) ([]*model.PaymentMethod, error)
	FindByID(ctx context.Context, id uint) (*model.PaymentMethod, error)
	Create(ctx context.Context, method *model.PaymentMethod) error
	Save(ctx context.Context, method *model.PaymentMethod) error
}

type paymentMethodRepoImpl struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepoImpl{
		db: db,
	}
}

func (r *paymentMethodRepoImpl) ListActive(ctx context.Context) ([]*model.PaymentMethod, error) {
	var methods []*model.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}

	return methods, nil
}

func (r *paymentMethodRepoImpl) List(ctx context.Context) ([]*model.PaymentMethod, error) {
	var methods []*model.PaymentMethod
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&methods).Error; err != nil {
		return nil, err
	}

	return methods, nil
}

func (r *paymentMethodRepoImpl) FindByID(ctx context.Context, id uint) (*model.PaymentMethod, error) {
	var method model.PaymentMethod
	if err := r.db.WithContext(ctx).First(&method, id).Error; err != nil {
		return nil, notFound(err, "payment method")
	}

	return &method, nil
}

func (r *paymentMethodRepoImpl) Create(ctx context.Context, method *model.PaymentMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *paymentMethodRepoImpl) Save(ctx context.Context, method *model.PaymentMethod) error {
	return r.db.WithContext(ctx).Save(method).Error
}
