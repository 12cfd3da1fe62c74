package repository

import (
	"context"

	"sportzone/internal/model"

	"gorm.io/gorm"
)

type PaymentAttemptRepository interface {
	Create(ctx context.Context, attempt *model.PaymentAttempt) error
	FindByOrderID(ctx context.Context, orderID uint) (*model.PaymentAttempt, error)
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*model.PaymentAttempt, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error
}

type paymentAttemptRepoImpl struct {
	db *gorm.DB
}

func NewPaymentAttemptRepository(db *gorm.DB) PaymentAttemptRepository {
	return &paymentAttemptRepoImpl{
		db: db,
	}
}

func (r *paymentAttemptRepoImpl) Create(ctx context.Context, attempt *model.PaymentAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *paymentAttemptRepoImpl) FindByOrderID(ctx context.Context, orderID uint) (*model.PaymentAttempt, error) {
	var attempt model.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&attempt).Error
	if err != nil {
		return nil, notFound(err, "payment attempt")
	}

	return &attempt, nil
}

func (r *paymentAttemptRepoImpl) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*model.PaymentAttempt, error) {
	var attempt model.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("gateway_payment_id = ?", paymentID).
		First(&attempt).Error
	if err != nil {
		return nil, notFound(err, "payment attempt")
	}

	return &attempt, nil
}

func (r *paymentAttemptRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status string) error {
	return tx.WithContext(ctx).Model(&model.PaymentAttempt{}).
		Where("id = ?", id).
		Update("status", status).Error
}
