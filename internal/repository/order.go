package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"sportzone/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderFilter narrows the panel order listing.
type OrderFilter struct {
	Status   model.OrderStatus
	Query    string
	Page     int
	PageSize int
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]*model.Order, error)
	List(ctx context.Context, f OrderFilter) ([]*model.Order, Page, error)
	SetStatus(ctx context.Context, id uint, status model.OrderStatus) error
	// AdvanceStatus moves the order to `to` only if it is currently in `from`.
	AdvanceStatus(ctx context.Context, tx *gorm.DB, id uint, from, to model.OrderStatus) (bool, error)
	MarkCompleted(ctx context.Context, id uint) error
	HasCompletedOrderWithProduct(ctx context.Context, userID, productID uint) (bool, error)
	CompletedProductIDs(ctx context.Context, userID uint) ([]uint, error)

	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	RevenueSince(ctx context.Context, since time.Time, statuses []model.OrderStatus) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)
	Latest(ctx context.Context, limit int) ([]*model.Order, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Items.ProductVariant.Product").
		Preload("PaymentMethod")
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit("User", "PaymentMethod", "Items").Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Omit("ProductVariant").Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Scopes(withItems).
		Preload("User").
		First(&order, id).Error
	if err != nil {
		return nil, notFound(err, "order")
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByIdempotencyKey(ctx context.Context, userID uint, key string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Scopes(withItems).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if err != nil {
		return nil, notFound(err, "order")
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID uint) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Scopes(withItems).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) List(ctx context.Context, f OrderFilter) ([]*model.Order, Page, error) {
	build := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Order{}).
			Joins("JOIN users ON users.id = orders.user_id")
		if f.Status != "" {
			q = q.Where("orders.status = ?", f.Status)
		}
		if s := strings.TrimSpace(f.Query); s != "" {
			p := likePattern(s)
			if id, err := strconv.ParseUint(s, 10, 64); err == nil {
				q = q.Where("orders.id = ? OR LOWER(users.username) LIKE ? OR LOWER(orders.full_name) LIKE ?", id, p, p)
			} else {
				q = q.Where("LOWER(users.username) LIKE ? OR LOWER(orders.full_name) LIKE ?", p, p)
			}
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, Page{}, err
	}
	page := NewPage(f.Page, f.PageSize, total)

	var orders []*model.Order
	err := build().
		Preload("User").
		Preload("PaymentMethod").
		Order("orders.created_at DESC, orders.id DESC").
		Scopes(paginate(page)).
		Find(&orders).Error
	if err != nil {
		return nil, Page{}, err
	}

	return orders, page, nil
}

func (r *orderRepoImpl) SetStatus(ctx context.Context, id uint, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "order")
	}
	return nil
}

func (r *orderRepoImpl) AdvanceStatus(ctx context.Context, tx *gorm.DB, id uint, from, to model.OrderStatus) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepoImpl) MarkCompleted(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_completed": true,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "order")
	}
	return nil
}

func (r *orderRepoImpl) completedItems(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Table("order_items").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN product_variants ON product_variants.id = order_items.product_variant_id").
		Where("orders.user_id = ? AND orders.is_completed = ?", userID, true)
}

func (r *orderRepoImpl) HasCompletedOrderWithProduct(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := r.completedItems(ctx, userID).
		Where("product_variants.product_id = ?", productID).
		Count(&count).Error

	return count > 0, err
}

func (r *orderRepoImpl) CompletedProductIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.completedItems(ctx, userID).
		Distinct("product_variants.product_id").
		Order("product_variants.product_id ASC").
		Pluck("product_variants.product_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *orderRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error
	return count, err
}

func (r *orderRepoImpl) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *orderRepoImpl) RevenueSince(ctx context.Context, since time.Time, statuses []model.OrderStatus) (decimal.Decimal, error) {
	var res struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("SUM(total_price) AS total").
		Where("created_at >= ? AND status IN ?", since, statuses).
		Scan(&res).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !res.Total.Valid {
		return decimal.Zero, nil
	}
	return res.Total.Decimal, nil
}

func (r *orderRepoImpl) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	var rows []struct {
		Status model.OrderStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *orderRepoImpl) Latest(ctx context.Context, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}
