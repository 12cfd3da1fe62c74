package repository

import (
	"context"
	"strings"

	"sportzone/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CatalogSort string

const (
	SortByName       CatalogSort = "name"
	SortByPriceAsc   CatalogSort = "price_asc"
	SortByPriceDesc  CatalogSort = "price_desc"
	SortByPopularity CatalogSort = "popularity"
)

// CatalogFilter narrows the storefront product listing. Nil fields do not filter.
type CatalogFilter struct {
	CategoryID *uint
	ProductID  *uint
	Query      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	MinRating  *float64
	MinWeight  *int
	MaxWeight  *int
	Sort       CatalogSort
	Page       int
	PageSize   int
}

// ProductStats are the per-product aggregates the catalog sorts and filters on.
type ProductStats struct {
	ProductID  uint                `json:"-"`
	MinPrice   decimal.NullDecimal `json:"min_price"`
	AvgRating  float64             `json:"avg_rating"`
	OrderCount int64               `json:"order_count"`
}

type CatalogEntry struct {
	Product *model.Product
	Stats   ProductStats
}

type PriceRange struct {
	Min decimal.NullDecimal `json:"min_price"`
	Max decimal.NullDecimal `json:"max_price"`
}

type WeightRange struct {
	Min *int `json:"min_weight"`
	Max *int `json:"max_weight"`
}

type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindMany(ctx context.Context, ids []uint) ([]*model.Product, error)
	Search(ctx context.Context, f CatalogFilter) ([]*CatalogEntry, Page, error)
	Popular(ctx context.Context, limit int) ([]*CatalogEntry, error)
	Related(ctx context.Context, categoryID, excludeID uint, limit int) ([]*model.Product, error)
	PriceRange(ctx context.Context) (*PriceRange, error)
	WeightRange(ctx context.Context) (*WeightRange, error)
	PanelList(ctx context.Context, query string, categoryID *uint, page, size int) ([]*model.Product, Page, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteByCategory(ctx context.Context, tx *gorm.DB, categoryID uint) error
	AddImage(ctx context.Context, image *model.ProductImage) error
	DeleteImage(ctx context.Context, productID, imageID uint) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

const (
	minPriceExpr   = "(SELECT MIN(v.price) FROM product_variants v WHERE v.product_id = products.id)"
	avgRatingExpr  = "(SELECT COALESCE(AVG(rv.rating), 0) FROM reviews rv WHERE rv.product_id = products.id)"
	orderCountExpr = "(SELECT COUNT(*) FROM order_items oi JOIN product_variants ov ON ov.id = oi.product_variant_id WHERE ov.product_id = products.id)"
)

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("weight_grams ASC, id ASC")
		})
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

func (r *productRepoImpl) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Scopes(withDetails).
		First(&product, id).Error
	if err != nil {
		return nil, notFound(err, "product")
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, ids []uint) ([]*model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var products []*model.Product
	err := r.db.WithContext(ctx).
		Scopes(withDetails).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

// statsQuery selects one row per product with its aggregates, ready to be
// wrapped as a derived table.
func (r *productRepoImpl) statsQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Select("products.id AS product_id, products.name AS name, " +
			minPriceExpr + " AS min_price, " +
			avgRatingExpr + " AS avg_rating, " +
			orderCountExpr + " AS order_count")
}

func (r *productRepoImpl) filteredStats(ctx context.Context, f CatalogFilter) *gorm.DB {
	inner := r.statsQuery(ctx)
	if f.CategoryID != nil {
		inner = inner.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.ProductID != nil {
		inner = inner.Where("products.id = ?", *f.ProductID)
	} else if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		inner = inner.
			Joins("JOIN categories ON categories.id = products.category_id").
			Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(categories.name) LIKE ?", p, p, p)
	}
	if f.MinWeight != nil {
		inner = inner.Where("EXISTS (SELECT 1 FROM product_variants w WHERE w.product_id = products.id AND w.weight_grams >= ?)", *f.MinWeight)
	}
	if f.MaxWeight != nil {
		inner = inner.Where("EXISTS (SELECT 1 FROM product_variants w WHERE w.product_id = products.id AND w.weight_grams <= ?)", *f.MaxWeight)
	}

	outer := r.db.WithContext(ctx).Table("(?) AS pc", inner)
	if f.MinPrice != nil {
		outer = outer.Where("pc.min_price >= ?", f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		outer = outer.Where("pc.min_price <= ?", f.MaxPrice.InexactFloat64())
	}
	if f.MinRating != nil {
		outer = outer.Where("pc.avg_rating >= ?", *f.MinRating)
	}
	return outer
}

func catalogOrder(s CatalogSort) string {
	switch s {
	case SortByPriceAsc:
		return "pc.min_price ASC, pc.product_id ASC"
	case SortByPriceDesc:
		return "pc.min_price DESC, pc.product_id ASC"
	case SortByPopularity:
		return "pc.order_count DESC, pc.avg_rating DESC, pc.product_id ASC"
	default:
		return "pc.name ASC, pc.product_id ASC"
	}
}

func (r *productRepoImpl) Search(ctx context.Context, f CatalogFilter) ([]*CatalogEntry, Page, error) {
	var total int64
	if err := r.filteredStats(ctx, f).Count(&total).Error; err != nil {
		return nil, Page{}, err
	}
	page := NewPage(f.Page, f.PageSize, total)

	var stats []ProductStats
	err := r.filteredStats(ctx, f).
		Select("pc.product_id, pc.min_price, pc.avg_rating, pc.order_count").
		Order(catalogOrder(f.Sort)).
		Scopes(paginate(page)).
		Scan(&stats).Error
	if err != nil {
		return nil, Page{}, err
	}

	entries, err := r.attachProducts(ctx, stats)
	if err != nil {
		return nil, Page{}, err
	}
	return entries, page, nil
}

// Popular ranks by average rating multiplied by the number of order lines.
func (r *productRepoImpl) Popular(ctx context.Context, limit int) ([]*CatalogEntry, error) {
	var stats []ProductStats
	err := r.db.WithContext(ctx).
		Table("(?) AS pc", r.statsQuery(ctx)).
		Select("pc.product_id, pc.min_price, pc.avg_rating, pc.order_count").
		Order("pc.avg_rating * pc.order_count DESC, pc.product_id ASC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	return r.attachProducts(ctx, stats)
}

func (r *productRepoImpl) attachProducts(ctx context.Context, stats []ProductStats) ([]*CatalogEntry, error) {
	ids := make([]uint, len(stats))
	for i, s := range stats {
		ids[i] = s.ProductID
	}
	products, err := r.FindMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	entries := make([]*CatalogEntry, 0, len(stats))
	for _, s := range stats {
		// a product deleted between the two queries is skipped
		if p, ok := byID[s.ProductID]; ok {
			entries = append(entries, &CatalogEntry{Product: p, Stats: s})
		}
	}
	return entries, nil
}

func (r *productRepoImpl) Related(ctx context.Context, categoryID, excludeID uint, limit int) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("weight_grams ASC, id ASC")
		}).
		Where("category_id = ? AND id <> ?", categoryID, excludeID).
		Order("id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) PriceRange(ctx context.Context) (*PriceRange, error) {
	var pr PriceRange
	err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Select("MIN(price) AS min, MAX(price) AS max").
		Scan(&pr).Error
	if err != nil {
		return nil, err
	}

	return &pr, nil
}

func (r *productRepoImpl) WeightRange(ctx context.Context) (*WeightRange, error) {
	var wr WeightRange
	err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Select("MIN(weight_grams) AS min, MAX(weight_grams) AS max").
		Scan(&wr).Error
	if err != nil {
		return nil, err
	}

	return &wr, nil
}

func (r *productRepoImpl) PanelList(ctx context.Context, query string, categoryID *uint, page, size int) ([]*model.Product, Page, error) {
	build := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Product{})
		if strings.TrimSpace(query) != "" {
			p := likePattern(query)
			q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", p, p)
		}
		if categoryID != nil {
			q = q.Where("category_id = ?", *categoryID)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, Page{}, err
	}
	p := NewPage(page, size, total)

	var products []*model.Product
	err := build().
		Scopes(withDetails, paginate(p)).
		Order("id DESC").
		Find(&products).Error
	if err != nil {
		return nil, Page{}, err
	}

	return products, p, nil
}

func (r *productRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}

func (r *productRepoImpl) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Create(product).Error
}

func (r *productRepoImpl) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Model(product).
		Select("name", "description", "formatted_description", "category_id").
		Updates(product).Error
}

// Delete removes the product with its images, variants, reviews and
// product-scoped discounts. Order items keep their frozen prices.
func (r *productRepoImpl) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	res := tx.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "product")
	}
	return deleteProductChildren(ctx, tx, []uint{id})
}

func (r *productRepoImpl) DeleteByCategory(ctx context.Context, tx *gorm.DB, categoryID uint) error {
	var ids []uint
	err := tx.WithContext(ctx).Model(&model.Product{}).
		Where("category_id = ?", categoryID).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Where("category_id = ?", categoryID).Delete(&model.Discount{}).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Product{}).Error; err != nil {
		return err
	}
	return deleteProductChildren(ctx, tx, ids)
}

func deleteProductChildren(ctx context.Context, tx *gorm.DB, ids []uint) error {
	for _, m := range []any{&model.ProductImage{}, &model.ProductVariant{}, &model.Review{}, &model.Discount{}} {
		if err := tx.WithContext(ctx).Where("product_id IN ?", ids).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *productRepoImpl) AddImage(ctx context.Context, image *model.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *productRepoImpl) DeleteImage(ctx context.Context, productID, imageID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", imageID, productID).
		Delete(&model.ProductImage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "product image")
	}
	return nil
}
