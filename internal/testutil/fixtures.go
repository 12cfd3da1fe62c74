package testutil

import (
	"testing"

	"sportzone/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Fixture inserts rows directly, bypassing services.
type Fixture struct {
	t  *testing.T
	db *gorm.DB
}

func NewFixture(t *testing.T, db *gorm.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

func (f *Fixture) create(v any) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(v).Error)
}

func (f *Fixture) User(username string) *model.User {
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x", IsActive: true}
	f.create(u)
	return u
}

func (f *Fixture) Staff(username string) *model.User {
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x", IsActive: true, IsStaff: true}
	f.create(u)
	return u
}

func (f *Fixture) Category(name string) *model.Category {
	c := &model.Category{Name: name}
	f.create(c)
	return c
}

// Product creates a product with one variant per price, weights 100g, 200g, ...
func (f *Fixture) Product(name string, categoryID uint, prices ...string) *model.Product {
	f.t.Helper()
	p := &model.Product{Name: name, Description: name + " description", CategoryID: categoryID}
	require.NoError(f.t, f.db.Omit("Category").Create(p).Error)
	for i, price := range prices {
		v := model.ProductVariant{ProductID: p.ID, WeightGrams: (i + 1) * 100, Price: decimal.RequireFromString(price)}
		f.create(&v)
		p.Variants = append(p.Variants, v)
	}
	return p
}

func (f *Fixture) Variant(productID uint, weight int, price string) *model.ProductVariant {
	v := &model.ProductVariant{ProductID: productID, WeightGrams: weight, Price: decimal.RequireFromString(price)}
	f.create(v)
	return v
}

func (f *Fixture) PaymentMethod(name string, kind model.PaymentMethodKind) *model.PaymentMethod {
	m := &model.PaymentMethod{Name: name, Kind: kind, IsActive: true}
	f.create(m)
	return m
}

// CompletedOrder records a completed order of one unit per variant.
func (f *Fixture) CompletedOrder(userID uint, variants ...*model.ProductVariant) *model.Order {
	return f.order(userID, true, variants...)
}

func (f *Fixture) PendingOrder(userID uint, variants ...*model.ProductVariant) *model.Order {
	return f.order(userID, false, variants...)
}

func (f *Fixture) order(userID uint, completed bool, variants ...*model.ProductVariant) *model.Order {
	f.t.Helper()
	total := decimal.Zero
	for _, v := range variants {
		total = total.Add(v.Price)
	}
	o := &model.Order{
		UserID:      userID,
		TotalPrice:  total,
		Status:      model.OrderStatusPendingPayment,
		FullName:    "Test Buyer",
		Address:     "1 Test Street",
		IsCompleted: completed,
	}
	require.NoError(f.t, f.db.Omit("User", "PaymentMethod", "Items").Create(o).Error)
	for _, v := range variants {
		item := &model.OrderItem{OrderID: o.ID, ProductVariantID: v.ID, Quantity: 1, Price: v.Price}
		require.NoError(f.t, f.db.Omit("ProductVariant").Create(item).Error)
	}
	return o
}

func (f *Fixture) Review(userID, productID uint, rating int) *model.Review {
	r := &model.Review{UserID: userID, ProductID: productID, Rating: rating, Text: "fine"}
	require.NoError(f.t, f.db.Omit("User").Create(r).Error)
	return r
}
