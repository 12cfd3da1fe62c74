package repository

import (
	"context"
	"testing"

	"sportzone/internal/apperr"
	"sportzone/internal/model"
	"sportzone/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productNames(entries []*CatalogEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Product.Name
	}
	return names
}

func TestProductRepository_SearchFiltersAndSorts(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewProductRepository(db)
	ctx := context.Background()

	nuts := fx.Category("Nuts")
	fruit := fx.Category("Dried fruit")
	almond := fx.Product("Almond", nuts.ID, "300", "550")
	fx.Product("Cashew", nuts.ID, "450")
	fx.Product("Apricot", fruit.ID, "120")

	t.Run("default sort by name", func(t *testing.T) {
		entries, page, err := repo.Search(ctx, CatalogFilter{PageSize: 12})
		require.NoError(t, err)
		assert.Equal(t, []string{"Almond", "Apricot", "Cashew"}, productNames(entries))
		assert.Equal(t, int64(3), page.Total)
		assert.True(t, entries[0].Stats.MinPrice.Decimal.Equal(decimal.NewFromInt(300)))
	})

	t.Run("category", func(t *testing.T) {
		entries, _, err := repo.Search(ctx, CatalogFilter{CategoryID: &nuts.ID, PageSize: 12})
		require.NoError(t, err)
		assert.Equal(t, []string{"Almond", "Cashew"}, productNames(entries))
	})

	t.Run("query matches category name case-insensitively", func(t *testing.T) {
		entries, _, err := repo.Search(ctx, CatalogFilter{Query: "DRIED", PageSize: 12})
		require.NoError(t, err)
		assert.Equal(t, []string{"Apricot"}, productNames(entries))
	})

	t.Run("product id", func(t *testing.T) {
		entries, _, err := repo.Search(ctx, CatalogFilter{ProductID: &almond.ID, PageSize: 12})
		require.NoError(t, err)
		assert.Equal(t, []string{"Almond"}, productNames(entries))
	})

	t.Run("price bounds use cheapest variant", func(t *testing.T) {
		min := decimal.NewFromInt(200)
		max := decimal.NewFromInt(400)
		entries, _, err := repo.Search(ctx, CatalogFilter{MinPrice: &min, MaxPrice: &max, PageSize: 12})
		require.NoError(t, err)
		assert.Equal(t, []string{"Almond"}, productNames(entries))
	})

	t.Run("weight bounds", func(t *testing.T) {
		minW := 200
		entries, _, err := repo.Search(ctx, CatalogFilter{MinWeight: &minW, PageSize: 12})
		require.NoError(t, err)
		assert.Equal(t, []string{"Almond"}, productNames(entries))
	})

	t.Run("price descending", func(t *testing.T) {
		entries, _, err := repo.Search(ctx, CatalogFilter{Sort: SortByPriceDesc, PageSize: 12})
		require.NoError(t, err)
		assert.Equal(t, []string{"Cashew", "Almond", "Apricot"}, productNames(entries))
	})

	t.Run("page past the end clamps to last", func(t *testing.T) {
		entries, page, err := repo.Search(ctx, CatalogFilter{Page: 9, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Number)
		assert.Equal(t, 2, page.Pages)
		assert.Equal(t, []string{"Cashew"}, productNames(entries))
	})
}

func TestProductRepository_RatingAndPopularity(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewProductRepository(db)
	ctx := context.Background()

	cat := fx.Category("Nuts")
	a := fx.Product("A", cat.ID, "10")
	b := fx.Product("B", cat.ID, "10")
	fx.Product("C", cat.ID, "10")
	u1 := fx.User("u1")
	u2 := fx.User("u2")

	fx.CompletedOrder(u1.ID, &a.Variants[0])
	fx.CompletedOrder(u2.ID, &b.Variants[0])
	fx.CompletedOrder(u1.ID, &b.Variants[0])
	fx.Review(u1.ID, a.ID, 5)
	fx.Review(u1.ID, b.ID, 4)
	fx.Review(u2.ID, b.ID, 4)

	popular, err := repo.Popular(ctx, 50)
	require.NoError(t, err)
	// B: 4 * 2 = 8, A: 5 * 1 = 5, C: 0
	assert.Equal(t, []string{"B", "A", "C"}, productNames(popular))
	assert.Equal(t, int64(2), popular[0].Stats.OrderCount)

	minRating := 4.5
	entries, _, err := repo.Search(ctx, CatalogFilter{MinRating: &minRating, PageSize: 12})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, productNames(entries))

	entries, _, err = repo.Search(ctx, CatalogFilter{Sort: SortByPopularity, PageSize: 12})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, productNames(entries))
}

func TestProductRepository_Ranges(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewProductRepository(db)
	ctx := context.Background()

	pr, err := repo.PriceRange(ctx)
	require.NoError(t, err)
	assert.False(t, pr.Min.Valid)

	cat := fx.Category("Nuts")
	fx.Product("A", cat.ID, "12.50", "99.90")

	pr, err = repo.PriceRange(ctx)
	require.NoError(t, err)
	assert.True(t, pr.Min.Decimal.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, pr.Max.Decimal.Equal(decimal.RequireFromString("99.90")))

	wr, err := repo.WeightRange(ctx)
	require.NoError(t, err)
	require.NotNil(t, wr.Min)
	assert.Equal(t, 100, *wr.Min)
	assert.Equal(t, 200, *wr.Max)
}

func TestProductRepository_DeleteKeepsOrderHistory(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewProductRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	cat := fx.Category("Nuts")
	p := fx.Product("A", cat.ID, "10")
	u := fx.User("buyer")
	order := fx.CompletedOrder(u.ID, &p.Variants[0])
	fx.Review(u.ID, p.ID, 5)

	require.NoError(t, repo.Delete(ctx, db, p.ID))

	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var variants, reviews int64
	db.Model(&model.ProductVariant{}).Where("product_id = ?", p.ID).Count(&variants)
	db.Model(&model.Review{}).Where("product_id = ?", p.ID).Count(&reviews)
	assert.Zero(t, variants)
	assert.Zero(t, reviews)

	got, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Price.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, got.Items[0].ProductVariant)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(10)))
}

func TestProductRepository_DeleteByCategory(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.NewFixture(t, db)
	repo := NewProductRepository(db)
	ctx := context.Background()

	nuts := fx.Category("Nuts")
	fruit := fx.Category("Fruit")
	fx.Product("A", nuts.ID, "10")
	fx.Product("B", nuts.ID, "10")
	keep := fx.Product("C", fruit.ID, "10")

	require.NoError(t, repo.DeleteByCategory(ctx, db, nuts.ID))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	_, err = repo.FindByID(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		total     int64
		want      int
		pages     int
	}{
		{"empty", 1, 0, 1, 1},
		{"zero page", 0, 30, 1, 3},
		{"negative", -4, 30, 1, 3},
		{"in range", 2, 30, 2, 3},
		{"past end", 7, 30, 3, 3},
		{"partial last", 3, 25, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.requested, 12, tt.total)
			assert.Equal(t, tt.want, p.Number)
			assert.Equal(t, tt.pages, p.Pages)
		})
	}
}
