package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sportzone/internal/apperr"
	"sportzone/internal/cache"
	"sportzone/internal/dto"
	"sportzone/internal/markup"
	"sportzone/internal/model"
	"sportzone/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	popularLimit     = 50
	catalogPageSize  = 12
	recommendedLimit = 15
)

var productIDQuery = regexp.MustCompile(`^id\((\d+)\)$`)

type CatalogService interface {
	Home(ctx context.Context) (*dto.HomeResponse, error)
	Categories(ctx context.Context) ([]*model.Category, error)
	ListProducts(ctx context.Context, q dto.ProductListQuery) (*dto.ProductListResponse, error)
	// ProductDetail renders one product. viewerID is zero for anonymous visitors.
	ProductDetail(ctx context.Context, productID, viewerID uint) (*dto.ProductDetailResponse, error)
	InvalidateCache(ctx context.Context)
}

type catalogServiceImpl struct {
	productRepo   repository.ProductRepository
	categoryRepo  repository.CategoryRepository
	discountRepo  repository.DiscountRepository
	reviewRepo    repository.ReviewRepository
	settingsRepo  repository.SiteSettingsRepository
	reviewService ReviewService
	cache         cache.CatalogCache
	group         singleflight.Group
	logger        *zap.Logger
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	discountRepo repository.DiscountRepository,
	reviewRepo repository.ReviewRepository,
	settingsRepo repository.SiteSettingsRepository,
	reviewService ReviewService,
	catalogCache cache.CatalogCache,
	logger *zap.Logger,
) CatalogService {
	return &catalogServiceImpl{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		discountRepo:  discountRepo,
		reviewRepo:    reviewRepo,
		settingsRepo:  settingsRepo,
		reviewService: reviewService,
		cache:         catalogCache,
		logger:        logger,
	}
}

func (s *catalogServiceImpl) Categories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.cache.GetCategories(ctx)
	if err == nil {
		return categories, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("category cache read failed", zap.Error(err))
	}

	v, err, _ := s.group.Do("categories", func() (interface{}, error) {
		categories, err := s.categoryRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetCategories(ctx, categories); err != nil {
			s.logger.Warn("category cache write failed", zap.Error(err))
		}
		return categories, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return v.([]*model.Category), nil
}

func (s *catalogServiceImpl) siteSettings(ctx context.Context) (*model.SiteSettings, error) {
	settings, err := s.cache.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("settings cache read failed", zap.Error(err))
	}

	v, err, _ := s.group.Do("settings", func() (interface{}, error) {
		settings, err := s.settingsRepo.Get(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetSettings(ctx, settings); err != nil {
			s.logger.Warn("settings cache write failed", zap.Error(err))
		}
		return settings, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load site settings: %w", err)
	}
	return v.(*model.SiteSettings), nil
}

func (s *catalogServiceImpl) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *catalogServiceImpl) Home(ctx context.Context) (*dto.HomeResponse, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.siteSettings(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.productRepo.Popular(ctx, popularLimit)
	if err != nil {
		return nil, fmt.Errorf("rank popular products: %w", err)
	}
	discounts, err := s.discountRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}

	now := time.Now()
	resp := &dto.HomeResponse{
		Logo:       settings.Logo,
		Categories: categories,
		Popular:    make([]dto.ProductCard, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Popular = append(resp.Popular, productCard(e.Product, &e.Stats, discounts, now))
	}
	return resp, nil
}

func parseDecimal(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &d
}

func parseInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (s *catalogServiceImpl) buildFilter(ctx context.Context, q dto.ProductListQuery) (repository.CatalogFilter, error) {
	f := repository.CatalogFilter{
		MinPrice:  parseDecimal(q.MinPrice),
		MaxPrice:  parseDecimal(q.MaxPrice),
		MinWeight: parseInt(q.MinWeight),
		MaxWeight: parseInt(q.MaxWeight),
		Sort:      repository.SortByName,
		Page:      parsePage(q.Page),
		PageSize:  catalogPageSize,
	}

	if c := strings.TrimSpace(q.Category); c != "" {
		id, err := strconv.ParseUint(c, 10, 64)
		if err != nil {
			return f, apperr.NotFound(fmt.Sprintf("category %q", c))
		}
		category, err := s.categoryRepo.FindByID(ctx, uint(id))
		if err != nil {
			return f, err
		}
		f.CategoryID = &category.ID
	}

	query := strings.TrimSpace(q.Q)
	if m := productIDQuery.FindStringSubmatch(query); m != nil {
		if id, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			pid := uint(id)
			f.ProductID = &pid
		}
	} else {
		f.Query = query
	}

	if r, err := strconv.ParseFloat(strings.TrimSpace(q.MinRating), 64); err == nil {
		f.MinRating = &r
	}

	switch sort := repository.CatalogSort(q.Sort); sort {
	case repository.SortByPriceAsc, repository.SortByPriceDesc, repository.SortByPopularity:
		f.Sort = sort
	}
	return f, nil
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, q dto.ProductListQuery) (*dto.ProductListResponse, error) {
	filter, err := s.buildFilter(ctx, q)
	if err != nil {
		return nil, err
	}

	entries, page, err := s.productRepo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	discounts, err := s.discountRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	priceRange, err := s.productRepo.PriceRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("price range: %w", err)
	}
	weightRange, err := s.productRepo.WeightRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("weight range: %w", err)
	}

	now := time.Now()
	resp := &dto.ProductListResponse{
		Products:    make([]dto.ProductCard, 0, len(entries)),
		Page:        page,
		Categories:  categories,
		PriceRange:  priceRange,
		WeightRange: weightRange,
	}
	for _, e := range entries {
		resp.Products = append(resp.Products, productCard(e.Product, &e.Stats, discounts, now))
	}
	return resp, nil
}

func (s *catalogServiceImpl) ProductDetail(ctx context.Context, productID, viewerID uint) (*dto.ProductDetailResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	discounts, err := s.discountRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	avg, err := s.reviewRepo.AverageRating(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	related, err := s.productRepo.Related(ctx, product.CategoryID, product.ID, recommendedLimit)
	if err != nil {
		return nil, fmt.Errorf("related products: %w", err)
	}

	canReview := false
	if viewerID != 0 {
		if canReview, err = s.reviewService.CanReview(ctx, viewerID, productID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	category := product.Category
	resp := &dto.ProductDetailResponse{
		ID:              product.ID,
		Name:            product.Name,
		Category:        &category,
		DescriptionHTML: markup.Format(product.DescriptionSource()),
		Description:     product.Description,
		Images:          make([]*model.ProductImage, 0, len(product.Images)),
		Variants:        variantViews(product, discounts, now),
		AvgRating:       int(math.Ceil(avg)),
		Reviews:         make([]dto.ReviewView, 0, len(reviews)),
		Recommended:     make([]dto.ProductCard, 0, len(related)),
		CanReview:       canReview,
	}
	for i := range product.Images {
		resp.Images = append(resp.Images, &product.Images[i])
	}
	for _, r := range reviews {
		resp.Reviews = append(resp.Reviews, dto.ReviewView{
			ID:        r.ID,
			Username:  r.User.Username,
			Rating:    r.Rating,
			Text:      r.Text,
			CreatedAt: r.CreatedAt,
		})
	}
	for _, p := range related {
		resp.Recommended = append(resp.Recommended, productCard(p, nil, discounts, now))
	}
	return resp, nil
}
