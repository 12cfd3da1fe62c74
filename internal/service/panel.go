package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sportzone/internal/apperr"
	"sportzone/internal/dto"
	"sportzone/internal/model"
	"sportzone/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	panelProductPageSize = 20
	panelUserPageSize    = 30
	panelOrderPageSize   = 25
	dashboardWindow      = 7 * 24 * time.Hour
	dashboardLatest      = 10
)

var hundred = decimal.NewFromInt(100)

// revenueStatuses count towards dashboard revenue.
var revenueStatuses = []model.OrderStatus{model.OrderStatusShipped, model.OrderStatusDelivered}

type PanelService interface {
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)

	Products(ctx context.Context, q dto.PanelListQuery) (*dto.ProductPage, error)
	Product(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, in dto.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, in dto.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	AddVariant(ctx context.Context, productID uint, in dto.VariantInput) (*model.ProductVariant, error)
	UpdateVariant(ctx context.Context, productID, variantID uint, in dto.VariantInput) (*model.ProductVariant, error)
	DeleteVariant(ctx context.Context, productID, variantID uint) error
	AddImage(ctx context.Context, productID uint, in dto.ImageInput) (*model.ProductImage, error)
	DeleteImage(ctx context.Context, productID, imageID uint) error

	Categories(ctx context.Context) ([]*model.Category, error)
	CreateCategory(ctx context.Context, in dto.CategoryInput) (*model.Category, error)
	// DeleteCategory removes the category together with its products.
	DeleteCategory(ctx context.Context, id uint) error

	Discounts(ctx context.Context) ([]*model.Discount, error)
	CreateDiscount(ctx context.Context, in dto.DiscountInput) (*model.Discount, error)
	UpdateDiscount(ctx context.Context, id uint, in dto.DiscountInput) (*model.Discount, error)
	DeleteDiscount(ctx context.Context, id uint) error

	Users(ctx context.Context, q dto.PanelListQuery) (*dto.UserPage, error)
	UpdateUser(ctx context.Context, id uint, in dto.UserUpdateInput) (*dto.UserView, error)

	Orders(ctx context.Context, q dto.PanelListQuery) (*dto.OrderPage, error)
	Order(ctx context.Context, id uint) (*dto.OrderView, error)
	// SetOrderStatus accepts any declared status; transitions are not ordered.
	SetOrderStatus(ctx context.Context, id uint, in dto.OrderStatusInput) (*dto.OrderView, error)
	MarkOrderCompleted(ctx context.Context, id uint) (*dto.OrderView, error)

	PaymentMethods(ctx context.Context) ([]*model.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, in dto.PaymentMethodInput) (*model.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, id uint, in dto.PaymentMethodInput) (*model.PaymentMethod, error)
}

type panelServiceImpl struct {
	db             *gorm.DB
	productRepo    repository.ProductRepository
	variantRepo    repository.VariantRepository
	categoryRepo   repository.CategoryRepository
	discountRepo   repository.DiscountRepository
	userRepo       repository.UserRepository
	orderRepo      repository.OrderRepository
	methodRepo     repository.PaymentMethodRepository
	catalogService CatalogService
	logger         *zap.Logger
}

func NewPanelService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	categoryRepo repository.CategoryRepository,
	discountRepo repository.DiscountRepository,
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	methodRepo repository.PaymentMethodRepository,
	catalogService CatalogService,
	logger *zap.Logger,
) PanelService {
	return &panelServiceImpl{
		db:             db,
		productRepo:    productRepo,
		variantRepo:    variantRepo,
		categoryRepo:   categoryRepo,
		discountRepo:   discountRepo,
		userRepo:       userRepo,
		orderRepo:      orderRepo,
		methodRepo:     methodRepo,
		catalogService: catalogService,
		logger:         logger,
	}
}

func (s *panelServiceImpl) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	since := time.Now().Add(-dashboardWindow)

	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	orders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	customers, err := s.userRepo.CountCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	recent, err := s.orderRepo.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count recent orders: %w", err)
	}
	revenue, err := s.orderRepo.RevenueSince(ctx, since, revenueStatuses)
	if err != nil {
		return nil, fmt.Errorf("recent revenue: %w", err)
	}
	byStatus, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	latest, err := s.orderRepo.Latest(ctx, dashboardLatest)
	if err != nil {
		return nil, fmt.Errorf("latest orders: %w", err)
	}

	return &dto.DashboardResponse{
		TotalProducts:  products,
		TotalOrders:    orders,
		TotalCustomers: customers,
		RecentOrders:   recent,
		RecentRevenue:  money(revenue),
		OrdersByStatus: byStatus,
		LatestOrders:   orderViews(latest),
	}, nil
}

// optionalID parses a filter id; anything unparsable means "no filter".
func optionalID(s string) *uint {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	v := uint(id)
	return &v
}

func (s *panelServiceImpl) Products(ctx context.Context, q dto.PanelListQuery) (*dto.ProductPage, error) {
	products, page, err := s.productRepo.PanelList(ctx, q.Search, optionalID(q.Category), parsePage(q.Page), panelProductPageSize)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &dto.ProductPage{Products: products, Page: page}, nil
}

func (s *panelServiceImpl) Product(ctx context.Context, id uint) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *panelServiceImpl) productFromInput(ctx context.Context, p *model.Product, in dto.ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.Validation("name", "name is required")
	}
	if len(name) > 200 {
		return apperr.Validation("name", "name is too long")
	}
	if in.CategoryID == 0 {
		return apperr.Validation("category_id", "category is required")
	}
	if _, err := s.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("category_id", "select a valid category")
		}
		return err
	}

	p.Name = name
	p.CategoryID = in.CategoryID
	p.Description = in.Description
	p.FormattedDescription = strings.TrimSpace(in.FormattedDescription)
	return nil
}

func (s *panelServiceImpl) CreateProduct(ctx context.Context, in dto.ProductInput) (*model.Product, error) {
	product := &model.Product{}
	if err := s.productFromInput(ctx, product, in); err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.Uint("product_id", product.ID))
	return s.productRepo.FindByID(ctx, product.ID)
}

func (s *panelServiceImpl) UpdateProduct(ctx context.Context, id uint, in dto.ProductInput) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.productFromInput(ctx, product, in); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.productRepo.FindByID(ctx, id)
}

func (s *panelServiceImpl) DeleteProduct(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.productRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.Uint("product_id", id))
	return nil
}

func validateVariant(in dto.VariantInput) error {
	if in.WeightGrams <= 0 {
		return apperr.Validation("weight", "weight must be positive")
	}
	if in.Price.IsNegative() {
		return apperr.Validation("price", "price cannot be negative")
	}
	return nil
}

func (s *panelServiceImpl) AddVariant(ctx context.Context, productID uint, in dto.VariantInput) (*model.ProductVariant, error) {
	if err := validateVariant(in); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	variant := &model.ProductVariant{
		ProductID:   productID,
		WeightGrams: in.WeightGrams,
		Price:       in.Price.Round(2),
	}
	if err := s.variantRepo.Create(ctx, variant); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	return variant, nil
}

func (s *panelServiceImpl) UpdateVariant(ctx context.Context, productID, variantID uint, in dto.VariantInput) (*model.ProductVariant, error) {
	if err := validateVariant(in); err != nil {
		return nil, err
	}
	variant := &model.ProductVariant{
		ID:          variantID,
		ProductID:   productID,
		WeightGrams: in.WeightGrams,
		Price:       in.Price.Round(2),
	}
	if err := s.variantRepo.Update(ctx, variant); err != nil {
		return nil, err
	}
	return s.variantRepo.FindByID(ctx, variantID)
}

func (s *panelServiceImpl) DeleteVariant(ctx context.Context, productID, variantID uint) error {
	return s.variantRepo.Delete(ctx, productID, variantID)
}

func (s *panelServiceImpl) AddImage(ctx context.Context, productID uint, in dto.ImageInput) (*model.ProductImage, error) {
	path := strings.TrimSpace(in.Image)
	if path == "" {
		return nil, apperr.Validation("image", "image is required")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	image := &model.ProductImage{
		ProductID: productID,
		Image:     path,
		SortOrder: in.SortOrder,
	}
	if err := s.productRepo.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}
	return image, nil
}

func (s *panelServiceImpl) DeleteImage(ctx context.Context, productID, imageID uint) error {
	return s.productRepo.DeleteImage(ctx, productID, imageID)
}

func (s *panelServiceImpl) Categories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *panelServiceImpl) CreateCategory(ctx context.Context, in dto.CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if len(name) > 100 {
		return nil, apperr.Validation("name", "name is too long")
	}

	category := &model.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.catalogService.InvalidateCache(ctx)
	return category, nil
}

func (s *panelServiceImpl) DeleteCategory(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.categoryRepo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.productRepo.DeleteByCategory(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.catalogService.InvalidateCache(ctx)
	s.logger.Info("category deleted", zap.Uint("category_id", id))
	return nil
}

func (s *panelServiceImpl) Discounts(ctx context.Context) ([]*model.Discount, error) {
	discounts, err := s.discountRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	return discounts, nil
}

func (s *panelServiceImpl) discountFromInput(ctx context.Context, d *model.Discount, in dto.DiscountInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.Validation("name", "name is required")
	}
	scope := model.DiscountScope(in.Scope)
	if !scope.Valid() {
		return apperr.Validation("discount_type", "unknown discount type")
	}

	switch scope {
	case model.DiscountScopeProduct:
		if in.ProductID == nil || in.CategoryID != nil {
			return apperr.Validation("product_id", "a product discount needs a product and no category")
		}
		if _, err := s.productRepo.FindByID(ctx, *in.ProductID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Validation("product_id", "select a valid product")
			}
			return err
		}
	case model.DiscountScopeCategory:
		if in.CategoryID == nil || in.ProductID != nil {
			return apperr.Validation("category_id", "a category discount needs a category and no product")
		}
		if _, err := s.categoryRepo.FindByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Validation("category_id", "select a valid category")
			}
			return err
		}
	case model.DiscountScopeAll:
		if in.ProductID != nil || in.CategoryID != nil {
			return apperr.Validation("discount_type", "a store-wide discount takes no product or category")
		}
	}

	if in.Percent.IsNegative() || in.Percent.GreaterThan(hundred) {
		return apperr.Validation("discount_percent", "percent must be between 0 and 100")
	}
	if in.Amount != nil && in.Amount.IsNegative() {
		return apperr.Validation("discount_amount", "amount cannot be negative")
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		return apperr.Validation("end_date", "end date must be after start date")
	}

	d.Name = name
	d.Scope = scope
	d.ProductID = in.ProductID
	d.CategoryID = in.CategoryID
	d.Percent = in.Percent
	d.Amount = decimal.NullDecimal{}
	if in.Amount != nil {
		d.Amount = decimal.NewNullDecimal(in.Amount.Round(2))
	}
	d.IsActive = in.IsActive
	d.StartsAt = in.StartsAt
	d.EndsAt = in.EndsAt
	return nil
}

func (s *panelServiceImpl) CreateDiscount(ctx context.Context, in dto.DiscountInput) (*model.Discount, error) {
	discount := &model.Discount{}
	if err := s.discountFromInput(ctx, discount, in); err != nil {
		return nil, err
	}
	if err := s.discountRepo.Create(ctx, discount); err != nil {
		return nil, fmt.Errorf("create discount: %w", err)
	}
	s.logger.Info("discount created", zap.Uint("discount_id", discount.ID), zap.String("scope", string(discount.Scope)))
	return discount, nil
}

func (s *panelServiceImpl) UpdateDiscount(ctx context.Context, id uint, in dto.DiscountInput) (*model.Discount, error) {
	discount, err := s.discountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.discountFromInput(ctx, discount, in); err != nil {
		return nil, err
	}
	if err := s.discountRepo.Save(ctx, discount); err != nil {
		return nil, fmt.Errorf("save discount: %w", err)
	}
	return discount, nil
}

func (s *panelServiceImpl) DeleteDiscount(ctx context.Context, id uint) error {
	return s.discountRepo.Delete(ctx, id)
}

func (s *panelServiceImpl) Users(ctx context.Context, q dto.PanelListQuery) (*dto.UserPage, error) {
	users, page, err := s.userRepo.List(ctx, q.Search, parsePage(q.Page), panelUserPageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	resp := &dto.UserPage{Users: make([]dto.UserView, 0, len(users)), Page: page}
	for _, u := range users {
		resp.Users = append(resp.Users, userView(u))
	}
	return resp, nil
}

func (s *panelServiceImpl) UpdateUser(ctx context.Context, id uint, in dto.UserUpdateInput) (*dto.UserView, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	taken, err := s.userRepo.UsernameTaken(ctx, username, user.ID)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, apperr.Validation("username", "a user with that username already exists")
	}

	user.Username = username
	user.Email = email
	user.IsStaff = in.IsStaff
	user.IsActive = in.IsActive
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.Info("user updated by staff",
		zap.Uint("user_id", user.ID),
		zap.Bool("is_staff", user.IsStaff),
		zap.Bool("is_active", user.IsActive),
	)
	view := userView(user)
	return &view, nil
}

func (s *panelServiceImpl) Orders(ctx context.Context, q dto.PanelListQuery) (*dto.OrderPage, error) {
	filter := repository.OrderFilter{
		Query:    q.Search,
		Page:     parsePage(q.Page),
		PageSize: panelOrderPageSize,
	}
	if status := model.OrderStatus(strings.TrimSpace(q.Status)); status.Valid() {
		filter.Status = status
	}

	orders, page, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &dto.OrderPage{Orders: orderViews(orders), Page: page}, nil
}

func (s *panelServiceImpl) Order(ctx context.Context, id uint) (*dto.OrderView, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := orderView(order)
	return &view, nil
}

func (s *panelServiceImpl) SetOrderStatus(ctx context.Context, id uint, in dto.OrderStatusInput) (*dto.OrderView, error) {
	status := model.OrderStatus(strings.TrimSpace(in.Status))
	if !status.Valid() {
		return nil, apperr.Validation("status", "unknown order status")
	}
	if err := s.orderRepo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.logger.Info("order status set by staff", zap.Uint("order_id", id), zap.String("status", string(status)))
	return s.Order(ctx, id)
}

func (s *panelServiceImpl) MarkOrderCompleted(ctx context.Context, id uint) (*dto.OrderView, error) {
	if err := s.orderRepo.MarkCompleted(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("order marked completed", zap.Uint("order_id", id))
	return s.Order(ctx, id)
}

func (s *panelServiceImpl) PaymentMethods(ctx context.Context) ([]*model.PaymentMethod, error) {
	methods, err := s.methodRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return methods, nil
}

func paymentMethodFromInput(m *model.PaymentMethod, in dto.PaymentMethodInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.Validation("name", "name is required")
	}
	kind := model.PaymentMethodKind(strings.TrimSpace(in.Kind))
	if !kind.Valid() {
		return apperr.Validation("kind", "unknown payment method kind")
	}

	m.Name = name
	m.Description = in.Description
	m.Kind = kind
	m.IsActive = in.IsActive
	// credentials are never echoed back, so blank input keeps the stored ones
	if shopID := strings.TrimSpace(in.ShopID); shopID != "" {
		m.ShopID = shopID
	}
	if secret := strings.TrimSpace(in.SecretKey); secret != "" {
		m.SecretKey = secret
	}
	m.BankAccount = strings.TrimSpace(in.BankAccount)

	if kind == model.PaymentKindGateway && m.IsActive && !m.HasGatewayCredentials() {
		return apperr.Validation("shop_id", "an active gateway method needs a shop id and secret key")
	}
	return nil
}

func (s *panelServiceImpl) CreatePaymentMethod(ctx context.Context, in dto.PaymentMethodInput) (*model.PaymentMethod, error) {
	method := &model.PaymentMethod{}
	if err := paymentMethodFromInput(method, in); err != nil {
		return nil, err
	}
	if err := s.methodRepo.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("create payment method: %w", err)
	}
	return method, nil
}

func (s *panelServiceImpl) UpdatePaymentMethod(ctx context.Context, id uint, in dto.PaymentMethodInput) (*model.PaymentMethod, error) {
	method, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := paymentMethodFromInput(method, in); err != nil {
		return nil, err
	}
	if err := s.methodRepo.Save(ctx, method); err != nil {
		return nil, fmt.Errorf("save payment method: %w", err)
	}
	return method, nil
}
