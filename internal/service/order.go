package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sportzone/internal/apperr"
	"sportzone/internal/cart"
	"sportzone/internal/dto"
	"sportzone/internal/model"
	"sportzone/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxIdempotencyKeyLength = 64

type OrderService interface {
	Cart(ctx context.Context, sess cart.Session) (*dto.CartResponse, error)
	CheckoutForm(ctx context.Context, sess cart.Session) (*dto.CheckoutFormResponse, error)
	// Checkout turns the session cart into a pending order. Resubmitting the
	// same idempotency key returns the order created by the first submission.
	Checkout(ctx context.Context, userID uint, sess cart.Session, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	PaymentInstructions(ctx context.Context, userID, orderID uint) (*dto.PaymentInstructions, error)
	// ConfirmPayment records the buyer's "paid by reference" claim for a
	// pending reference order.
	ConfirmPayment(ctx context.Context, userID uint, sess cart.Session, orderID uint) (*dto.OrderView, error)
	UserOrders(ctx context.Context, userID uint) ([]dto.OrderView, error)
	OrderDetail(ctx context.Context, userID, orderID uint) (*dto.OrderView, error)
}

type orderServiceImpl struct {
	db             *gorm.DB
	orderRepo      repository.OrderRepository
	methodRepo     repository.PaymentMethodRepository
	variants       cart.VariantLookup
	cartService    cart.Service
	paymentService PaymentService
	logger         *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	methodRepo repository.PaymentMethodRepository,
	variants cart.VariantLookup,
	cartService cart.Service,
	paymentService PaymentService,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		db:             db,
		orderRepo:      orderRepo,
		methodRepo:     methodRepo,
		variants:       variants,
		cartService:    cartService,
		paymentService: paymentService,
		logger:         logger,
	}
}

func (s *orderServiceImpl) Cart(ctx context.Context, sess cart.Session) (*dto.CartResponse, error) {
	lines, err := s.cartService.Lines(ctx, sess)
	if err != nil {
		return nil, err
	}
	resp := cartResponse(lines)
	return &resp, nil
}

func (s *orderServiceImpl) CheckoutForm(ctx context.Context, sess cart.Session) (*dto.CheckoutFormResponse, error) {
	lines, err := s.cartService.Lines(ctx, sess)
	if err != nil {
		return nil, err
	}
	methods, err := s.methodRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return &dto.CheckoutFormResponse{
		Cart:           cartResponse(lines),
		PaymentMethods: paymentMethodViews(methods),
	}, nil
}

func validateCheckout(req *dto.CheckoutRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Address = strings.TrimSpace(req.Address)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	switch {
	case req.FullName == "":
		return apperr.Validation("full_name", "full name is required")
	case len(req.FullName) > 200:
		return apperr.Validation("full_name", "full name is too long")
	case req.Address == "":
		return apperr.Validation("address", "address is required")
	case req.PaymentMethodID == 0:
		return apperr.Validation("payment_method_id", "select a payment method")
	case len(req.IdempotencyKey) > maxIdempotencyKeyLength:
		return apperr.Validation("idempotency_key", "idempotency key is too long")
	}
	return nil
}

func (s *orderServiceImpl) activeMethod(ctx context.Context, id uint) (*model.PaymentMethod, error) {
	method, err := s.methodRepo.FindByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && !method.IsActive) {
		return nil, apperr.Validation("payment_method_id", "select a valid payment method")
	}
	if err != nil {
		return nil, fmt.Errorf("load payment method: %w", err)
	}
	return method, nil
}

func (s *orderServiceImpl) Checkout(ctx context.Context, userID uint, sess cart.Session, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if err := validateCheckout(&req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		order, err := s.orderRepo.FindByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err == nil {
			return s.replay(ctx, order)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	method, err := s.activeMethod(ctx, req.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	items, err := s.cartService.Items(ctx, sess)
	if err != nil {
		return nil, err
	}
	if items.Empty() {
		return nil, apperr.Validation("cart", "cart is empty")
	}
	lines, err := cart.Resolve(ctx, s.variants, items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:          userID,
		TotalPrice:      cart.Sum(lines),
		Status:          model.OrderStatusPendingPayment,
		PaymentMethodID: &method.ID,
		FullName:        req.FullName,
		Address:         req.Address,
	}
	if req.IdempotencyKey != "" {
		order.IdempotencyKey = &req.IdempotencyKey
	}

	orderItems := make([]*model.OrderItem, 0, len(lines))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		for _, l := range lines {
			orderItems = append(orderItems, &model.OrderItem{
				OrderID:          order.ID,
				ProductVariantID: l.Variant.ID,
				Quantity:         l.Quantity,
				Price:            l.UnitPrice,
			})
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		return nil
	})
	if err != nil {
		// a concurrent submission with the same key committed first
		if req.IdempotencyKey != "" && repository.IsDuplicate(err) {
			existing, ferr := s.orderRepo.FindByIdempotencyKey(ctx, userID, req.IdempotencyKey)
			if ferr == nil {
				return s.replay(ctx, existing)
			}
		}
		return nil, err
	}

	order.PaymentMethod = method
	order.Items = make([]model.OrderItem, 0, len(orderItems))
	for i, item := range orderItems {
		item.ProductVariant = lines[i].Variant
		order.Items = append(order.Items, *item)
	}

	s.logger.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", userID),
		zap.String("payment_kind", string(method.Kind)),
		zap.String("total", money(order.TotalPrice)),
	)

	resp := &dto.CheckoutResponse{Order: orderView(order)}
	switch method.Kind {
	case model.PaymentKindGateway:
		url, err := s.paymentService.StartPayment(ctx, order, method)
		if err != nil {
			return nil, err
		}
		resp.Next = dto.NextPayment
		resp.RedirectURL = url
	case model.PaymentKindReference:
		resp.Next = dto.NextInstructions
		resp.Instructions = instructions(order, method)
	default:
		if err := s.cartService.Clear(ctx, sess); err != nil {
			s.logger.Warn("clear cart after checkout failed", zap.Uint("order_id", order.ID), zap.Error(err))
		}
		resp.Next = dto.NextConfirmation
	}
	return resp, nil
}

// replay rebuilds the checkout response for an order that already exists.
// It never clears the cart again.
func (s *orderServiceImpl) replay(ctx context.Context, order *model.Order) (*dto.CheckoutResponse, error) {
	resp := &dto.CheckoutResponse{Order: orderView(order), Next: dto.NextConfirmation}
	method := order.PaymentMethod
	if method == nil || order.Status != model.OrderStatusPendingPayment {
		return resp, nil
	}

	switch method.Kind {
	case model.PaymentKindGateway:
		url, err := s.paymentService.StartPayment(ctx, order, method)
		if err != nil {
			return nil, err
		}
		resp.Next = dto.NextPayment
		resp.RedirectURL = url
	case model.PaymentKindReference:
		resp.Next = dto.NextInstructions
		resp.Instructions = instructions(order, method)
	}
	return resp, nil
}

func instructions(order *model.Order, method *model.PaymentMethod) *dto.PaymentInstructions {
	return &dto.PaymentInstructions{
		OrderID:     order.ID,
		Amount:      money(order.TotalPrice),
		Method:      method.Name,
		Description: method.Description,
		BankAccount: method.BankAccount,
	}
}

func (s *orderServiceImpl) ownedOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("order")
	}
	return order, nil
}

func (s *orderServiceImpl) PaymentInstructions(ctx context.Context, userID, orderID uint) (*dto.PaymentInstructions, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPendingPayment {
		return nil, apperr.Validation("order", "order is not awaiting payment")
	}
	if order.PaymentMethod == nil || order.PaymentMethod.Kind != model.PaymentKindReference {
		return nil, apperr.Validation("order", "order is not paid by reference")
	}
	return instructions(order, order.PaymentMethod), nil
}

func (s *orderServiceImpl) ConfirmPayment(ctx context.Context, userID uint, sess cart.Session, orderID uint) (*dto.OrderView, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	// gateway payments are confirmed by the gateway, never by the buyer
	if order.PaymentMethod == nil || order.PaymentMethod.Kind != model.PaymentKindReference {
		return nil, apperr.Validation("order", "order is not paid by reference")
	}

	var moved bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err = s.orderRepo.AdvanceStatus(ctx, tx, order.ID, model.OrderStatusPendingPayment, model.OrderStatusProcessing)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	if !moved {
		return nil, apperr.Validation("order", "payment cannot be confirmed for this order")
	}

	if err := s.cartService.Clear(ctx, sess); err != nil {
		s.logger.Warn("clear cart after confirmation failed", zap.Uint("order_id", order.ID), zap.Error(err))
	}
	s.logger.Info("payment confirmed by customer", zap.Uint("order_id", order.ID), zap.Uint("user_id", userID))

	order.Status = model.OrderStatusProcessing
	view := orderView(order)
	return &view, nil
}

func (s *orderServiceImpl) UserOrders(ctx context.Context, userID uint) ([]dto.OrderView, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orderViews(orders), nil
}

func (s *orderServiceImpl) OrderDetail(ctx context.Context, userID, orderID uint) (*dto.OrderView, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	view := orderView(order)
	return &view, nil
}
