package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sportzone/internal/apperr"
	"sportzone/internal/cart"
	"sportzone/internal/client"
	"sportzone/internal/config"
	"sportzone/internal/dto"
	"sportzone/internal/model"
	"sportzone/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type PaymentService interface {
	// StartPayment returns the gateway confirmation URL for the order. An
	// order that already has one never reaches the gateway again.
	StartPayment(ctx context.Context, order *model.Order, method *model.PaymentMethod) (string, error)
	ResumePayment(ctx context.Context, userID, orderID uint) (string, error)
	// HandleReturn advances the order and clears the cart only once the
	// gateway reports the payment as succeeded.
	HandleReturn(ctx context.Context, userID uint, sess cart.Session, orderID uint, token string) (*dto.OrderView, error)
	HandleNotification(ctx context.Context, body []byte) error
}

type paymentServiceImpl struct {
	db               *gorm.DB
	gatewayClient    client.GatewayClient
	gatewayCfg       config.Gateway
	orderRepo        repository.OrderRepository
	attemptRepo      repository.PaymentAttemptRepository
	webhookEventRepo repository.WebhookEventRepository
	cartService      cart.Service
	group            singleflight.Group
	logger           *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	gatewayClient client.GatewayClient,
	gatewayCfg config.Gateway,
	orderRepo repository.OrderRepository,
	attemptRepo repository.PaymentAttemptRepository,
	webhookEventRepo repository.WebhookEventRepository,
	cartService cart.Service,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		gatewayClient:    gatewayClient,
		gatewayCfg:       gatewayCfg,
		orderRepo:        orderRepo,
		attemptRepo:      attemptRepo,
		webhookEventRepo: webhookEventRepo,
		cartService:      cartService,
		logger:           logger,
	}
}

type returnClaims struct {
	OrderID uint `json:"order_id"`
	UserID  uint `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *paymentServiceImpl) signReturnToken(order *model.Order) (string, error) {
	now := time.Now()
	claims := returnClaims{
		OrderID: order.ID,
		UserID:  order.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.gatewayCfg.ReturnTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.gatewayCfg.ReturnSecret))
}

func (s *paymentServiceImpl) verifyReturnToken(token string) (*returnClaims, error) {
	var claims returnClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.gatewayCfg.ReturnSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

func credentials(method *model.PaymentMethod) client.GatewayCredentials {
	return client.GatewayCredentials{
		ShopID:    method.ShopID,
		SecretKey: method.SecretKey,
	}
}

func (s *paymentServiceImpl) StartPayment(ctx context.Context, order *model.Order, method *model.PaymentMethod) (string, error) {
	if method == nil || method.Kind != model.PaymentKindGateway {
		return "", apperr.Validation("payment_method", "payment method does not use the gateway")
	}

	// concurrent requests for one order share a single gateway call
	v, err, _ := s.group.Do(strconv.FormatUint(uint64(order.ID), 10), func() (interface{}, error) {
		return s.startPayment(ctx, order, method)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *paymentServiceImpl) startPayment(ctx context.Context, order *model.Order, method *model.PaymentMethod) (string, error) {
	existing, err := s.attemptRepo.FindByOrderID(ctx, order.ID)
	if err == nil {
		return existing.ConfirmationURL, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", fmt.Errorf("load payment attempt: %w", err)
	}

	if !method.HasGatewayCredentials() {
		s.logger.Warn("gateway credentials missing",
			zap.Uint("order_id", order.ID),
			zap.Uint("payment_method_id", method.ID),
		)
		return "", &apperr.PaymentError{OrderID: order.ID, Err: apperr.ErrGatewayUnavailable}
	}

	token, err := s.signReturnToken(order)
	if err != nil {
		return "", fmt.Errorf("sign return token: %w", err)
	}

	req := &model.GatewayPaymentRequest{
		Amount: model.GatewayAmount{
			Value:    money(order.TotalPrice),
			Currency: s.gatewayCfg.Currency,
		},
		Confirmation: model.GatewayConfirmation{
			Type:      "redirect",
			ReturnURL: fmt.Sprintf("%s/payment-success/%d?token=%s", s.gatewayCfg.SiteDomain, order.ID, token),
		},
		Capture:     true,
		Description: fmt.Sprintf("Payment for order #%d at %s", order.ID, s.gatewayCfg.ShopName),
		Metadata: map[string]string{
			"order_id": strconv.FormatUint(uint64(order.ID), 10),
		},
	}
	idempotenceKey := uuid.NewString()

	payment, err := s.gatewayClient.CreatePayment(ctx, credentials(method), req, idempotenceKey)
	if err != nil {
		s.logger.Error("gateway payment creation failed",
			zap.Uint("order_id", order.ID),
			zap.Error(err),
		)
		return "", &apperr.PaymentError{
			OrderID: order.ID,
			Err:     fmt.Errorf("%w: %v", apperr.ErrPaymentFailed, err),
		}
	}

	attempt := &model.PaymentAttempt{
		OrderID:          order.ID,
		GatewayPaymentID: payment.ID,
		ConfirmationURL:  payment.Confirmation.ConfirmationURL,
		IdempotenceKey:   idempotenceKey,
		Status:           payment.Status,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		if repository.IsDuplicate(err) {
			if existing, ferr := s.attemptRepo.FindByOrderID(ctx, order.ID); ferr == nil {
				return existing.ConfirmationURL, nil
			}
		}
		return "", fmt.Errorf("store payment attempt: %w", err)
	}

	s.logger.Info("gateway payment created",
		zap.Uint("order_id", order.ID),
		zap.String("payment_id", payment.ID),
	)
	return attempt.ConfirmationURL, nil
}

func (s *paymentServiceImpl) ResumePayment(ctx context.Context, userID, orderID uint) (string, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	if order.Status != model.OrderStatusPendingPayment {
		return "", apperr.Validation("order", "order is not awaiting payment")
	}
	return s.StartPayment(ctx, order, order.PaymentMethod)
}

func (s *paymentServiceImpl) ownedOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("order")
	}
	return order, nil
}

func (s *paymentServiceImpl) HandleReturn(ctx context.Context, userID uint, sess cart.Session, orderID uint, token string) (*dto.OrderView, error) {
	claims, err := s.verifyReturnToken(token)
	if err != nil {
		s.logger.Warn("rejected payment return token", zap.Uint("order_id", orderID), zap.Error(err))
		return nil, apperr.Forbidden("invalid payment return token")
	}
	if claims.OrderID != orderID || claims.UserID != userID {
		return nil, apperr.Forbidden("payment return token does not match order")
	}

	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attemptRepo.FindByOrderID(ctx, order.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("load payment attempt: %w", err)
	}

	status := ""
	if attempt != nil && order.PaymentMethod != nil && order.PaymentMethod.HasGatewayCredentials() {
		payment, err := s.gatewayClient.GetPayment(ctx, credentials(order.PaymentMethod), attempt.GatewayPaymentID)
		if err != nil {
			s.logger.Warn("gateway status check failed", zap.Uint("order_id", order.ID), zap.Error(err))
		} else {
			status = payment.Status
		}
	}
	if status == model.GatewayPaymentCanceled {
		return nil, &apperr.PaymentError{
			OrderID: order.ID,
			Err:     fmt.Errorf("%w: payment was canceled", apperr.ErrPaymentFailed),
		}
	}

	paid := status == model.GatewayPaymentSucceeded
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if attempt != nil && status != "" {
			if err := s.attemptRepo.UpdateStatus(ctx, tx, attempt.ID, status); err != nil {
				return fmt.Errorf("update payment attempt: %w", err)
			}
		}
		if !paid {
			return nil
		}
		if _, err := s.orderRepo.AdvanceStatus(ctx, tx, order.ID, model.OrderStatusPendingPayment, model.OrderStatusProcessing); err != nil {
			return fmt.Errorf("advance order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// an unconfirmed payment stays pending until the gateway notification arrives
	if !paid {
		s.logger.Info("payment return before confirmation",
			zap.Uint("order_id", order.ID),
			zap.String("gateway_status", status),
		)
		view := orderView(order)
		return &view, nil
	}

	if err := s.cartService.Clear(ctx, sess); err != nil {
		s.logger.Warn("clear cart after payment failed", zap.Uint("order_id", order.ID), zap.Error(err))
	}

	order, err = s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	view := orderView(order)
	return &view, nil
}

func (s *paymentServiceImpl) HandleNotification(ctx context.Context, body []byte) error {
	var n model.GatewayNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return apperr.Validation("body", "malformed notification")
	}
	if n.Object.ID == "" || n.Event == "" {
		return apperr.Validation("body", "notification without payment id")
	}

	eventID := n.Event + ":" + n.Object.ID
	seen, err := s.webhookEventRepo.Exists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if seen {
		return nil
	}

	attempt, err := s.attemptRepo.FindByGatewayPaymentID(ctx, n.Object.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.logger.Warn("notification for unknown payment", zap.String("payment_id", n.Object.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load payment attempt: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, attempt.OrderID)
	if err != nil {
		return err
	}
	if order.PaymentMethod == nil || !order.PaymentMethod.HasGatewayCredentials() {
		return &apperr.PaymentError{OrderID: order.ID, Err: apperr.ErrGatewayUnavailable}
	}

	// the notification body is untrusted; the gateway's own record decides
	payment, err := s.gatewayClient.GetPayment(ctx, credentials(order.PaymentMethod), attempt.GatewayPaymentID)
	if err != nil {
		return &apperr.PaymentError{
			OrderID: order.ID,
			Err:     fmt.Errorf("%w: %v", apperr.ErrGatewayUnavailable, err),
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.attemptRepo.UpdateStatus(ctx, tx, attempt.ID, payment.Status); err != nil {
			return fmt.Errorf("update payment attempt: %w", err)
		}
		if payment.Status == model.GatewayPaymentSucceeded {
			if _, err := s.orderRepo.AdvanceStatus(ctx, tx, order.ID, model.OrderStatusPendingPayment, model.OrderStatusProcessing); err != nil {
				return fmt.Errorf("advance order status: %w", err)
			}
		}
		return s.webhookEventRepo.MarkProcessed(ctx, tx, eventID, n.Event)
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil
		}
		return err
	}

	s.logger.Info("gateway notification processed",
		zap.String("event", n.Event),
		zap.Uint("order_id", order.ID),
		zap.String("payment_status", payment.Status),
	)
	return nil
}
