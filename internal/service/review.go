package service

import (
	"context"
	"fmt"
	"strings"

	"sportzone/internal/apperr"
	"sportzone/internal/dto"
	"sportzone/internal/model"
	"sportzone/internal/repository"

	"go.uber.org/zap"
)

type ReviewService interface {
	// CanReview holds when the user has a completed order containing the
	// product and has not reviewed it yet.
	CanReview(ctx context.Context, userID, productID uint) (bool, error)
	Submit(ctx context.Context, userID, productID uint, req dto.ReviewRequest) (*model.Review, error)
	ProductsToReview(ctx context.Context, userID uint) ([]*model.Product, error)
}

type reviewServiceImpl struct {
	reviewRepo  repository.ReviewRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	logger *zap.Logger,
) ReviewService {
	return &reviewServiceImpl{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

func (s *reviewServiceImpl) CanReview(ctx context.Context, userID, productID uint) (bool, error) {
	reviewed, err := s.reviewRepo.Exists(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("check existing review: %w", err)
	}
	if reviewed {
		return false, nil
	}

	purchased, err := s.orderRepo.HasCompletedOrderWithProduct(ctx, userID, productID)
	if err != nil {
		return false, fmt.Errorf("check completed orders: %w", err)
	}
	return purchased, nil
}

func (s *reviewServiceImpl) Submit(ctx context.Context, userID, productID uint, req dto.ReviewRequest) (*model.Review, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validation("rating", "rating must be between 1 and 5")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperr.Validation("text", "review text is required")
	}

	ok, err := s.CanReview(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("review not permitted")
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Text:      text,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// a concurrent submission won the unique index
		if repository.IsDuplicate(err) {
			return nil, apperr.Forbidden("review already submitted")
		}
		return nil, fmt.Errorf("store review: %w", err)
	}

	s.logger.Info("review submitted",
		zap.Uint("user_id", userID),
		zap.Uint("product_id", productID),
		zap.Int("rating", req.Rating),
	)
	return review, nil
}

func (s *reviewServiceImpl) ProductsToReview(ctx context.Context, userID uint) ([]*model.Product, error) {
	purchased, err := s.orderRepo.CompletedProductIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed products: %w", err)
	}
	reviewed, err := s.reviewRepo.ReviewedProductIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviewed products: %w", err)
	}

	done := make(map[uint]bool, len(reviewed))
	for _, id := range reviewed {
		done[id] = true
	}
	var pending []uint
	for _, id := range purchased {
		if !done[id] {
			pending = append(pending, id)
		}
	}

	products, err := s.productRepo.FindMany(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("load products to review: %w", err)
	}
	return products, nil
}
