package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"sportzone/internal/apperr"
	"sportzone/internal/dto"
	"sportzone/internal/model"
	"sportzone/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	allDigits       = regexp.MustCompile(`^\d+$`)
	validate        = validator.New()
)

var errBadCredentials = fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthenticated)

type AccountService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*model.User, error)
	// Login rejects unknown users, wrong passwords and deactivated accounts
	// with the same error.
	Login(ctx context.Context, req dto.LoginRequest) (*model.User, error)
	CurrentUser(ctx context.Context, userID uint) (*model.User, error)
	Profile(ctx context.Context, userID uint) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uint, req dto.ProfileUpdateRequest) (*dto.UserView, error)
	ChangePassword(ctx context.Context, userID uint, req dto.ChangePasswordRequest) error
}

type accountServiceImpl struct {
	userRepo      repository.UserRepository
	orderRepo     repository.OrderRepository
	discountRepo  repository.DiscountRepository
	reviewService ReviewService
	logger        *zap.Logger
}

func NewAccountService(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	discountRepo repository.DiscountRepository,
	reviewService ReviewService,
	logger *zap.Logger,
) AccountService {
	return &accountServiceImpl{
		userRepo:      userRepo,
		orderRepo:     orderRepo,
		discountRepo:  discountRepo,
		reviewService: reviewService,
		logger:        logger,
	}
}

func validateUsername(username string) error {
	switch {
	case username == "":
		return apperr.Validation("username", "username is required")
	case utf8.RuneCountInString(username) > 150:
		return apperr.Validation("username", "username is too long")
	case !usernamePattern.MatchString(username):
		return apperr.Validation("username", "username may contain only letters, digits and @/./+/-/_")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if err := validate.Var(email, "email,max=254"); err != nil {
		return apperr.Validation("email", "enter a valid email address")
	}
	return nil
}

func validatePassword(field, password, confirm, username string) error {
	switch {
	case password != confirm:
		return apperr.Validation(field, "passwords do not match")
	case utf8.RuneCountInString(password) < minPasswordLength:
		return apperr.Validation(field, fmt.Sprintf("password must contain at least %d characters", minPasswordLength))
	case allDigits.MatchString(password):
		return apperr.Validation(field, "password cannot be entirely numeric")
	case strings.EqualFold(password, username):
		return apperr.Validation(field, "password is too similar to the username")
	}
	return nil
}

func (s *accountServiceImpl) checkUnique(ctx context.Context, username, email string, excludeID uint) error {
	taken, err := s.userRepo.UsernameTaken(ctx, username, excludeID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return apperr.Validation("username", "a user with that username already exists")
	}
	if email == "" {
		return nil
	}
	taken, err = s.userRepo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return apperr.Validation("email", "a user with that email already exists")
	}
	return nil
}

func (s *accountServiceImpl) Signup(ctx context.Context, req dto.SignupRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword("password2", req.Password1, req.Password2, username); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, username, email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Validation("username", "a user with that username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user signed up", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *accountServiceImpl) Login(ctx context.Context, req dto.LoginRequest) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errBadCredentials
	}
	if !user.IsActive {
		s.logger.Info("login by inactive user rejected", zap.Uint("user_id", user.ID))
		return nil, errBadCredentials
	}
	return user, nil
}

func (s *accountServiceImpl) CurrentUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && !user.IsActive) {
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountServiceImpl) Profile(ctx context.Context, userID uint) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	toReview, err := s.reviewService.ProductsToReview(ctx, userID)
	if err != nil {
		return nil, err
	}
	discounts, err := s.discountRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}

	now := time.Now()
	resp := &dto.ProfileResponse{
		User:             userView(user),
		Avatar:           profile.Avatar,
		Orders:           orderViews(orders),
		ProductsToReview: make([]dto.ProductCard, 0, len(toReview)),
	}
	for _, p := range toReview {
		resp.ProductsToReview = append(resp.ProductsToReview, productCard(p, nil, discounts, now))
	}
	return resp, nil
}

func (s *accountServiceImpl) UpdateProfile(ctx context.Context, userID uint, req dto.ProfileUpdateRequest) (*dto.UserView, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, username, email, user.ID); err != nil {
		return nil, err
	}

	user.Username = username
	user.Email = email
	if err := s.userRepo.Save(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Validation("username", "a user with that username already exists")
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	if avatar := strings.TrimSpace(req.Avatar); avatar != "" {
		if err := s.userRepo.UpsertProfile(ctx, &model.UserProfile{UserID: user.ID, Avatar: avatar}); err != nil {
			return nil, fmt.Errorf("save profile: %w", err)
		}
	}

	view := userView(user)
	return &view, nil
}

func (s *accountServiceImpl) ChangePassword(ctx context.Context, userID uint, req dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		return apperr.Validation("old_password", "your old password was entered incorrectly")
	}
	if err := validatePassword("new_password2", req.NewPassword1, req.NewPassword2, user.Username); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword1), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password changed", zap.Uint("user_id", user.ID))
	return nil
}
