package repository

import (
	"context"
	"strings"

	"sportzone/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	Save(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	List(ctx context.Context, query string, page, size int) ([]*model.User, Page, error)
	CountCustomers(ctx context.Context) (int64, error)

	GetProfile(ctx context.Context, userID uint) (*model.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *model.UserProfile) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepoImpl) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

func (r *userRepoImpl) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

func (r *userRepoImpl) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error

	return count > 0, err
}

func (r *userRepoImpl) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(email) = ? AND id <> ?", strings.ToLower(email), excludeID).
		Count(&count).Error

	return count > 0, err
}

func (r *userRepoImpl) Save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Model(user).
		Select("username", "email", "is_staff", "is_active", "updated_at").
		Updates(user).Error
}

func (r *userRepoImpl) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

func (r *userRepoImpl) List(ctx context.Context, query string, page, size int) ([]*model.User, Page, error) {
	build := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.User{})
		if strings.TrimSpace(query) != "" {
			p := likePattern(query)
			q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", p, p)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, Page{}, err
	}
	p := NewPage(page, size, total)

	var users []*model.User
	err := build().
		Order("id ASC").
		Scopes(paginate(p)).
		Find(&users).Error
	if err != nil {
		return nil, Page{}, err
	}

	return users, p, nil
}

func (r *userRepoImpl) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("is_staff = ?", false).
		Count(&count).Error
	return count, err
}

func (r *userRepoImpl) GetProfile(ctx context.Context, userID uint) (*model.UserProfile, error) {
	profile := model.UserProfile{UserID: userID}
	err := r.db.WithContext(ctx).
		Where(model.UserProfile{UserID: userID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *userRepoImpl) UpsertProfile(ctx context.Context, profile *model.UserProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"avatar", "updated_at"}),
	}).Create(profile).Error
}
