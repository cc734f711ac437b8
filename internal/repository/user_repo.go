package repository

import (
	"context"

	"sitebooks/internal/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	CRUD[model.User]
	FindByCode(ctx context.Context, code string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	Count(ctx context.Context) (int64, error)
	CountActiveAdmins(ctx context.Context) (int64, error)
}

type userRepository struct {
	crud[model.User]
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{crud[model.User]{db: db}}
}

func (r *userRepository) FindByCode(ctx context.Context, code string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Job").First(&user, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	return paginate[model.User](GetDB(ctx, r.db).Model(&model.User{}), "created_at DESC", page, limit, "Job")
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Count(&n).Error
	return n, err
}

func (r *userRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("is_admin = ? AND active = ?", true, true).Count(&n).Error
	return n, err
}
