package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CRUD is the common surface of every entity repository.
type CRUD[T any] interface {
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	All(ctx context.Context) ([]T, error)
}

type crud[T any] struct {
	db *gorm.DB
}

func (r crud[T]) Create(ctx context.Context, v *T) error {
	return GetDB(ctx, r.db).Create(v).Error
}

// Update saves v's own columns. Associations are written by their owners.
func (r crud[T]) Update(ctx context.Context, v *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(v).Error
}

// Delete returns gorm.ErrRecordNotFound when no row matched.
func (r crud[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r crud[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var v T
	if err := GetDB(ctx, r.db).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r crud[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	if err := GetDB(ctx, r.db).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// paginate runs a count and a paginated fetch over the same filtered query.
// Preloads apply to the fetch only.
func paginate[T any](query *gorm.DB, order string, page, limit int, preloads ...string) ([]T, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := query.Session(&gorm.Session{})
	for _, p := range preloads {
		fetch = fetch.Preload(p)
	}

	var out []T
	offset := (page - 1) * limit
	if err := fetch.Order(order).Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// like returns a case-insensitive match operator for the connected dialect.
func like(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}
