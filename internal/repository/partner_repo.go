package repository

import (
	"context"

	"sitebooks/internal/model"

	"gorm.io/gorm"
)

type PartnerRepository interface {
	CRUD[model.Partner]
	List(ctx context.Context, kind, search string, page, limit int) ([]model.Partner, int64, error)
	AllByKind(ctx context.Context, kind string) ([]model.Partner, error)
}

type partnerRepository struct {
	crud[model.Partner]
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{crud[model.Partner]{db: db}}
}

func (r *partnerRepository) List(ctx context.Context, kind, search string, page, limit int) ([]model.Partner, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Partner{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if search != "" {
		op := like(db)
		query = query.Where("name "+op+" ? OR phone "+op+" ? OR email "+op+" ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}
	return paginate[model.Partner](query, "created_at DESC", page, limit)
}

func (r *partnerRepository) AllByKind(ctx context.Context, kind string) ([]model.Partner, error) {
	var partners []model.Partner
	if err := GetDB(ctx, r.db).Where("kind = ?", kind).Order("name ASC").Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}
