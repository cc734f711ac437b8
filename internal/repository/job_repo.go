package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobRepository interface {
	CRUD[model.Job]
	FindByName(ctx context.Context, name string) (*model.Job, error)
	ListAll(ctx context.Context) ([]model.Job, error)
	CountUsers(ctx context.Context, jobID uuid.UUID) (int64, error)
}

type jobRepository struct {
	crud[model.Job]
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{crud[model.Job]{db: db}}
}

func (r *jobRepository) FindByName(ctx context.Context, name string) (*model.Job, error) {
	var job model.Job
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) ListAll(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	if err := GetDB(ctx, r.db).Order("created_at asc").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) CountUsers(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("job_id = ?", jobID).Count(&n).Error
	return n, err
}
