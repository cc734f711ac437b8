package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	CRUD[model.Project]
	List(ctx context.Context, status, search string, page, limit int) ([]model.Project, int64, error)
	// CountReferences counts rows of other collections pointing at the project.
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type projectRepository struct {
	crud[model.Project]
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{crud[model.Project]{db: db}}
}

func (r *projectRepository) List(ctx context.Context, status, search string, page, limit int) ([]model.Project, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		op := like(db)
		query = query.Where("name "+op+" ? OR client_name "+op+" ? OR location "+op+" ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}
	return paginate[model.Project](query, "created_at DESC", page, limit)
}

func (r *projectRepository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	db := GetDB(ctx, r.db)
	var total int64
	for _, m := range []interface{}{&model.Expense{}, &model.BudgetItem{}, &model.PurchaseInvoice{}} {
		var n int64
		if err := db.Model(m).Where("project_id = ?", id).Count(&n).Error; err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
