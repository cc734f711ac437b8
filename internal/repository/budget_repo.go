package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BudgetRepository interface {
	CRUD[model.BudgetItem]
	ListByProject(ctx context.Context, projectID *uuid.UUID) ([]model.BudgetItem, error)
	// SpentByItem sums the project's expenses per budget item.
	SpentByItem(ctx context.Context, projectID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type budgetRepository struct {
	crud[model.BudgetItem]
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{crud[model.BudgetItem]{db: db}}
}

func (r *budgetRepository) ListByProject(ctx context.Context, projectID *uuid.UUID) ([]model.BudgetItem, error) {
	var items []model.BudgetItem
	query := GetDB(ctx, r.db).Preload("Project")
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	if err := query.Order("created_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *budgetRepository) SpentByItem(ctx context.Context, projectID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		BudgetItemID uuid.UUID
		Spent        decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Model(&model.Expense{}).
		Select("budget_item_id, COALESCE(SUM(amount), 0) AS spent").
		Where("project_id = ? AND budget_item_id IS NOT NULL", projectID).
		Group("budget_item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.BudgetItemID] = row.Spent
	}
	return out, nil
}
