package repository

import (
	"context"
	"time"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExpenseFilter narrows expense listings. Zero fields do not filter.
type ExpenseFilter struct {
	ProjectID    *uuid.UUID
	BudgetItemID *uuid.UUID
	From         *time.Time
	To           *time.Time
	Search       string
}

type ExpenseRepository interface {
	CRUD[model.Expense]
	List(ctx context.Context, filter ExpenseFilter, page, limit int) ([]model.Expense, int64, error)
	Find(ctx context.Context, filter ExpenseFilter) ([]model.Expense, error)
}

type expenseRepository struct {
	crud[model.Expense]
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{crud[model.Expense]{db: db}}
}

func (r *expenseRepository) filtered(ctx context.Context, filter ExpenseFilter) *gorm.DB {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Expense{})
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.BudgetItemID != nil {
		query = query.Where("budget_item_id = ?", *filter.BudgetItemID)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Search != "" {
		op := like(db)
		query = query.Where("type "+op+" ? OR description "+op+" ? OR paid_to "+op+" ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

func (r *expenseRepository) List(ctx context.Context, filter ExpenseFilter, page, limit int) ([]model.Expense, int64, error) {
	return paginate[model.Expense](r.filtered(ctx, filter), "date DESC, created_at DESC", page, limit, "Project", "BudgetItem")
}

func (r *expenseRepository) Find(ctx context.Context, filter ExpenseFilter) ([]model.Expense, error) {
	var expenses []model.Expense
	if err := r.filtered(ctx, filter).Preload("Project").Preload("BudgetItem").
		Order("date DESC, created_at DESC").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}
