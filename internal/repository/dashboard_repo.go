package repository

import (
	"context"
	"fmt"

	"sitebooks/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Totals are the headline figures of the dashboard.
type Totals struct {
	Projects       int64           `json:"projects"`
	ActiveProjects int64           `json:"active_projects"`
	Expenses       decimal.Decimal `json:"expenses"`
	Purchases      decimal.Decimal `json:"purchases"`
	Salaries       decimal.Decimal `json:"salaries"`
	ContractValue  decimal.Decimal `json:"contract_value"`
}

type DashboardRepository interface {
	Totals(ctx context.Context) (*Totals, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) Totals(ctx context.Context) (*Totals, error) {
	db := GetDB(ctx, r.db)
	var t Totals

	if err := db.Model(&model.Project{}).Count(&t.Projects).Error; err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	if err := db.Model(&model.Project{}).Where("status = ?", model.ProjectStatusActive).Count(&t.ActiveProjects).Error; err != nil {
		return nil, fmt.Errorf("failed to count active projects: %w", err)
	}

	sums := []struct {
		table  interface{}
		column string
		dest   *decimal.Decimal
	}{
		{&model.Expense{}, "amount", &t.Expenses},
		{&model.PurchaseInvoice{}, "total", &t.Purchases},
		{&model.SalaryPayment{}, "net_amount", &t.Salaries},
		{&model.Project{}, "contract_value", &t.ContractValue},
	}
	for _, s := range sums {
		if err := db.Model(s.table).Select("COALESCE(SUM(" + s.column + "), 0)").Row().Scan(s.dest); err != nil {
			return nil, fmt.Errorf("failed to sum %s: %w", s.column, err)
		}
	}
	return &t, nil
}
