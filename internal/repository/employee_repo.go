package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmployeeRepository interface {
	CRUD[model.Employee]
	List(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Employee, int64, error)
}

type employeeRepository struct {
	crud[model.Employee]
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{crud[model.Employee]{db: db}}
}

func (r *employeeRepository) List(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Employee, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.Employee{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if search != "" {
		op := like(db)
		query = query.Where("name "+op+" ? OR job_title "+op+" ?", "%"+search+"%", "%"+search+"%")
	}
	return paginate[model.Employee](query, "name ASC", page, limit)
}

type SalaryRepository interface {
	CRUD[model.SalaryPayment]
	FindByEmployeePeriod(ctx context.Context, employeeID uuid.UUID, period string) (*model.SalaryPayment, error)
	List(ctx context.Context, employeeID *uuid.UUID, period string, page, limit int) ([]model.SalaryPayment, int64, error)
	CountByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error)
}

type salaryRepository struct {
	crud[model.SalaryPayment]
}

func NewSalaryRepository(db *gorm.DB) SalaryRepository {
	return &salaryRepository{crud[model.SalaryPayment]{db: db}}
}

func (r *salaryRepository) FindByEmployeePeriod(ctx context.Context, employeeID uuid.UUID, period string) (*model.SalaryPayment, error) {
	var p model.SalaryPayment
	if err := GetDB(ctx, r.db).Where("employee_id = ? AND period = ?", employeeID, period).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *salaryRepository) List(ctx context.Context, employeeID *uuid.UUID, period string, page, limit int) ([]model.SalaryPayment, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.SalaryPayment{})
	if employeeID != nil {
		query = query.Where("employee_id = ?", *employeeID)
	}
	if period != "" {
		query = query.Where("period = ?", period)
	}
	return paginate[model.SalaryPayment](query, "period DESC, created_at DESC", page, limit, "Employee")
}

func (r *salaryRepository) CountByEmployee(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.SalaryPayment{}).Where("employee_id = ?", employeeID).Count(&n).Error
	return n, err
}
