package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EmployeeRequest struct {
	Name       string          `json:"name" binding:"required"`
	JobTitle   string          `json:"job_title"`
	Phone      string          `json:"phone"`
	NationalID string          `json:"national_id"`
	BaseSalary decimal.Decimal `json:"base_salary"`
	HireDate   string          `json:"hire_date"`
	ProjectID  string          `json:"project_id"`
	Active     *bool           `json:"active"`
}

type SalaryRequest struct {
	EmployeeID string          `json:"employee_id" binding:"required"`
	Period     string          `json:"period" binding:"required"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Allowances decimal.Decimal `json:"allowances"`
	Deductions decimal.Decimal `json:"deductions"`
	PaidAt     string          `json:"paid_at"`
	Notes      string          `json:"notes"`
}

type EmployeeService interface {
	ListEmployees(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Employee, int64, error)
	AllEmployees(ctx context.Context) ([]model.Employee, error)
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	CreateEmployee(ctx context.Context, actor string, req EmployeeRequest) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, actor, id string, req EmployeeRequest) (*model.Employee, error)
	// DeleteEmployee refuses while salary payments exist; deactivate instead.
	DeleteEmployee(ctx context.Context, actor, id string) error
}

type SalaryService interface {
	ListPayments(ctx context.Context, employeeID, period string, page, limit int) ([]model.SalaryPayment, int64, error)
	AllPayments(ctx context.Context) ([]model.SalaryPayment, error)
	GetPayment(ctx context.Context, id string) (*model.SalaryPayment, error)
	CreatePayment(ctx context.Context, actor string, req SalaryRequest) (*model.SalaryPayment, error)
	UpdatePayment(ctx context.Context, actor, id string, req SalaryRequest) (*model.SalaryPayment, error)
	DeletePayment(ctx context.Context, actor, id string) error
}

type employeeService struct {
	writer
	employeeRepo repository.EmployeeRepository
	salaryRepo   repository.SalaryRepository
	projectRepo  repository.ProjectRepository
}

func NewEmployeeService(
	employeeRepo repository.EmployeeRepository,
	salaryRepo repository.SalaryRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
) EmployeeService {
	return &employeeService{
		writer:       newWriter(txManager, auditRepo, feed),
		employeeRepo: employeeRepo,
		salaryRepo:   salaryRepo,
		projectRepo:  projectRepo,
	}
}

func (s *employeeService) apply(ctx context.Context, req EmployeeRequest, e *model.Employee) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if req.BaseSalary.IsNegative() {
		return invalid("base salary cannot be negative")
	}
	hired, err := parseDate(req.HireDate)
	if err != nil {
		return err
	}
	projectID, err := parseOptionalID(req.ProjectID, "project")
	if err != nil {
		return err
	}
	if projectID != nil {
		if _, err := s.projectRepo.FindByID(ctx, *projectID); err != nil {
			return lookupError(err, "project")
		}
	}

	e.Name = strings.TrimSpace(req.Name)
	e.JobTitle = req.JobTitle
	e.Phone = req.Phone
	e.NationalID = req.NationalID
	e.BaseSalary = req.BaseSalary
	e.HireDate = hired
	e.ProjectID = projectID
	if req.Active != nil {
		e.Active = *req.Active
	}
	return nil
}

func (s *employeeService) ListEmployees(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Employee, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.employeeRepo.List(ctx, strings.TrimSpace(search), activeOnly, page, limit)
}

func (s *employeeService) AllEmployees(ctx context.Context) ([]model.Employee, error) {
	return s.employeeRepo.All(ctx)
}

func (s *employeeService) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	uid, err := parseID(id, "employee")
	if err != nil {
		return nil, err
	}
	e, err := s.employeeRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "employee")
	}
	return e, nil
}

func (s *employeeService) CreateEmployee(ctx context.Context, actor string, req EmployeeRequest) (*model.Employee, error) {
	employee := &model.Employee{Active: true}
	if err := s.apply(ctx, req, employee); err != nil {
		return nil, err
	}

	err := s.commit(ctx, func(txCtx context.Context) error {
		if err := s.employeeRepo.Create(txCtx, employee); err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "employee",
			entityID: employee.ID, entityName: employee.Name, details: req,
		})
	}, PathEmployees)
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) UpdateEmployee(ctx context.Context, actor, id string, req EmployeeRequest) (*model.Employee, error) {
	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, req, employee); err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.employeeRepo.Update(txCtx, employee); err != nil {
			return fmt.Errorf("failed to update employee: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "employee",
			entityID: employee.ID, entityName: employee.Name, details: req,
		})
	}, PathEmployees)
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) DeleteEmployee(ctx context.Context, actor, id string) error {
	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	return s.commit(ctx, func(txCtx context.Context) error {
		n, err := s.salaryRepo.CountByEmployee(txCtx, employee.ID)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("employee has %d salary payments: %w", n, ErrProtected)
		}
		if err := s.employeeRepo.Delete(txCtx, employee.ID); err != nil {
			return fmt.Errorf("failed to delete employee: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "employee",
			entityID: employee.ID, entityName: employee.Name,
		})
	}, PathEmployees)
}

type salaryService struct {
	writer
	salaryRepo   repository.SalaryRepository
	employeeRepo repository.EmployeeRepository
}

func NewSalaryService(
	salaryRepo repository.SalaryRepository,
	employeeRepo repository.EmployeeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
) SalaryService {
	return &salaryService{
		writer:       newWriter(txManager, auditRepo, feed),
		salaryRepo:   salaryRepo,
		employeeRepo: employeeRepo,
	}
}

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func (s *salaryService) apply(ctx context.Context, req SalaryRequest, p *model.SalaryPayment) (*model.Employee, error) {
	employeeID, err := parseID(req.EmployeeID, "employee")
	if err != nil {
		return nil, err
	}
	if !periodPattern.MatchString(req.Period) {
		return nil, invalid("period must be YYYY-MM")
	}
	if req.BaseAmount.IsNegative() || req.Allowances.IsNegative() || req.Deductions.IsNegative() {
		return nil, invalid("amounts cannot be negative")
	}
	net := req.BaseAmount.Add(req.Allowances).Sub(req.Deductions)
	if net.IsNegative() {
		return nil, invalid("deductions exceed base and allowances")
	}
	paidAt, err := parseDate(req.PaidAt)
	if err != nil {
		return nil, err
	}
	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, lookupError(err, "employee")
	}

	p.EmployeeID = employeeID
	p.Period = req.Period
	p.BaseAmount = req.BaseAmount
	p.Allowances = req.Allowances
	p.Deductions = req.Deductions
	p.NetAmount = net
	p.PaidAt = paidAt
	p.Notes = req.Notes
	return employee, nil
}

// unique fails with ErrConflict when another payment covers the same
// employee and period.
func (s *salaryService) unique(ctx context.Context, p *model.SalaryPayment) error {
	existing, err := s.salaryRepo.FindByEmployeePeriod(ctx, p.EmployeeID, p.Period)
	if err == nil && existing.ID != p.ID {
		return fmt.Errorf("salary for %s: %w", p.Period, ErrConflict)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (s *salaryService) ListPayments(ctx context.Context, employeeID, period string, page, limit int) ([]model.SalaryPayment, int64, error) {
	eid, err := parseOptionalID(employeeID, "employee")
	if err != nil {
		return nil, 0, err
	}
	if period != "" && !periodPattern.MatchString(period) {
		return nil, 0, invalid("period must be YYYY-MM")
	}
	page, limit = normalizePage(page, limit)
	return s.salaryRepo.List(ctx, eid, period, page, limit)
}

func (s *salaryService) AllPayments(ctx context.Context) ([]model.SalaryPayment, error) {
	return s.salaryRepo.All(ctx)
}

func (s *salaryService) GetPayment(ctx context.Context, id string) (*model.SalaryPayment, error) {
	uid, err := parseID(id, "salary payment")
	if err != nil {
		return nil, err
	}
	p, err := s.salaryRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "salary payment")
	}
	return p, nil
}

func (s *salaryService) CreatePayment(ctx context.Context, actor string, req SalaryRequest) (*model.SalaryPayment, error) {
	payment := &model.SalaryPayment{}
	employee, err := s.apply(ctx, req, payment)
	if err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.unique(txCtx, payment); err != nil {
			return err
		}
		if err := s.salaryRepo.Create(txCtx, payment); err != nil {
			return fmt.Errorf("failed to create salary payment: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "salary",
			entityID: payment.ID, entityName: employee.Name + " " + payment.Period, details: req,
		})
	}, PathSalaries)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *salaryService) UpdatePayment(ctx context.Context, actor, id string, req SalaryRequest) (*model.SalaryPayment, error) {
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	employee, err := s.apply(ctx, req, payment)
	if err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.unique(txCtx, payment); err != nil {
			return err
		}
		if err := s.salaryRepo.Update(txCtx, payment); err != nil {
			return fmt.Errorf("failed to update salary payment: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "salary",
			entityID: payment.ID, entityName: employee.Name + " " + payment.Period, details: req,
		})
	}, PathSalaries)
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *salaryService) DeletePayment(ctx context.Context, actor, id string) error {
	payment, err := s.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	return s.commit(ctx, func(txCtx context.Context) error {
		if err := s.salaryRepo.Delete(txCtx, payment.ID); err != nil {
			return fmt.Errorf("failed to delete salary payment: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "salary",
			entityID: payment.ID, entityName: payment.Period,
		})
	}, PathSalaries)
}
