package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitebooks/internal/export"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExpenseRequest struct {
	ProjectID       string          `json:"project_id"`
	BudgetItemID    string          `json:"budget_item_id"`
	Date            string          `json:"date"`
	Type            string          `json:"type" binding:"required"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number"`
	PaidTo          string          `json:"paid_to"`
}

// ExpenseQuery carries the list filters as they arrive from a request.
type ExpenseQuery struct {
	ProjectID    string
	BudgetItemID string
	From         string
	To           string
	Search       string
}

type ExpenseService interface {
	ListExpenses(ctx context.Context, q ExpenseQuery, page, limit int) ([]model.Expense, int64, error)
	AllExpenses(ctx context.Context) ([]model.Expense, error)
	GetExpense(ctx context.Context, id string) (*model.Expense, error)
	CreateExpense(ctx context.Context, actor string, req ExpenseRequest) (*model.Expense, error)
	UpdateExpense(ctx context.Context, actor, id string, req ExpenseRequest) (*model.Expense, error)
	// DeleteExpense also returns withdrawn stock when the expense was a withdrawal.
	DeleteExpense(ctx context.Context, actor, id string) error
	Export(ctx context.Context, q ExpenseQuery) ([]byte, error)
}

type expenseService struct {
	writer
	expenseRepo   repository.ExpenseRepository
	projectRepo   repository.ProjectRepository
	budgetRepo    repository.BudgetRepository
	inventoryRepo repository.InventoryRepository
	stockRepo     repository.StockRepository
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	projectRepo repository.ProjectRepository,
	budgetRepo repository.BudgetRepository,
	inventoryRepo repository.InventoryRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
) ExpenseService {
	return &expenseService{
		writer:        newWriter(txManager, auditRepo, feed),
		expenseRepo:   expenseRepo,
		projectRepo:   projectRepo,
		budgetRepo:    budgetRepo,
		inventoryRepo: inventoryRepo,
		stockRepo:     stockRepo,
	}
}

func (q ExpenseQuery) filter() (repository.ExpenseFilter, error) {
	var f repository.ExpenseFilter
	var err error
	if f.ProjectID, err = parseOptionalID(q.ProjectID, "project"); err != nil {
		return f, err
	}
	if f.BudgetItemID, err = parseOptionalID(q.BudgetItemID, "budget item"); err != nil {
		return f, err
	}
	if f.From, err = parseOptionalDate(q.From); err != nil {
		return f, err
	}
	if f.To, err = parseOptionalDate(q.To); err != nil {
		return f, err
	}
	f.Search = strings.TrimSpace(q.Search)
	return f, nil
}

func (s *expenseService) apply(ctx context.Context, req ExpenseRequest, e *model.Expense) error {
	if strings.TrimSpace(req.Type) == "" {
		return invalid("type is required")
	}
	if !req.Amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	projectID, err := parseOptionalID(req.ProjectID, "project")
	if err != nil {
		return err
	}
	budgetItemID, err := parseOptionalID(req.BudgetItemID, "budget item")
	if err != nil {
		return err
	}
	if projectID != nil {
		if _, err := s.projectRepo.FindByID(ctx, *projectID); err != nil {
			return lookupError(err, "project")
		}
	}
	if budgetItemID != nil {
		item, err := s.budgetRepo.FindByID(ctx, *budgetItemID)
		if err != nil {
			return lookupError(err, "budget item")
		}
		if projectID == nil || item.ProjectID != *projectID {
			return invalid("budget item does not belong to the expense project")
		}
	}

	e.ProjectID = projectID
	e.BudgetItemID = budgetItemID
	e.Date = date
	e.Type = strings.TrimSpace(req.Type)
	e.Description = req.Description
	e.Amount = req.Amount
	e.ReferenceNumber = req.ReferenceNumber
	e.PaidTo = req.PaidTo
	return nil
}

func (s *expenseService) ListExpenses(ctx context.Context, q ExpenseQuery, page, limit int) ([]model.Expense, int64, error) {
	f, err := q.filter()
	if err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)
	return s.expenseRepo.List(ctx, f, page, limit)
}

func (s *expenseService) AllExpenses(ctx context.Context) ([]model.Expense, error) {
	return s.expenseRepo.Find(ctx, repository.ExpenseFilter{})
}

func (s *expenseService) GetExpense(ctx context.Context, id string) (*model.Expense, error) {
	uid, err := parseID(id, "expense")
	if err != nil {
		return nil, err
	}
	e, err := s.expenseRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "expense")
	}
	return e, nil
}

func (s *expenseService) CreateExpense(ctx context.Context, actor string, req ExpenseRequest) (*model.Expense, error) {
	expense := &model.Expense{}
	if err := s.apply(ctx, req, expense); err != nil {
		return nil, err
	}

	err := s.commit(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "expense",
			entityID: expense.ID, entityName: expense.Type, details: req,
		})
	}, PathExpenses, PathBudget)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) UpdateExpense(ctx context.Context, actor, id string, req ExpenseRequest) (*model.Expense, error) {
	expense, err := s.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.WithdrawalItemID != nil {
		return nil, fmt.Errorf("stock withdrawals cannot be edited, delete and withdraw again: %w", ErrProtected)
	}
	if err := s.apply(ctx, req, expense); err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Update(txCtx, expense); err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "expense",
			entityID: expense.ID, entityName: expense.Type, details: req,
		})
	}, PathExpenses, PathBudget)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, actor, id string) error {
	expense, err := s.GetExpense(ctx, id)
	if err != nil {
		return err
	}

	paths := []string{PathExpenses, PathBudget}
	if expense.WithdrawalItemID != nil {
		paths = append(paths, PathInventoryItems)
	}

	return s.commit(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Delete(txCtx, expense.ID); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		if expense.WithdrawalItemID != nil && expense.WithdrawalQuantity != nil {
			if err := s.returnStock(txCtx, expense); err != nil {
				return err
			}
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "expense",
			entityID: expense.ID, entityName: expense.Type,
		})
	}, paths...)
}

func (s *expenseService) returnStock(ctx context.Context, e *model.Expense) error {
	item, err := s.inventoryRepo.FindForUpdate(ctx, *e.WithdrawalItemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The item is gone; there is no stock to return to.
		return nil
	}
	if err != nil {
		return lookupError(err, "inventory item")
	}
	item.Quantity = item.Quantity.Add(*e.WithdrawalQuantity)
	if err := s.inventoryRepo.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to return stock: %w", err)
	}
	return s.stockRepo.Create(ctx, &model.StockTransaction{
		ItemID:          item.ID,
		SourceType:      model.StockSourceWithdrawal,
		SourceID:        e.ID,
		Direction:       model.StockIn,
		QuantityChanged: *e.WithdrawalQuantity,
		StockAfter:      item.Quantity,
	})
}

func (s *expenseService) Export(ctx context.Context, q ExpenseQuery) ([]byte, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.Find(ctx, f)
	if err != nil {
		return nil, err
	}

	sheet := export.Sheet{
		Name: "المصروفات",
		Columns: []export.Column{
			{Header: "التاريخ", Width: 14},
			{Header: "النوع", Width: 28},
			{Header: "الوصف", Width: 36},
			{Header: "المشروع", Width: 24},
			{Header: "بند الميزانية", Width: 20},
			{Header: "المبلغ", Width: 14},
			{Header: "رقم المرجع"},
			{Header: "المدفوع له"},
		},
	}
	total := decimal.Zero
	for _, e := range expenses {
		project, budgetItem := "", ""
		if e.Project != nil {
			project = e.Project.Name
		}
		if e.BudgetItem != nil {
			budgetItem = e.BudgetItem.Name
		}
		sheet.Rows = append(sheet.Rows, []interface{}{
			e.Date, e.Type, e.Description, project, budgetItem, e.Amount, e.ReferenceNumber, e.PaidTo,
		})
		total = total.Add(e.Amount)
	}
	sheet.Rows = append(sheet.Rows, []interface{}{nil, "الإجمالي", nil, nil, nil, total})

	return export.Workbook(sheet)
}
