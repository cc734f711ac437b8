package service

import (
	"context"
	"fmt"
	"strings"

	"sitebooks/internal/model"
	"sitebooks/internal/movement"
	"sitebooks/internal/repository"

	"github.com/shopspring/decimal"
)

// DTOs
type InventoryItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Unit        string          `json:"unit"`
	Category    string          `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	Notes       string          `json:"notes"`
}

type WithdrawRequest struct {
	ProjectID       string          `json:"project_id"`
	BudgetItemID    string          `json:"budget_item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Date            string          `json:"date"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
}

type InventoryService interface {
	ListItems(ctx context.Context, search string, page, limit int) ([]model.InventoryItem, int64, error)
	AllItems(ctx context.Context) ([]model.InventoryItem, error)
	GetItem(ctx context.Context, id string) (*model.InventoryItem, error)
	CreateItem(ctx context.Context, actor string, req InventoryItemRequest) (*model.InventoryItem, error)
	// UpdateItem edits the descriptive fields. Quantity only moves through
	// purchases and withdrawals, so req.Quantity is ignored.
	UpdateItem(ctx context.Context, actor, id string, req InventoryItemRequest) (*model.InventoryItem, error)
	DeleteItem(ctx context.Context, actor, id string) error
	// Withdraw takes stock out for a project and books it as an expense.
	Withdraw(ctx context.Context, actor, id string, req WithdrawRequest) (*model.Expense, error)
	StockCard(ctx context.Context, id string) ([]model.StockTransaction, error)
	LowStock(ctx context.Context) ([]model.InventoryItem, error)
}

type inventoryService struct {
	writer
	inventoryRepo repository.InventoryRepository
	stockRepo     repository.StockRepository
	expenseRepo   repository.ExpenseRepository
	projectRepo   repository.ProjectRepository
	budgetRepo    repository.BudgetRepository
}

func NewInventoryService(
	inventoryRepo repository.InventoryRepository,
	stockRepo repository.StockRepository,
	expenseRepo repository.ExpenseRepository,
	projectRepo repository.ProjectRepository,
	budgetRepo repository.BudgetRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
) InventoryService {
	return &inventoryService{
		writer:        newWriter(txManager, auditRepo, feed),
		inventoryRepo: inventoryRepo,
		stockRepo:     stockRepo,
		expenseRepo:   expenseRepo,
		projectRepo:   projectRepo,
		budgetRepo:    budgetRepo,
	}
}

func (req InventoryItemRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if req.Quantity.IsNegative() || req.UnitCost.IsNegative() || req.MinQuantity.IsNegative() {
		return invalid("quantities and costs cannot be negative")
	}
	return nil
}

func (s *inventoryService) ListItems(ctx context.Context, search string, page, limit int) ([]model.InventoryItem, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.inventoryRepo.List(ctx, strings.TrimSpace(search), page, limit)
}

func (s *inventoryService) AllItems(ctx context.Context) ([]model.InventoryItem, error) {
	return s.inventoryRepo.All(ctx)
}

func (s *inventoryService) GetItem(ctx context.Context, id string) (*model.InventoryItem, error) {
	uid, err := parseID(id, "item")
	if err != nil {
		return nil, err
	}
	item, err := s.inventoryRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "item")
	}
	return item, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, actor string, req InventoryItemRequest) (*model.InventoryItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	item := &model.InventoryItem{
		Name:        strings.TrimSpace(req.Name),
		Unit:        req.Unit,
		Category:    req.Category,
		Quantity:    req.Quantity,
		UnitCost:    req.UnitCost,
		MinQuantity: req.MinQuantity,
		Notes:       req.Notes,
	}

	err := s.commit(ctx, func(txCtx context.Context) error {
		if err := s.inventoryRepo.Create(txCtx, item); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "inventory_item",
			entityID: item.ID, entityName: item.Name, details: req,
		})
	}, PathInventoryItems)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, actor, id string, req InventoryItemRequest) (*model.InventoryItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(req.Name)
	item.Unit = req.Unit
	item.Category = req.Category
	item.UnitCost = req.UnitCost
	item.MinQuantity = req.MinQuantity
	item.Notes = req.Notes

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.inventoryRepo.Update(txCtx, item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "inventory_item",
			entityID: item.ID, entityName: item.Name, details: req,
		})
	}, PathInventoryItems)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, actor, id string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}

	return s.commit(ctx, func(txCtx context.Context) error {
		refs, err := s.inventoryRepo.CountReferences(txCtx, item.ID)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("item has %d movements: %w", refs, ErrProtected)
		}
		if err := s.inventoryRepo.Delete(txCtx, item.ID); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "inventory_item",
			entityID: item.ID, entityName: item.Name,
		})
	}, PathInventoryItems)
}

func (s *inventoryService) Withdraw(ctx context.Context, actor, id string, req WithdrawRequest) (*model.Expense, error) {
	itemID, err := parseID(id, "item")
	if err != nil {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, invalid("quantity must be greater than zero")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	projectID, err := parseOptionalID(req.ProjectID, "project")
	if err != nil {
		return nil, err
	}
	budgetItemID, err := parseOptionalID(req.BudgetItemID, "budget item")
	if err != nil {
		return nil, err
	}
	if projectID != nil {
		if _, err := s.projectRepo.FindByID(ctx, *projectID); err != nil {
			return nil, lookupError(err, "project")
		}
	}
	if budgetItemID != nil {
		b, err := s.budgetRepo.FindByID(ctx, *budgetItemID)
		if err != nil {
			return nil, lookupError(err, "budget item")
		}
		if projectID == nil || b.ProjectID != *projectID {
			return nil, invalid("budget item does not belong to the withdrawal project")
		}
	}

	var expense *model.Expense
	err = s.commit(ctx, func(txCtx context.Context) error {
		item, err := s.inventoryRepo.FindForUpdate(txCtx, itemID)
		if err != nil {
			return lookupError(err, "item")
		}
		if item.Quantity.LessThan(req.Quantity) {
			return fmt.Errorf("%s: available %s %s: %w", item.Name, item.Quantity, item.Unit, ErrInsufficientStock)
		}

		item.Quantity = item.Quantity.Sub(req.Quantity)
		if err := s.inventoryRepo.Update(txCtx, item); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		description := movement.WithdrawalDescription(req.Quantity, item.Unit)
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			description += " - " + notes
		}
		quantity := req.Quantity
		expense = &model.Expense{
			ProjectID:          projectID,
			BudgetItemID:       budgetItemID,
			Date:               date,
			Type:               movement.WithdrawalType(item.Name),
			Description:        description,
			Amount:             req.Quantity.Mul(item.UnitCost),
			ReferenceNumber:    req.ReferenceNumber,
			WithdrawalItemID:   &item.ID,
			WithdrawalQuantity: &quantity,
			WithdrawalUnit:     item.Unit,
		}
		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("failed to record withdrawal expense: %w", err)
		}

		if err := s.stockRepo.Create(txCtx, &model.StockTransaction{
			ItemID:          item.ID,
			SourceType:      model.StockSourceWithdrawal,
			SourceID:        expense.ID,
			Direction:       model.StockOut,
			QuantityChanged: req.Quantity,
			StockAfter:      item.Quantity,
		}); err != nil {
			return fmt.Errorf("failed to write stock card: %w", err)
		}

		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionWithdraw, entityType: "inventory_item",
			entityID: item.ID, entityName: item.Name, details: req,
		})
	}, PathInventoryItems, PathExpenses, PathBudget)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *inventoryService) StockCard(ctx context.Context, id string) ([]model.StockTransaction, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.stockRepo.ListByItem(ctx, item.ID)
}

func (s *inventoryService) LowStock(ctx context.Context) ([]model.InventoryItem, error) {
	return s.inventoryRepo.LowStock(ctx)
}
