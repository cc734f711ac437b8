package service

import (
	"context"
	"fmt"
	"strings"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetItemRequest struct {
	ProjectID     string          `json:"project_id" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Category      string          `json:"category"`
	PlannedAmount decimal.Decimal `json:"planned_amount"`
	Notes         string          `json:"notes"`
}

// BudgetLine compares plan with actual spending for one budget item.
type BudgetLine struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Planned   decimal.Decimal `json:"planned"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

type BudgetReport struct {
	ProjectID uuid.UUID       `json:"project_id"`
	Lines     []BudgetLine    `json:"lines"`
	Planned   decimal.Decimal `json:"planned"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

type BudgetService interface {
	ListItems(ctx context.Context, projectID string) ([]model.BudgetItem, error)
	CreateItem(ctx context.Context, actor string, req BudgetItemRequest) (*model.BudgetItem, error)
	UpdateItem(ctx context.Context, actor, id string, req BudgetItemRequest) (*model.BudgetItem, error)
	DeleteItem(ctx context.Context, actor, id string) error
	Report(ctx context.Context, projectID string) (*BudgetReport, error)
}

type budgetService struct {
	writer
	budgetRepo  repository.BudgetRepository
	projectRepo repository.ProjectRepository
}

func NewBudgetService(
	budgetRepo repository.BudgetRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
) BudgetService {
	return &budgetService{
		writer:      newWriter(txManager, auditRepo, feed),
		budgetRepo:  budgetRepo,
		projectRepo: projectRepo,
	}
}

func (s *budgetService) apply(ctx context.Context, req BudgetItemRequest, item *model.BudgetItem) error {
	projectID, err := parseID(req.ProjectID, "project")
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if req.PlannedAmount.IsNegative() {
		return invalid("planned amount cannot be negative")
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return lookupError(err, "project")
	}

	item.ProjectID = projectID
	item.Name = strings.TrimSpace(req.Name)
	item.Category = req.Category
	item.PlannedAmount = req.PlannedAmount
	item.Notes = req.Notes
	return nil
}

func (s *budgetService) ListItems(ctx context.Context, projectID string) ([]model.BudgetItem, error) {
	pid, err := parseOptionalID(projectID, "project")
	if err != nil {
		return nil, err
	}
	return s.budgetRepo.ListByProject(ctx, pid)
}

func (s *budgetService) CreateItem(ctx context.Context, actor string, req BudgetItemRequest) (*model.BudgetItem, error) {
	item := &model.BudgetItem{}
	if err := s.apply(ctx, req, item); err != nil {
		return nil, err
	}

	err := s.commit(ctx, func(txCtx context.Context) error {
		if err := s.budgetRepo.Create(txCtx, item); err != nil {
			return fmt.Errorf("failed to create budget item: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "budget_item",
			entityID: item.ID, entityName: item.Name, details: req,
		})
	}, PathBudget)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *budgetService) UpdateItem(ctx context.Context, actor, id string, req BudgetItemRequest) (*model.BudgetItem, error) {
	uid, err := parseID(id, "budget item")
	if err != nil {
		return nil, err
	}
	item, err := s.budgetRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "budget item")
	}
	if err := s.apply(ctx, req, item); err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.budgetRepo.Update(txCtx, item); err != nil {
			return fmt.Errorf("failed to update budget item: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "budget_item",
			entityID: item.ID, entityName: item.Name, details: req,
		})
	}, PathBudget)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *budgetService) DeleteItem(ctx context.Context, actor, id string) error {
	uid, err := parseID(id, "budget item")
	if err != nil {
		return err
	}
	item, err := s.budgetRepo.FindByID(ctx, uid)
	if err != nil {
		return lookupError(err, "budget item")
	}

	return s.commit(ctx, func(txCtx context.Context) error {
		if err := s.budgetRepo.Delete(txCtx, uid); err != nil {
			return fmt.Errorf("failed to delete budget item: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "budget_item",
			entityID: item.ID, entityName: item.Name,
		})
	}, PathBudget)
}

func (s *budgetService) Report(ctx context.Context, projectID string) (*BudgetReport, error) {
	pid, err := parseID(projectID, "project")
	if err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.FindByID(ctx, pid); err != nil {
		return nil, lookupError(err, "project")
	}

	items, err := s.budgetRepo.ListByProject(ctx, &pid)
	if err != nil {
		return nil, err
	}
	spent, err := s.budgetRepo.SpentByItem(ctx, pid)
	if err != nil {
		return nil, err
	}

	report := &BudgetReport{ProjectID: pid, Lines: make([]BudgetLine, 0, len(items))}
	for _, it := range items {
		line := BudgetLine{
			ItemID:   it.ID,
			Name:     it.Name,
			Category: it.Category,
			Planned:  it.PlannedAmount,
			Spent:    spent[it.ID],
		}
		line.Remaining = line.Planned.Sub(line.Spent)
		report.Lines = append(report.Lines, line)
		report.Planned = report.Planned.Add(line.Planned)
		report.Spent = report.Spent.Add(line.Spent)
	}
	report.Remaining = report.Planned.Sub(report.Spent)
	return report, nil
}
