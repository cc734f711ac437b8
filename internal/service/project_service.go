package service

import (
	"context"
	"fmt"
	"strings"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/shopspring/decimal"
)

type ProjectRequest struct {
	Name          string          `json:"name" binding:"required"`
	Location      string          `json:"location"`
	ClientName    string          `json:"client_name"`
	ContractValue decimal.Decimal `json:"contract_value"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes"`
}

type ProjectService interface {
	ListProjects(ctx context.Context, status, search string, page, limit int) ([]model.Project, int64, error)
	AllProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	CreateProject(ctx context.Context, actor string, req ProjectRequest) (*model.Project, error)
	UpdateProject(ctx context.Context, actor, id string, req ProjectRequest) (*model.Project, error)
	// DeleteProject refuses while other records still reference the project.
	DeleteProject(ctx context.Context, actor, id string) error
}

type projectService struct {
	writer
	projectRepo repository.ProjectRepository
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
) ProjectService {
	return &projectService{
		writer:      newWriter(txManager, auditRepo, feed),
		projectRepo: projectRepo,
	}
}

var validProjectStatuses = map[string]bool{
	model.ProjectStatusActive:    true,
	model.ProjectStatusCompleted: true,
	model.ProjectStatusSuspended: true,
}

func (req ProjectRequest) apply(p *model.Project) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	status := req.Status
	if status == "" {
		status = model.ProjectStatusActive
	}
	if !validProjectStatuses[status] {
		return invalid("status must be one of: active, completed, suspended")
	}
	if req.ContractValue.IsNegative() {
		return invalid("contract value cannot be negative")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return err
	}
	if end != nil && end.Before(start) {
		return invalid("end date is before start date")
	}

	p.Name = strings.TrimSpace(req.Name)
	p.Location = req.Location
	p.ClientName = req.ClientName
	p.ContractValue = req.ContractValue
	p.StartDate = start
	p.EndDate = end
	p.Status = status
	p.Notes = req.Notes
	return nil
}

func (s *projectService) ListProjects(ctx context.Context, status, search string, page, limit int) ([]model.Project, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.projectRepo.List(ctx, status, search, page, limit)
}

func (s *projectService) AllProjects(ctx context.Context) ([]model.Project, error) {
	return s.projectRepo.All(ctx)
}

func (s *projectService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	uid, err := parseID(id, "project")
	if err != nil {
		return nil, err
	}
	p, err := s.projectRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "project")
	}
	return p, nil
}

func (s *projectService) CreateProject(ctx context.Context, actor string, req ProjectRequest) (*model.Project, error) {
	project := &model.Project{}
	if err := req.apply(project); err != nil {
		return nil, err
	}

	err := s.commit(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Create(txCtx, project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "project",
			entityID: project.ID, entityName: project.Name, details: req,
		})
	}, PathProjects)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) UpdateProject(ctx context.Context, actor, id string, req ProjectRequest) (*model.Project, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.apply(project); err != nil {
		return nil, err
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Update(txCtx, project); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "project",
			entityID: project.ID, entityName: project.Name, details: req,
		})
	}, PathProjects)
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) DeleteProject(ctx context.Context, actor, id string) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}

	return s.commit(ctx, func(txCtx context.Context) error {
		refs, err := s.projectRepo.CountReferences(txCtx, project.ID)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("project is referenced by %d records: %w", refs, ErrProtected)
		}
		if err := s.projectRepo.Delete(txCtx, project.ID); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "project",
			entityID: project.ID, entityName: project.Name,
		})
	}, PathProjects)
}
