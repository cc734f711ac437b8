package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitebooks/internal/access"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type JobRequest struct {
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description"`
	Permissions access.Grants `json:"permissions"`
}

// PermissionCache is dropped whenever job grants change.
type PermissionCache interface {
	ClearPermissionCache()
}

// --- Interface ---

type JobService interface {
	ListJobs(ctx context.Context) ([]model.Job, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	CreateJob(ctx context.Context, actor string, req JobRequest) (*model.Job, error)
	UpdateJob(ctx context.Context, actor, id string, req JobRequest) (*model.Job, error)
	DeleteJob(ctx context.Context, actor, id string) error
	SeedDefaultJobs(ctx context.Context) error
}

type jobService struct {
	writer
	jobRepo repository.JobRepository
	cache   PermissionCache
}

func NewJobService(
	jobRepo repository.JobRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
	cache PermissionCache,
) JobService {
	return &jobService{
		writer:  newWriter(txManager, auditRepo, feed),
		jobRepo: jobRepo,
		cache:   cache,
	}
}

func validateGrants(grants access.Grants) error {
	for path := range grants {
		if !strings.HasPrefix(path, "/") {
			return invalid("permission path %q must start with /", path)
		}
	}
	return nil
}

func (s *jobService) ListJobs(ctx context.Context) ([]model.Job, error) {
	return s.jobRepo.ListAll(ctx)
}

func (s *jobService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	uid, err := parseID(id, "job")
	if err != nil {
		return nil, err
	}
	job, err := s.jobRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "job")
	}
	return job, nil
}

func (s *jobService) checkName(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.jobRepo.FindByName(ctx, name)
	if err == nil && existing.ID != self {
		return fmt.Errorf("job %q %w", name, ErrConflict)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (s *jobService) CreateJob(ctx context.Context, actor string, req JobRequest) (*model.Job, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if err := validateGrants(req.Permissions); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	job := &model.Job{Name: name, Description: req.Description, Permissions: req.Permissions.Clone()}
	err := s.commit(ctx, func(txCtx context.Context) error {
		if err := s.jobRepo.Create(txCtx, job); err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "job",
			entityID: job.ID, entityName: job.Name, details: req,
		})
	}, PathJobs)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) UpdateJob(ctx context.Context, actor, id string, req JobRequest) (*model.Job, error) {
	uid, err := parseID(id, "job")
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if err := validateGrants(req.Permissions); err != nil {
		return nil, err
	}
	job, err := s.jobRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "job")
	}
	if err := s.checkName(ctx, name, job.ID); err != nil {
		return nil, err
	}

	job.Name = name
	job.Description = req.Description
	job.Permissions = req.Permissions.Clone()

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.jobRepo.Update(txCtx, job); err != nil {
			return fmt.Errorf("failed to update job: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "job",
			entityID: job.ID, entityName: job.Name, details: req,
		})
	}, PathJobs)
	if err != nil {
		return nil, err
	}

	s.cache.ClearPermissionCache()
	return job, nil
}

func (s *jobService) DeleteJob(ctx context.Context, actor, id string) error {
	uid, err := parseID(id, "job")
	if err != nil {
		return err
	}
	job, err := s.jobRepo.FindByID(ctx, uid)
	if err != nil {
		return lookupError(err, "job")
	}
	if job.IsSystem {
		return fmt.Errorf("system job cannot be deleted: %w", ErrProtected)
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		n, err := s.jobRepo.CountUsers(txCtx, uid)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("job is assigned to %d users: %w", n, ErrProtected)
		}
		if err := s.jobRepo.Delete(txCtx, uid); err != nil {
			return fmt.Errorf("failed to delete job: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "job",
			entityID: job.ID, entityName: job.Name,
		})
	}, PathJobs)
	if err != nil {
		return err
	}

	s.cache.ClearPermissionCache()
	return nil
}

// SeedDefaultJobs creates the built-in jobs if they are not already present
func (s *jobService) SeedDefaultJobs(ctx context.Context) error {
	view := access.PermissionEntry{View: true, Print: true}
	write := access.PermissionEntry{View: true, Create: true, Edit: true, Print: true}

	defaults := []model.Job{
		{
			Name:        "محاسب",
			Description: "الحسابات والمصروفات والمشتريات",
			IsSystem:    true,
			Permissions: access.Grants{
				PathProjects:  view,
				PathExpenses:  write,
				PathBudget:    write,
				PathPurchases: write,
				PathJournal:   write,
				PathSalaries:  write,
				PathCustomers: write,
				PathSuppliers: write,
			},
		},
		{
			Name:        "أمين مخزن",
			Description: "المخزون وحركاته",
			IsSystem:    true,
			Permissions: access.Grants{
				PathInventory: write,
				PathPurchases: view,
			},
		},
		{
			Name:        "مهندس موقع",
			Description: "متابعة المشاريع",
			IsSystem:    true,
			Permissions: access.Grants{
				PathProjects:  view,
				PathBudget:    view,
				PathMovements: view,
			},
		},
	}

	for i := range defaults {
		job := &defaults[i]
		if _, err := s.jobRepo.FindByName(ctx, job.Name); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up job '%s': %w", job.Name, err)
		}
		if err := s.jobRepo.Create(ctx, job); err != nil {
			return fmt.Errorf("failed to seed job '%s': %w", job.Name, err)
		}
	}
	return nil
}
