package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Code    string `json:"code" binding:"required"`
	PIN     string `json:"pin" binding:"required"`
	Name    string `json:"name" binding:"required"`
	IsAdmin bool   `json:"is_admin"`
	JobID   string `json:"job_id"`
}

type UpdateUserRequest struct {
	Code    *string `json:"code"`
	Name    *string `json:"name"`
	IsAdmin *bool   `json:"is_admin"`
	JobID   *string `json:"job_id"` // "" clears the job
	Active  *bool   `json:"active"`
}

type ChangePINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// DTO for returning User without exposing the PIN hash
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	IsAdmin   bool       `json:"is_admin"`
	JobID     *uuid.UUID `json:"job_id"`
	JobName   string     `json:"job_name,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

type UserService interface {
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	AllUsers(ctx context.Context) ([]UserResponse, error)
	GetUser(ctx context.Context, id string) (*UserResponse, error)
	CreateUser(ctx context.Context, actor string, req CreateUserRequest) (*UserResponse, error)
	UpdateUser(ctx context.Context, actor, id string, req UpdateUserRequest) (*UserResponse, error)
	ChangePIN(ctx context.Context, actor, id string, req ChangePINRequest) error
	DeleteUser(ctx context.Context, actor, id string) error
}

type userService struct {
	writer
	userRepo repository.UserRepository
	jobRepo  repository.JobRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	jobRepo repository.JobRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
) UserService {
	return &userService{
		writer:   newWriter(txManager, auditRepo, feed),
		userRepo: userRepo,
		jobRepo:  jobRepo,
	}
}

func toUserResponse(u *model.User) UserResponse {
	res := UserResponse{
		ID:        u.ID,
		Code:      u.Code,
		Name:      u.Name,
		IsAdmin:   u.IsAdmin,
		JobID:     u.JobID,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
	if u.Job != nil {
		res.JobName = u.Job.Name
	}
	return res
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	page, limit = normalizePage(page, limit)
	users, total, err := s.userRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) AllUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.userRepo.All(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, toUserResponse(&users[i]))
	}
	return res, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	uid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) checkCode(ctx context.Context, code string, self uuid.UUID) error {
	existing, err := s.userRepo.FindByCode(ctx, code)
	if err == nil && existing.ID != self {
		return fmt.Errorf("user code %q %w", code, ErrConflict)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (s *userService) resolveJob(ctx context.Context, jobID string) (*uuid.UUID, error) {
	id, err := parseOptionalID(jobID, "job")
	if err != nil || id == nil {
		return nil, err
	}
	if _, err := s.jobRepo.FindByID(ctx, *id); err != nil {
		return nil, lookupError(err, "job")
	}
	return id, nil
}

func (s *userService) CreateUser(ctx context.Context, actor string, req CreateUserRequest) (*UserResponse, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, invalid("code and name are required")
	}
	hashed, err := hashPIN(req.PIN)
	if err != nil {
		return nil, err
	}
	if err := s.checkCode(ctx, code, uuid.Nil); err != nil {
		return nil, err
	}
	jobID, err := s.resolveJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	user := &model.User{Code: code, PINHash: hashed, Name: name, IsAdmin: req.IsAdmin, JobID: jobID, Active: true}
	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "user",
			entityID: user.ID, entityName: user.Name,
			details: map[string]interface{}{"code": code, "is_admin": req.IsAdmin, "job_id": req.JobID},
		})
	}, PathUsers)
	if err != nil {
		return nil, err
	}

	res := toUserResponse(user)
	return &res, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor, id string, req UpdateUserRequest) (*UserResponse, error) {
	uid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "user")
	}

	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if code == "" {
			return nil, invalid("code cannot be empty")
		}
		if err := s.checkCode(ctx, code, user.ID); err != nil {
			return nil, err
		}
		user.Code = code
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, invalid("name cannot be empty")
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.JobID != nil {
		jobID, err := s.resolveJob(ctx, *req.JobID)
		if err != nil {
			return nil, err
		}
		user.JobID = jobID
	}
	demoting := user.IsAdmin && user.Active &&
		((req.IsAdmin != nil && !*req.IsAdmin) || (req.Active != nil && !*req.Active))
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if demoting {
			if err := s.keepOneAdmin(txCtx); err != nil {
				return err
			}
		}
		if err := s.userRepo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "user",
			entityID: user.ID, entityName: user.Name, details: req,
		})
	}, PathUsers)
	if err != nil {
		return nil, err
	}

	res := toUserResponse(user)
	return &res, nil
}

// keepOneAdmin refuses to remove the last active administrator.
func (s *userService) keepOneAdmin(ctx context.Context) error {
	n, err := s.userRepo.CountActiveAdmins(ctx)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if n <= 1 {
		return fmt.Errorf("the last administrator cannot be removed: %w", ErrProtected)
	}
	return nil
}

func (s *userService) ChangePIN(ctx context.Context, actor, id string, req ChangePINRequest) error {
	uid, err := parseID(id, "user")
	if err != nil {
		return err
	}
	hashed, err := hashPIN(req.PIN)
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		return lookupError(err, "user")
	}

	user.PINHash = hashed
	return s.commit(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update PIN: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "user",
			entityID: user.ID, entityName: user.Name, details: map[string]string{"field": "pin"},
		})
	}, PathUsers)
}

func (s *userService) DeleteUser(ctx context.Context, actor, id string) error {
	uid, err := parseID(id, "user")
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		return lookupError(err, "user")
	}
	if actor == user.ID.String() {
		return fmt.Errorf("you cannot delete your own account: %w", ErrProtected)
	}

	return s.commit(ctx, func(txCtx context.Context) error {
		if user.IsAdmin && user.Active {
			if err := s.keepOneAdmin(txCtx); err != nil {
				return err
			}
		}
		if err := s.userRepo.Delete(txCtx, uid); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "user",
			entityID: user.ID, entityName: user.Name,
		})
	}, PathUsers)
}
