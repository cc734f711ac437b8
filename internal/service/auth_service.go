package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"sitebooks/internal/access"
	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	grantsCacheTTL  = 5 * time.Minute
)

var pinPattern = regexp.MustCompile(`^[0-9]{4,12}$`)

type LoginRequest struct {
	Code string `json:"code" binding:"required"`
	PIN  string `json:"pin" binding:"required"`
}

type BootstrapRequest struct {
	Code string `json:"code" binding:"required"`
	PIN  string `json:"pin" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// Session is what a client gets back from a successful sign-in.
type Session struct {
	Token       string        `json:"token,omitempty"`
	ExpiresAt   time.Time     `json:"expires_at,omitempty"`
	User        UserResponse  `json:"user"`
	IsAdmin     bool          `json:"is_admin"`
	Permissions access.Grants `json:"permissions"`
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	// Bootstrap creates the first administrator. It fails once any user exists.
	Bootstrap(ctx context.Context, req BootstrapRequest) (*Session, error)
	Me(ctx context.Context, userID string) (*Session, error)
	ParseToken(token string) (string, error)
	// Principal resolves a user id to the identity checked by access rules.
	Principal(ctx context.Context, userID string) (*access.User, error)
	ClearPermissionCache()
}

// grantsCacheEntry stores cached job grants with TTL
type grantsCacheEntry struct {
	grants    access.Grants
	expiresAt time.Time
}

type authService struct {
	writer
	userRepo repository.UserRepository
	jobRepo  repository.JobRepository
	secret   []byte
	ttl      time.Duration

	grantsCache sync.Map // job id -> grantsCacheEntry
}

func NewAuthService(
	userRepo repository.UserRepository,
	jobRepo repository.JobRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
	secret []byte,
) AuthService {
	return &authService{
		writer:   newWriter(txManager, auditRepo, feed),
		userRepo: userRepo,
		jobRepo:  jobRepo,
		secret:   secret,
		ttl:      DefaultTokenTTL,
	}
}

func hashPIN(pin string) (string, error) {
	if !pinPattern.MatchString(pin) {
		return "", invalid("PIN must be 4 to 12 digits")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("failed to hash PIN")
	}
	return string(hashed), nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.userRepo.FindByCode(ctx, strings.TrimSpace(req.Code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(req.PIN)); err != nil {
		return nil, ErrInvalidCredentials
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		return s.record(txCtx, auditEntry{
			actor:      user.ID.String(),
			action:     model.ActionLogin,
			entityType: "user",
			entityID:   user.ID,
			entityName: user.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, user)
}

func (s *authService) Bootstrap(ctx context.Context, req BootstrapRequest) (*Session, error) {
	hashed, err := hashPIN(req.PIN)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" || strings.TrimSpace(req.Name) == "" {
		return nil, invalid("code and name are required")
	}

	user := &model.User{Code: code, PINHash: hashed, Name: strings.TrimSpace(req.Name), IsAdmin: true, Active: true}
	err = s.commit(ctx, func(txCtx context.Context) error {
		n, err := s.userRepo.Count(txCtx)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("users already exist: %w", ErrProtected)
		}
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor:      user.ID.String(),
			action:     model.ActionCreate,
			entityType: "user",
			entityID:   user.ID,
			entityName: user.Name,
			details:    map[string]interface{}{"code": user.Code, "bootstrap": true},
		})
	}, PathUsers)
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, user)
}

func (s *authService) Me(ctx context.Context, userID string) (*Session, error) {
	uid, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	principal, err := s.principalOf(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Session{User: toUserResponse(user), IsAdmin: principal.IsAdmin, Permissions: principal.Permissions}, nil
}

func (s *authService) issue(ctx context.Context, user *model.User) (*Session, error) {
	principal, err := s.principalOf(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &Session{
		Token:       signed,
		ExpiresAt:   expiresAt,
		User:        toUserResponse(user),
		IsAdmin:     principal.IsAdmin,
		Permissions: principal.Permissions,
	}, nil
}

func (s *authService) ParseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

func (s *authService) Principal(ctx context.Context, userID string) (*access.User, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}
	return s.principalOf(ctx, user)
}

func (s *authService) principalOf(ctx context.Context, user *model.User) (*access.User, error) {
	principal := &access.User{ID: user.ID.String(), Name: user.Name, IsAdmin: user.IsAdmin}
	if user.JobID == nil {
		return principal, nil
	}

	grants, err := s.jobGrants(ctx, *user.JobID)
	if err != nil {
		return nil, err
	}
	principal.Permissions = grants
	return principal, nil
}

// jobGrants returns cached or DB-fetched grants of a job
func (s *authService) jobGrants(ctx context.Context, jobID uuid.UUID) (access.Grants, error) {
	if entry, ok := s.grantsCache.Load(jobID); ok {
		cached := entry.(grantsCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.grants.Clone(), nil
		}
	}

	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A dangling job reference grants nothing.
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.grantsCache.Store(jobID, grantsCacheEntry{
		grants:    job.Permissions.Clone(),
		expiresAt: time.Now().Add(grantsCacheTTL),
	})
	return job.Permissions.Clone(), nil
}

// ClearPermissionCache invalidates all cached job grants (call after job changes)
func (s *authService) ClearPermissionCache() {
	s.grantsCache.Range(func(key, _ interface{}) bool {
		s.grantsCache.Delete(key)
		return true
	})
}
