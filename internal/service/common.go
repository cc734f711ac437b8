package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel errors. Handlers map them to HTTP status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid code or PIN")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrUnbalancedEntry    = errors.New("journal entry is not balanced")
	ErrProtected          = errors.New("record is protected")
)

// Collection paths. They double as permission scopes and live snapshot paths.
const (
	PathDashboard      = "/dashboard"
	PathProjects       = "/projects"
	PathBudget         = "/budget"
	PathExpenses       = "/expenses"
	PathInventory      = "/inventory"
	PathInventoryItems = "/inventory/items"
	PathMovements      = "/inventory/movements"
	PathPurchases      = "/purchases"
	PathJournal        = "/journal"
	PathEmployees      = "/employees"
	PathSalaries       = "/salaries"
	PathCustomers      = "/customers"
	PathSuppliers      = "/suppliers"
	PathAuditLog       = "/audit-log"
	PathUsers          = "/users"
	PathJobs           = "/jobs"
	PathSettings       = "/settings"
)

// ChangeFeed is told about every committed change.
type ChangeFeed interface {
	Touch(ctx context.Context, path string)
}

type nopFeed struct{}

func (nopFeed) Touch(context.Context, string) {}

// writer bundles what every mutating service needs: a transaction, an audit
// trail written inside it and change announcements after commit.
type writer struct {
	txManager repository.TransactionManager
	auditRepo repository.AuditRepository
	feed      ChangeFeed
}

func newWriter(txManager repository.TransactionManager, auditRepo repository.AuditRepository, feed ChangeFeed) writer {
	if feed == nil {
		feed = nopFeed{}
	}
	return writer{txManager: txManager, auditRepo: auditRepo, feed: feed}
}

// commit runs fn in a transaction and touches paths once it is committed.
// The audit log and the dashboard change with every commit.
func (w writer) commit(ctx context.Context, fn func(txCtx context.Context) error, paths ...string) error {
	if err := w.txManager.RunInTx(ctx, fn); err != nil {
		return err
	}
	for _, p := range paths {
		w.feed.Touch(ctx, p)
	}
	w.feed.Touch(ctx, PathAuditLog)
	w.feed.Touch(ctx, PathDashboard)
	return nil
}

type auditEntry struct {
	actor      string
	action     string
	entityType string
	entityID   uuid.UUID
	entityName string
	details    interface{}
}

func (w writer) record(ctx context.Context, e auditEntry) error {
	details := ""
	if e.details != nil {
		raw, err := json.Marshal(e.details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = string(raw)
	}

	entry := &model.AuditLog{
		UserID:     actorID(e.actor),
		Action:     e.action,
		EntityType: e.entityType,
		EntityName: e.entityName,
		Details:    details,
	}
	if e.entityID != uuid.Nil {
		entry.EntityID = e.entityID.String()
	}
	if err := w.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func actorID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func parseID(id, what string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, invalid("invalid %s id", what)
	}
	return uid, nil
}

// parseOptionalID treats an empty string as "no reference".
func parseOptionalID(id, what string) (*uuid.UUID, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	uid, err := parseID(id, what)
	if err != nil {
		return nil, err
	}
	return &uid, nil
}

// lookupError turns a repository error into ErrNotFound when no row matched.
func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("database error: %w", err)
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04"}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty means now.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid("invalid date %q", s)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}
