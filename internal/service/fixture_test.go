package service

import (
	"context"
	"sync"
	"testing"

	"sitebooks/internal/database"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingFeed struct {
	mu    sync.Mutex
	paths []string
	all   int
}

func (f *recordingFeed) Touch(_ context.Context, path string) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
}

func (f *recordingFeed) TouchAll(context.Context) {
	f.mu.Lock()
	f.all++
	f.mu.Unlock()
}

func (f *recordingFeed) touched(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.paths {
		if p == path {
			return true
		}
	}
	return false
}

func (f *recordingFeed) reset() {
	f.mu.Lock()
	f.paths = nil
	f.mu.Unlock()
}

type fixture struct {
	db   *gorm.DB
	feed ChangeFeed
	rec  *recordingFeed

	txm       repository.TransactionManager
	audits    repository.AuditRepository
	projects  repository.ProjectRepository
	inventory repository.InventoryRepository
	stock     repository.StockRepository
	expenses  repository.ExpenseRepository
	budgets   repository.BudgetRepository
	users     repository.UserRepository
	jobs      repository.JobRepository
	partners  repository.PartnerRepository
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewConnection("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// newFixture builds the repositories over a fresh in-memory store. feed is
// where services announce changes; nil records them.
func newFixture(t *testing.T, feed ChangeFeed) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:        db,
		rec:       &recordingFeed{},
		txm:       repository.NewTransactionManager(db),
		audits:    repository.NewAuditRepository(db),
		projects:  repository.NewProjectRepository(db),
		inventory: repository.NewInventoryRepository(db),
		stock:     repository.NewStockRepository(db),
		expenses:  repository.NewExpenseRepository(db),
		budgets:   repository.NewBudgetRepository(db),
		users:     repository.NewUserRepository(db),
		jobs:      repository.NewJobRepository(db),
		partners:  repository.NewPartnerRepository(db),
	}
	f.feed = feed
	if feed == nil {
		f.feed = f.rec
	}
	return f
}

func (f *fixture) projectService() ProjectService {
	return NewProjectService(f.projects, f.audits, f.txm, f.feed)
}

func (f *fixture) expenseService() ExpenseService {
	return NewExpenseService(f.expenses, f.projects, f.budgets, f.inventory, f.stock, f.audits, f.txm, f.feed)
}

func (f *fixture) inventoryService() InventoryService {
	return NewInventoryService(f.inventory, f.stock, f.expenses, f.projects, f.budgets, f.audits, f.txm, f.feed)
}

func (f *fixture) purchaseService() PurchaseService {
	return NewPurchaseService(repository.NewPurchaseRepository(f.db), f.inventory, f.stock, f.partners, f.projects, f.audits, f.txm, f.feed)
}

func (f *fixture) partnerService() PartnerService {
	return NewPartnerService(f.partners, f.audits, f.txm, f.feed)
}

func (f *fixture) budgetService() BudgetService {
	return NewBudgetService(f.budgets, f.projects, f.audits, f.txm, f.feed)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
