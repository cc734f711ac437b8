package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitebooks/internal/access"
	"sitebooks/internal/database"
	"sitebooks/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRunInTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	txm := NewTransactionManager(db)
	projects := NewProjectRepository(db)

	boom := errors.New("boom")
	err := txm.RunInTx(ctx, func(txCtx context.Context) error {
		require.True(t, InTx(txCtx))
		require.NoError(t, projects.Create(txCtx, &model.Project{Name: "برج", Status: model.ProjectStatusActive}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := projects.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRunInTxNested(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	txm := NewTransactionManager(db)
	projects := NewProjectRepository(db)

	err := txm.RunInTx(ctx, func(outer context.Context) error {
		return txm.RunInTx(outer, func(inner context.Context) error {
			return projects.Create(inner, &model.Project{Name: "A", Status: model.ProjectStatusActive})
		})
	})
	require.NoError(t, err)

	all, err := projects.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewPartnerRepository(db)

	p := &model.Partner{Kind: model.PartnerKindSupplier, Name: "مورد الحديد"}
	require.NoError(t, repo.Create(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	p.Phone = "0100"
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "0100", got.Phone)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), gorm.ErrRecordNotFound)

	_, err = repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPartnerListFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewPartnerRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.Partner{Kind: model.PartnerKindCustomer, Name: "customer"}))
	}
	require.NoError(t, repo.Create(ctx, &model.Partner{Kind: model.PartnerKindSupplier, Name: "steel supplier"}))

	list, total, err := repo.List(ctx, model.PartnerKindCustomer, "", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 2)

	list, total, err = repo.List(ctx, "", "STEEL", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, model.PartnerKindSupplier, list[0].Kind)
}

func TestJobPermissionsPersist(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewJobRepository(db)

	job := &model.Job{Name: "محاسب", Permissions: access.Grants{
		"/expenses": {View: true, Create: true},
	}}
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.FindByName(ctx, "محاسب")
	require.NoError(t, err)
	assert.Equal(t, access.PermissionEntry{View: true, Create: true}, got.Permissions["/expenses"])
}

func TestBudgetSpentByItem(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	projects := NewProjectRepository(db)
	budgets := NewBudgetRepository(db)
	expenses := NewExpenseRepository(db)

	project := &model.Project{Name: "فيلا", Status: model.ProjectStatusActive}
	require.NoError(t, projects.Create(ctx, project))
	item := &model.BudgetItem{ProjectID: project.ID, Name: "خرسانة", PlannedAmount: dec("1000")}
	require.NoError(t, budgets.Create(ctx, item))

	for _, amount := range []string{"100.5", "200"} {
		require.NoError(t, expenses.Create(ctx, &model.Expense{
			ProjectID: &project.ID, BudgetItemID: &item.ID, Date: time.Now(), Type: "مواد", Amount: dec(amount),
		}))
	}
	require.NoError(t, expenses.Create(ctx, &model.Expense{ProjectID: &project.ID, Date: time.Now(), Type: "نقل", Amount: dec("50")}))

	spent, err := budgets.SpentByItem(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, spent, 1)
	assert.True(t, dec("300.5").Equal(spent[item.ID]), spent[item.ID].String())

	refs, err := projects.CountReferences(ctx, project.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, refs)
}

func TestJournalTrialBalance(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewJournalRepository(db)

	require.NoError(t, repo.Create(ctx, &model.JournalEntry{Date: time.Now(), Lines: []model.JournalLine{
		{Account: "الصندوق", Debit: dec("500")},
		{Account: "رأس المال", Credit: dec("500")},
	}}))
	entry := &model.JournalEntry{Date: time.Now(), Lines: []model.JournalLine{
		{Account: "المصروفات", Debit: dec("120")},
		{Account: "الصندوق", Credit: dec("120")},
	}}
	require.NoError(t, repo.Create(ctx, entry))

	rows, err := repo.TrialBalance(ctx)
	require.NoError(t, err)
	byAccount := map[string]AccountBalance{}
	for _, r := range rows {
		byAccount[r.Account] = r
	}
	require.Len(t, byAccount, 3)
	assert.True(t, dec("500").Equal(byAccount["الصندوق"].Debit))
	assert.True(t, dec("120").Equal(byAccount["الصندوق"].Credit))

	entry.Lines = []model.JournalLine{
		{Account: "المصروفات", Debit: dec("80")},
		{Account: "الصندوق", Credit: dec("80")},
	}
	require.NoError(t, repo.Replace(ctx, entry))
	got, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)

	require.NoError(t, repo.Delete(ctx, entry.ID))
	rows, err = repo.TrialBalance(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestResetKeepsUsersAndJobs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	jobs := NewJobRepository(db)
	users := NewUserRepository(db)
	projects := NewProjectRepository(db)
	partners := NewPartnerRepository(db)
	inventory := NewInventoryRepository(db)
	audit := NewAuditRepository(db)

	job := &model.Job{Name: "مشرف"}
	require.NoError(t, jobs.Create(ctx, job))
	require.NoError(t, users.Create(ctx, &model.User{Code: "1", PINHash: "x", Name: "admin", IsAdmin: true, Active: true, JobID: &job.ID}))
	require.NoError(t, projects.Create(ctx, &model.Project{Name: "P", Status: model.ProjectStatusActive}))
	require.NoError(t, partners.Create(ctx, &model.Partner{Kind: model.PartnerKindCustomer, Name: "C"}))
	require.NoError(t, inventory.Create(ctx, &model.InventoryItem{Name: "حديد", Unit: "طن"}))
	require.NoError(t, audit.Log(ctx, &model.AuditLog{Action: model.ActionCreate, EntityType: "project"}))

	err := NewTransactionManager(db).RunInTx(ctx, func(txCtx context.Context) error {
		return NewDataRepository(db).Reset(txCtx)
	})
	require.NoError(t, err)

	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	allJobs, err := jobs.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, allJobs, 1)

	allProjects, err := projects.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, allProjects)
	allPartners, err := partners.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, allPartners)
	allItems, err := inventory.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, allItems)
	logs, err := audit.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestDashboardTotals(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	totals, err := NewDashboardRepository(db).Totals(ctx)
	require.NoError(t, err)
	assert.True(t, totals.Expenses.IsZero())

	projects := NewProjectRepository(db)
	require.NoError(t, projects.Create(ctx, &model.Project{Name: "A", Status: model.ProjectStatusActive, ContractValue: dec("1000")}))
	require.NoError(t, projects.Create(ctx, &model.Project{Name: "B", Status: model.ProjectStatusCompleted}))
	require.NoError(t, NewExpenseRepository(db).Create(ctx, &model.Expense{Date: time.Now(), Type: "x", Amount: dec("75.25")}))

	totals, err = NewDashboardRepository(db).Totals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, totals.Projects)
	assert.EqualValues(t, 1, totals.ActiveProjects)
	assert.True(t, dec("75.25").Equal(totals.Expenses))
	assert.True(t, dec("1000").Equal(totals.ContractValue))
}
