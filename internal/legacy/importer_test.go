package legacy

import (
	"context"
	"encoding/json"
	"testing"

	"sitebooks/internal/database"
	"sitebooks/internal/model"
	"sitebooks/internal/movement"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mapReader serves raw JSON per node, the way the realtime database returns it.
type mapReader map[string]string

func (m mapReader) Get(_ context.Context, path string, v interface{}) error {
	raw, ok := m[path]
	if !ok {
		raw = "null"
	}
	return json.Unmarshal([]byte(raw), v)
}

var fixture = mapReader{
	NodeProjects: `{
		"-Pb": {"name": "فيلا الرياض", "status": "مكتمل", "contractValue": "250,000", "startDate": "2023-01-15"},
		"-Pa": {"name": "برج", "status": "active", "contractValue": 1000000, "endDate": "2024-12-31"}
	}`,
	NodeSuppliers: `{"-S1": {"name": "مورد الحديد", "phone": "0100"}}`,
	NodeCustomers: `{"-C1": {"name": "شركة البناء"}, "-C2": {"name": ""}}`,
	NodeInventory: `{
		"-I1": {"name": "أسمنت", "unit": "كيس", "quantity": 40, "unitCost": "12.5", "minQuantity": 10},
		"-I2": {"name": "حديد", "unit": "طن", "quantity": "3"}
	}`,
	NodeEmployees: `{
		"-E1": {"name": "أحمد", "salary": "3,500", "projectId": "-Pa", "active": false},
		"-E2": {"name": "سعيد", "hireDate": "2022-05-01"}
	}`,
	NodePurchases: `{
		"-U1": {"date": "2024-02-01", "invoiceNumber": "INV-1", "supplierId": "-S1",
			"items": [null, {"itemId": "-I1", "quantity": 10, "unitPrice": 12}, {"itemId": "-I2", "quantity": 2, "total": "900"}]},
		"-U2": {"date": "2024-02-03", "purchaseType": "direct", "projectId": "-Pb",
			"items": {"1": {"description": "رمل", "quantity": 1, "total": 50}}}
	}`,
	NodeExpenses: `{
		"-X1": {"date": "2024-03-01", "type": "نقل", "amount": "1,250.75", "projectId": "-Pa", "paidTo": "سائق"},
		"-X2": {"date": "2024-03-02", "type": "صرف مخزون: أسمنت", "description": "صرف كمية (5 كيس)", "amount": 62.5, "projectId": "-Pa"},
		"-X3": {"date": "not a date", "type": "صرف مخزون: رخام", "description": "", "amount": 0, "projectId": "-missing"}
	}`,
}

type harness struct {
	db        *gorm.DB
	importer  *Importer
	projects  repository.ProjectRepository
	partners  repository.PartnerRepository
	inventory repository.InventoryRepository
	employees repository.EmployeeRepository
	purchases repository.PurchaseRepository
	expenses  repository.ExpenseRepository
	audit     repository.AuditRepository
}

func newHarness(t *testing.T, reader Reader) *harness {
	t.Helper()
	db, err := database.NewConnection("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	h := &harness{
		db:        db,
		projects:  repository.NewProjectRepository(db),
		partners:  repository.NewPartnerRepository(db),
		inventory: repository.NewInventoryRepository(db),
		employees: repository.NewEmployeeRepository(db),
		purchases: repository.NewPurchaseRepository(db),
		expenses:  repository.NewExpenseRepository(db),
		audit:     repository.NewAuditRepository(db),
	}
	h.importer = NewImporter(reader, repository.NewTransactionManager(db),
		h.projects, h.partners, h.inventory, h.employees, h.purchases, h.expenses, h.audit, zap.NewNop())
	return h
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestImport(t *testing.T) {
	h := newHarness(t, fixture)
	ctx := context.Background()

	counts, err := h.importer.Import(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, Counts{
		Projects: 2, Customers: 2, Suppliers: 1, Items: 2, Employees: 2,
		Purchases: 2, Expenses: 3, Withdrawals: 2,
	}, *counts)

	projects, err := h.projects.All(ctx)
	require.NoError(t, err)
	byName := map[string]model.Project{}
	for _, p := range projects {
		byName[p.Name] = p
	}
	require.Len(t, byName, 2)
	villa := byName["فيلا الرياض"]
	assert.Equal(t, model.ProjectStatusCompleted, villa.Status)
	assert.True(t, dec("250000").Equal(villa.ContractValue))
	assert.Equal(t, 2023, villa.StartDate.Year())
	tower := byName["برج"]
	assert.Equal(t, model.ProjectStatusActive, tower.Status)
	require.NotNil(t, tower.EndDate)

	partners, err := h.partners.All(ctx)
	require.NoError(t, err)
	var supplier model.Partner
	names := map[string]string{}
	for _, p := range partners {
		names[p.Name] = p.Kind
		if p.Kind == model.PartnerKindSupplier {
			supplier = p
		}
	}
	assert.Equal(t, model.PartnerKindCustomer, names["-C2"], "blank names fall back to the push id")

	items, err := h.inventory.All(ctx)
	require.NoError(t, err)
	itemIDs := map[string]uuid.UUID{}
	for _, it := range items {
		itemIDs[it.Name] = it.ID
		if it.Name == "أسمنت" {
			assert.True(t, dec("40").Equal(it.Quantity), "stock is taken as recorded")
			assert.True(t, dec("12.5").Equal(it.UnitCost))
		}
	}

	employees, err := h.employees.All(ctx)
	require.NoError(t, err)
	for _, e := range employees {
		switch e.Name {
		case "أحمد":
			assert.False(t, e.Active)
			assert.True(t, dec("3500").Equal(e.BaseSalary))
			require.NotNil(t, e.ProjectID)
			assert.Equal(t, tower.ID, *e.ProjectID)
		case "سعيد":
			assert.True(t, e.Active)
			assert.Nil(t, e.ProjectID)
		}
	}

	invoices, err := h.purchases.All(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	for _, inv := range invoices {
		switch inv.InvoiceNumber {
		case "INV-1":
			assert.Equal(t, model.PurchaseTypeInventory, inv.PurchaseType)
			require.NotNil(t, inv.SupplierID)
			assert.Equal(t, supplier.ID, *inv.SupplierID)
			require.Len(t, inv.Items, 2)
			assert.True(t, dec("1020").Equal(inv.Total), inv.Total.String())
			for _, line := range inv.Items {
				require.NotNil(t, line.ItemID)
				if *line.ItemID == itemIDs["حديد"] {
					assert.True(t, dec("450").Equal(line.UnitPrice))
				} else {
					assert.True(t, dec("120").Equal(line.Total))
				}
			}
		default:
			assert.Equal(t, model.PurchaseTypeDirect, inv.PurchaseType)
			require.NotNil(t, inv.ProjectID)
			assert.Equal(t, villa.ID, *inv.ProjectID)
			require.Len(t, inv.Items, 1)
			assert.True(t, dec("50").Equal(inv.Items[0].UnitPrice))
		}
	}

	expenses, err := h.expenses.All(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 3)
	for _, e := range expenses {
		switch {
		case e.Type == "نقل":
			assert.True(t, dec("1250.75").Equal(e.Amount))
			assert.Nil(t, e.WithdrawalItemID)
			assert.Nil(t, e.WithdrawalQuantity)
		case e.Type == movement.WithdrawalType("أسمنت"):
			require.NotNil(t, e.WithdrawalItemID)
			assert.Equal(t, itemIDs["أسمنت"], *e.WithdrawalItemID)
			require.NotNil(t, e.WithdrawalQuantity)
			assert.True(t, dec("5").Equal(*e.WithdrawalQuantity))
			assert.Equal(t, "كيس", e.WithdrawalUnit)
		default:
			assert.Nil(t, e.WithdrawalItemID, "unknown items stay unlinked")
			assert.Nil(t, e.ProjectID)
			assert.True(t, e.Date.IsZero())
		}
	}

	logs, err := h.audit.All(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionImport, logs[0].Action)
}

func TestImportDryRunWritesNothing(t *testing.T) {
	h := newHarness(t, fixture)
	ctx := context.Background()

	counts, err := h.importer.Import(ctx, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Expenses)

	projects, err := h.projects.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
	logs, err := h.audit.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestImportEmptyTree(t *testing.T) {
	h := newHarness(t, mapReader{})

	counts, err := h.importer.Import(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, Counts{}, *counts)
}

func TestImportRejectsBadAmount(t *testing.T) {
	h := newHarness(t, mapReader{NodeExpenses: `{"-X": {"type": "t", "amount": "abc"}}`})

	_, err := h.importer.Import(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), NodeExpenses)
}

func TestAmountUnmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`12`, "12"},
		{`"1,234.5"`, "1234.5"},
		{`""`, "0"},
		{`null`, "0"},
	}
	for _, tt := range tests {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &a), tt.raw)
		assert.True(t, dec(tt.want).Equal(a.Decimal), tt.raw)
	}
}

func TestLinesKeyedByIndex(t *testing.T) {
	raw := `{"10": {"description": "k"}, "2": {"description": "c"}, "x": {"description": "z"}, "1": {"description": "b"}}`
	var lines Lines
	require.NoError(t, json.Unmarshal([]byte(raw), &lines))

	var got []string
	for _, l := range lines {
		got = append(got, l.Description)
	}
	assert.Equal(t, []string{"b", "c", "k", "z"}, got)
}

func TestParseDate(t *testing.T) {
	d, ok := parseDate("2024-03-09")
	require.True(t, ok)
	assert.Equal(t, 9, d.Day())

	_, ok = parseDate("2024-03-09T10:30:00Z")
	assert.True(t, ok)

	_, ok = parseDate("09-03-2024")
	assert.False(t, ok)
}
