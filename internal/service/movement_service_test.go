package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"sitebooks/internal/model"
	"sitebooks/internal/movement"
	"sitebooks/internal/realtime"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMovementServiceFollowsSources(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop(), nil)
	f := newFixture(t, hub)
	ctx := context.Background()

	projects := f.projectService()
	inventory := f.inventoryService()
	purchases := f.purchaseService()
	expenses := f.expenseService()
	Collections{
		Projects:  projects,
		Expenses:  expenses,
		Inventory: inventory,
		Purchases: purchases,
	}.Register(hub)

	project, err := projects.CreateProject(ctx, "", ProjectRequest{Name: "جسر"})
	require.NoError(t, err)
	item, err := inventory.CreateItem(ctx, "", InventoryItemRequest{Name: "أسمنت", Unit: "كيس"})
	require.NoError(t, err)

	movements := NewMovementService(hub, f.inventory, f.projects, zap.NewNop())
	require.NoError(t, movements.Start(ctx))
	defer movements.Stop()

	var (
		mu     sync.Mutex
		latest []movement.Movement
	)
	sub, err := hub.Subscribe(ctx, PathMovements, func(s realtime.Snapshot) {
		mu.Lock()
		latest = s.Data.([]movement.Movement)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Close()

	_, err = purchases.CreatePurchase(ctx, "", PurchaseRequest{
		Date:          "2024-03-01",
		InvoiceNumber: "P-1",
		PurchaseType:  model.PurchaseTypeInventory,
		Items:         []PurchaseLineRequest{{ItemID: item.ID.String(), Quantity: dec("20"), UnitPrice: dec("5")}},
	})
	require.NoError(t, err)
	_, err = inventory.Withdraw(ctx, "", item.ID.String(), WithdrawRequest{
		ProjectID: project.ID.String(), Quantity: dec("5"), Date: "2024-03-05",
	})
	require.NoError(t, err)
	_, err = expenses.CreateExpense(ctx, "", ExpenseRequest{Type: "نقل", Amount: dec("9")})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 2
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	withdrawal, purchase := latest[0], latest[1]
	assert.Equal(t, movement.KindWithdrawal, withdrawal.Kind)
	assert.Equal(t, "أسمنت", withdrawal.ItemName)
	assert.Equal(t, "جسر", withdrawal.CounterpartyName)
	assert.True(t, dec("5").Equal(withdrawal.Quantity))
	assert.True(t, dec("25").Equal(withdrawal.Cost), withdrawal.Cost.String())

	assert.Equal(t, movement.KindPurchase, purchase.Kind)
	assert.Equal(t, "أسمنت", purchase.ItemName)
	assert.Equal(t, "كيس", purchase.Unit)
	assert.True(t, dec("100").Equal(purchase.Cost))

	assert.Len(t, movements.Movements(ctx), 2)
	data, err := movements.Export(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestMovementServiceResolvesRecordsCreatedAfterStart(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop(), nil)
	f := newFixture(t, hub)
	ctx := context.Background()

	projects := f.projectService()
	inventory := f.inventoryService()
	purchases := f.purchaseService()
	Collections{
		Projects:  projects,
		Expenses:  f.expenseService(),
		Inventory: inventory,
		Purchases: purchases,
	}.Register(hub)

	movements := NewMovementService(hub, f.inventory, f.projects, zap.NewNop())
	require.NoError(t, movements.Start(ctx))
	defer movements.Stop()

	project, err := projects.CreateProject(ctx, "", ProjectRequest{Name: "جسر"})
	require.NoError(t, err)
	item, err := inventory.CreateItem(ctx, "", InventoryItemRequest{Name: "أسمنت", Unit: "كيس"})
	require.NoError(t, err)
	_, err = purchases.CreatePurchase(ctx, "", PurchaseRequest{
		Date:          "2024-03-01",
		InvoiceNumber: "P-7",
		PurchaseType:  model.PurchaseTypeInventory,
		Items:         []PurchaseLineRequest{{ItemID: item.ID.String(), Quantity: dec("10"), UnitPrice: dec("4")}},
	})
	require.NoError(t, err)
	_, err = inventory.Withdraw(ctx, "", item.ID.String(), WithdrawRequest{
		ProjectID: project.ID.String(), Quantity: dec("2"), Date: "2024-03-02",
	})
	require.NoError(t, err)

	resolved := func(ms []movement.Movement) bool {
		if len(ms) != 2 {
			return false
		}
		for _, m := range ms {
			if m.ItemName != "أسمنت" || m.Unit != "كيس" {
				return false
			}
			if m.Kind == movement.KindWithdrawal && m.CounterpartyName != "جسر" {
				return false
			}
		}
		return true
	}

	require.Eventually(t, func() bool {
		return resolved(movements.Movements(ctx))
	}, 5*time.Second, 10*time.Millisecond)

	// A subscriber opening the view now gets the names in its first snapshot.
	var (
		mu     sync.Mutex
		latest []movement.Movement
	)
	sub, err := hub.Subscribe(ctx, PathMovements, func(s realtime.Snapshot) {
		mu.Lock()
		latest = s.Data.([]movement.Movement)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return resolved(latest)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMovementServiceNeedsSources(t *testing.T) {
	hub := realtime.NewHub(zap.NewNop(), nil)
	db := newTestDB(t)
	movements := NewMovementService(hub, repository.NewInventoryRepository(db), repository.NewProjectRepository(db), zap.NewNop())

	err := movements.Start(context.Background())
	assert.ErrorIs(t, err, realtime.ErrUnknownPath)
	movements.Stop()
}

func TestMovementConversion(t *testing.T) {
	qty := dec("3")
	item := model.InventoryItem{ID: uuid.New(), Name: "حديد"}
	expenses := toMovementExpenses([]model.Expense{
		{Type: movement.WithdrawalType("حديد"), Description: "مسحوب يدويا", Amount: dec("30"),
			WithdrawalItemID: &item.ID, WithdrawalQuantity: &qty, WithdrawalUnit: "طن"},
		{Type: "ضيافة", Amount: dec("5")},
	})
	require.Len(t, expenses, 2)
	require.NotNil(t, expenses[0].Withdrawal)
	assert.Equal(t, item.ID.String(), expenses[0].Withdrawal.ItemID)
	assert.Nil(t, expenses[1].Withdrawal)

	out := movement.WithdrawalMovements(expenses, movement.Catalog{})
	require.Len(t, out, 1)
	assert.True(t, qty.Equal(out[0].Quantity), "structured quantity beats the text")
	assert.Equal(t, "طن", out[0].Unit)
}
