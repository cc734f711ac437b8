package service

import (
	"context"
	"errors"
	"testing"

	"sitebooks/internal/model"
	"sitebooks/internal/movement"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawBooksExpense(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inventory := f.inventoryService()
	expenses := f.expenseService()

	project, err := f.projectService().CreateProject(ctx, "", ProjectRequest{Name: "برج النخيل"})
	require.NoError(t, err)
	item, err := inventory.CreateItem(ctx, "", InventoryItemRequest{
		Name: "أسمنت", Unit: "كيس", Quantity: dec("10"), UnitCost: dec("5"),
	})
	require.NoError(t, err)
	f.rec.reset()

	expense, err := inventory.Withdraw(ctx, "", item.ID.String(), WithdrawRequest{
		ProjectID: project.ID.String(), Quantity: dec("4"), Date: "2024-05-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "صرف مخزون: أسمنت", expense.Type)
	assert.Equal(t, "صرف كمية (4 كيس)", expense.Description)
	assert.True(t, dec("20").Equal(expense.Amount), expense.Amount.String())
	require.NotNil(t, expense.WithdrawalItemID)
	assert.Equal(t, item.ID, *expense.WithdrawalItemID)
	assert.Equal(t, "كيس", expense.WithdrawalUnit)

	name, qty, unit, ok := movement.ParseWithdrawal(expense.Type, expense.Description)
	require.True(t, ok)
	assert.Equal(t, "أسمنت", name)
	assert.True(t, dec("4").Equal(qty))
	assert.Equal(t, "كيس", unit)

	for _, p := range []string{PathInventoryItems, PathExpenses, PathBudget, PathAuditLog} {
		assert.True(t, f.rec.touched(p), p)
	}

	got, err := inventory.GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(got.Quantity), got.Quantity.String())

	card, err := inventory.StockCard(ctx, item.ID.String())
	require.NoError(t, err)
	require.Len(t, card, 1)
	assert.Equal(t, model.StockOut, card[0].Direction)
	assert.True(t, dec("6").Equal(card[0].StockAfter))

	_, err = expenses.UpdateExpense(ctx, "", expense.ID.String(), ExpenseRequest{Type: "x", Amount: dec("1")})
	assert.ErrorIs(t, err, ErrProtected)

	require.NoError(t, expenses.DeleteExpense(ctx, "", expense.ID.String()))
	got, err = inventory.GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(got.Quantity), got.Quantity.String())

	card, err = inventory.StockCard(ctx, item.ID.String())
	require.NoError(t, err)
	assert.Len(t, card, 2)
}

// lockFailingInventory fails every row lock with err.
type lockFailingInventory struct {
	repository.InventoryRepository
	err error
}

func (r lockFailingInventory) FindForUpdate(context.Context, uuid.UUID) (*model.InventoryItem, error) {
	return nil, r.err
}

func TestDeleteWithdrawalKeepsExpenseWhenStockCannotReturn(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	item, err := f.inventoryService().CreateItem(ctx, "", InventoryItemRequest{Name: "رمل", Unit: "م3", Quantity: dec("8"), UnitCost: dec("2")})
	require.NoError(t, err)
	expense, err := f.inventoryService().Withdraw(ctx, "", item.ID.String(), WithdrawRequest{Quantity: dec("3")})
	require.NoError(t, err)

	broken := NewExpenseService(f.expenses, f.projects, f.budgets,
		lockFailingInventory{InventoryRepository: f.inventory, err: errors.New("connection reset")},
		f.stock, f.audits, f.txm, f.feed)
	err = broken.DeleteExpense(ctx, "", expense.ID.String())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = f.expenseService().GetExpense(ctx, expense.ID.String())
	require.NoError(t, err, "the delete must roll back")
	got, err := f.inventoryService().GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("5").Equal(got.Quantity), got.Quantity.String())
}

func TestDeleteWithdrawalOfRemovedItem(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	item, err := f.inventoryService().CreateItem(ctx, "", InventoryItemRequest{Name: "بلاط", Unit: "م2", Quantity: dec("8"), UnitCost: dec("2")})
	require.NoError(t, err)
	expense, err := f.inventoryService().Withdraw(ctx, "", item.ID.String(), WithdrawRequest{Quantity: dec("3")})
	require.NoError(t, err)
	require.NoError(t, f.inventory.Delete(ctx, item.ID))

	require.NoError(t, f.expenseService().DeleteExpense(ctx, "", expense.ID.String()))
	_, err = f.expenseService().GetExpense(ctx, expense.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithdrawInsufficientStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inventory := f.inventoryService()

	item, err := inventory.CreateItem(ctx, "", InventoryItemRequest{Name: "حديد", Unit: "طن", Quantity: dec("2"), UnitCost: dec("100")})
	require.NoError(t, err)

	_, err = inventory.Withdraw(ctx, "", item.ID.String(), WithdrawRequest{Quantity: dec("2.5")})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = inventory.Withdraw(ctx, "", item.ID.String(), WithdrawRequest{Quantity: dec("0")})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := inventory.GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(got.Quantity))

	all, err := f.expenseService().AllExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWithdrawBudgetItemMustMatchProject(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	projects := f.projectService()

	a, err := projects.CreateProject(ctx, "", ProjectRequest{Name: "A"})
	require.NoError(t, err)
	b, err := projects.CreateProject(ctx, "", ProjectRequest{Name: "B"})
	require.NoError(t, err)
	line, err := f.budgetService().CreateItem(ctx, "", BudgetItemRequest{ProjectID: b.ID.String(), Name: "خرسانة", PlannedAmount: dec("100")})
	require.NoError(t, err)
	item, err := f.inventoryService().CreateItem(ctx, "", InventoryItemRequest{Name: "رمل", Quantity: dec("5")})
	require.NoError(t, err)

	_, err = f.inventoryService().Withdraw(ctx, "", item.ID.String(), WithdrawRequest{
		ProjectID: a.ID.String(), BudgetItemID: line.ID.String(), Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteItemWithMovementsIsProtected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inventory := f.inventoryService()

	item, err := inventory.CreateItem(ctx, "", InventoryItemRequest{Name: "بلاط", Quantity: dec("3")})
	require.NoError(t, err)
	_, err = inventory.Withdraw(ctx, "", item.ID.String(), WithdrawRequest{Quantity: dec("1")})
	require.NoError(t, err)

	assert.ErrorIs(t, inventory.DeleteItem(ctx, "", item.ID.String()), ErrProtected)

	spare, err := inventory.CreateItem(ctx, "", InventoryItemRequest{Name: "دهان"})
	require.NoError(t, err)
	require.NoError(t, inventory.DeleteItem(ctx, "", spare.ID.String()))
	_, err = inventory.GetItem(ctx, spare.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateItemKeepsQuantity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	inventory := f.inventoryService()

	item, err := inventory.CreateItem(ctx, "", InventoryItemRequest{Name: "طوب", Quantity: dec("100"), MinQuantity: dec("10")})
	require.NoError(t, err)

	updated, err := inventory.UpdateItem(ctx, "", item.ID.String(), InventoryItemRequest{Name: "طوب أحمر", Quantity: dec("1"), MinQuantity: dec("200")})
	require.NoError(t, err)
	assert.Equal(t, "طوب أحمر", updated.Name)
	assert.True(t, dec("100").Equal(updated.Quantity))

	low, err := inventory.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, item.ID, low[0].ID)
}
