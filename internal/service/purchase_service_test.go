package service

import (
	"context"
	"testing"

	"sitebooks/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryPurchaseReceivesStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	purchases := f.purchaseService()
	inventory := f.inventoryService()

	supplier, err := f.partnerService().CreatePartner(ctx, "", PartnerRequest{Kind: model.PartnerKindSupplier, Name: "مصنع الأسمنت"})
	require.NoError(t, err)
	item, err := inventory.CreateItem(ctx, "", InventoryItemRequest{Name: "أسمنت", Unit: "كيس", UnitCost: dec("4")})
	require.NoError(t, err)

	invoice, err := purchases.CreatePurchase(ctx, "", PurchaseRequest{
		Date:          "2024-04-02",
		InvoiceNumber: "INV-7",
		PurchaseType:  model.PurchaseTypeInventory,
		SupplierID:    supplier.ID.String(),
		Items: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: dec("10"), UnitPrice: dec("2.5")},
			{ItemID: item.ID.String(), Quantity: dec("2"), UnitPrice: dec("3")},
		},
	})
	require.NoError(t, err)
	assert.True(t, dec("31").Equal(invoice.Total), invoice.Total.String())
	assert.True(t, f.rec.touched(PathInventoryItems))

	got, err := inventory.GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("12").Equal(got.Quantity), got.Quantity.String())
	assert.True(t, dec("3").Equal(got.UnitCost), "latest unit price wins")

	loaded, err := purchases.GetPurchase(ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	require.NotNil(t, loaded.Supplier)
	assert.Equal(t, "مصنع الأسمنت", loaded.Supplier.Name)

	_, err = inventory.Withdraw(ctx, "", item.ID.String(), WithdrawRequest{Quantity: dec("11")})
	require.NoError(t, err)

	err = purchases.DeletePurchase(ctx, "", invoice.ID.String())
	assert.ErrorIs(t, err, ErrInsufficientStock)
	_, err = purchases.GetPurchase(ctx, invoice.ID.String())
	require.NoError(t, err, "failed reversal must keep the invoice")

	got, err = inventory.GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("1").Equal(got.Quantity), got.Quantity.String())
}

func TestDeletePurchaseReversesStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	purchases := f.purchaseService()
	inventory := f.inventoryService()

	item, err := inventory.CreateItem(ctx, "", InventoryItemRequest{Name: "حديد", Unit: "طن", Quantity: dec("1")})
	require.NoError(t, err)
	invoice, err := purchases.CreatePurchase(ctx, "", PurchaseRequest{
		PurchaseType: model.PurchaseTypeInventory,
		Items:        []PurchaseLineRequest{{ItemID: item.ID.String(), Quantity: dec("4"), UnitPrice: dec("900")}},
	})
	require.NoError(t, err)

	require.NoError(t, purchases.DeletePurchase(ctx, "", invoice.ID.String()))

	got, err := inventory.GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assert.True(t, dec("1").Equal(got.Quantity), got.Quantity.String())

	card, err := inventory.StockCard(ctx, item.ID.String())
	require.NoError(t, err)
	require.Len(t, card, 2)
	sources := []string{card[0].SourceType, card[1].SourceType}
	assert.ElementsMatch(t, []string{model.StockSourcePurchase, model.StockSourcePurchaseReversal}, sources)
}

func TestCreatePurchaseValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	purchases := f.purchaseService()

	customer, err := f.partnerService().CreatePartner(ctx, "", PartnerRequest{Kind: model.PartnerKindCustomer, Name: "عميل"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  PurchaseRequest
	}{
		{"unknown type", PurchaseRequest{PurchaseType: "cash", Items: []PurchaseLineRequest{{Quantity: dec("1")}}}},
		{"no items", PurchaseRequest{PurchaseType: model.PurchaseTypeDirect}},
		{"zero quantity", PurchaseRequest{PurchaseType: model.PurchaseTypeDirect, Items: []PurchaseLineRequest{{Quantity: dec("0")}}}},
		{"inventory line without item", PurchaseRequest{PurchaseType: model.PurchaseTypeInventory, Items: []PurchaseLineRequest{{Quantity: dec("1"), UnitPrice: dec("1")}}}},
		{"customer as supplier", PurchaseRequest{PurchaseType: model.PurchaseTypeDirect, SupplierID: customer.ID.String(), Items: []PurchaseLineRequest{{Quantity: dec("1")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := purchases.CreatePurchase(ctx, "", tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	direct, err := purchases.CreatePurchase(ctx, "", PurchaseRequest{
		PurchaseType: model.PurchaseTypeDirect,
		Items:        []PurchaseLineRequest{{Description: "نقل", Quantity: dec("1"), UnitPrice: dec("250")}},
	})
	require.NoError(t, err)
	assert.True(t, dec("250").Equal(direct.Total))
}

func TestUpdatePurchaseHeader(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	purchases := f.purchaseService()

	invoice, err := purchases.CreatePurchase(ctx, "", PurchaseRequest{
		PurchaseType:  model.PurchaseTypeDirect,
		InvoiceNumber: "A-1",
		Items:         []PurchaseLineRequest{{Description: "رمل", Quantity: dec("2"), UnitPrice: dec("10")}},
	})
	require.NoError(t, err)

	updated, err := purchases.UpdatePurchase(ctx, "", invoice.ID.String(), PurchaseHeaderRequest{InvoiceNumber: "A-2", Date: "2024-01-15"})
	require.NoError(t, err)
	assert.Equal(t, "A-2", updated.InvoiceNumber)
	assert.Equal(t, "2024-01-15", updated.Date.Format("2006-01-02"))
	assert.Len(t, updated.Items, 1)
	assert.True(t, dec("20").Equal(updated.Total))
}
