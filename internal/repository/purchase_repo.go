package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	// Create inserts the invoice together with its items.
	Create(ctx context.Context, invoice *model.PurchaseInvoice) error
	UpdateHeader(ctx context.Context, invoice *model.PurchaseInvoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error)
	List(ctx context.Context, purchaseType string, page, limit int) ([]model.PurchaseInvoice, int64, error)
	All(ctx context.Context) ([]model.PurchaseInvoice, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, invoice *model.PurchaseInvoice) error {
	return GetDB(ctx, r.db).Omit("Supplier", "Project").Create(invoice).Error
}

func (r *purchaseRepository) UpdateHeader(ctx context.Context, invoice *model.PurchaseInvoice) error {
	return GetDB(ctx, r.db).Model(invoice).
		Select("date", "invoice_number", "supplier_id", "project_id", "notes").
		Updates(invoice).Error
}

func (r *purchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("invoice_id = ?", id).Delete(&model.PurchaseItem{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&model.PurchaseInvoice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error) {
	var invoice model.PurchaseInvoice
	if err := GetDB(ctx, r.db).Preload("Items").Preload("Supplier").Preload("Project").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *purchaseRepository) List(ctx context.Context, purchaseType string, page, limit int) ([]model.PurchaseInvoice, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.PurchaseInvoice{})
	if purchaseType != "" {
		query = query.Where("purchase_type = ?", purchaseType)
	}
	return paginate[model.PurchaseInvoice](query, "date DESC, created_at DESC", page, limit, "Items", "Supplier", "Project")
}

func (r *purchaseRepository) All(ctx context.Context) ([]model.PurchaseInvoice, error) {
	var invoices []model.PurchaseInvoice
	if err := GetDB(ctx, r.db).Preload("Items").Preload("Supplier").
		Order("date DESC, created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
