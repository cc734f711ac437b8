package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	CRUD[model.InventoryItem]
	List(ctx context.Context, search string, page, limit int) ([]model.InventoryItem, int64, error)
	// FindForUpdate locks the item row for the rest of the transaction.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	LowStock(ctx context.Context) ([]model.InventoryItem, error)
	// CountReferences counts purchase lines and withdrawals of the item.
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type inventoryRepository struct {
	crud[model.InventoryItem]
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{crud[model.InventoryItem]{db: db}}
}

func (r *inventoryRepository) List(ctx context.Context, search string, page, limit int) ([]model.InventoryItem, int64, error) {
	db := GetDB(ctx, r.db)
	query := db.Model(&model.InventoryItem{})
	if search != "" {
		op := like(db)
		query = query.Where("name "+op+" ? OR category "+op+" ?", "%"+search+"%", "%"+search+"%")
	}
	return paginate[model.InventoryItem](query, "name ASC", page, limit)
}

func (r *inventoryRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item model.InventoryItem
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepository) LowStock(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	if err := GetDB(ctx, r.db).
		Where("min_quantity > 0 AND quantity <= min_quantity").
		Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *inventoryRepository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	db := GetDB(ctx, r.db)
	var lines, withdrawals int64
	if err := db.Model(&model.PurchaseItem{}).Where("item_id = ?", id).Count(&lines).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&model.Expense{}).Where("withdrawal_item_id = ?", id).Count(&withdrawals).Error; err != nil {
		return 0, err
	}
	return lines + withdrawals, nil
}
