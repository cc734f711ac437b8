package repository

import (
	"context"

	"sitebooks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockRepository keeps the stock card of inventory items.
type StockRepository interface {
	Create(ctx context.Context, tx *model.StockTransaction) error
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.StockTransaction, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, tx *model.StockTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *stockRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.StockTransaction, error) {
	var txs []model.StockTransaction
	if err := GetDB(ctx, r.db).Where("item_id = ?", itemID).Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
