package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem is a stocked material.
type InventoryItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit        string          `gorm:"type:varchar(50)" json:"unit"`
	Category    string          `gorm:"type:varchar(100)" json:"category"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_cost"`
	MinQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"min_quantity"` // low stock threshold
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (i *InventoryItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

const (
	StockIn  = "IN"
	StockOut = "OUT"
)

const (
	StockSourcePurchase         = "PURCHASE"
	StockSourcePurchaseReversal = "PURCHASE_REVERSAL"
	StockSourceWithdrawal       = "WITHDRAWAL"
)

// StockTransaction is one line of an item's stock card.
type StockTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	SourceType      string          `gorm:"type:varchar(30);not null" json:"source_type"`
	SourceID        uuid.UUID       `gorm:"type:uuid;index" json:"source_id"`
	Direction       string          `gorm:"type:varchar(10);not null" json:"direction"` // IN, OUT
	QuantityChanged decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_changed"`
	StockAfter      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"stock_after"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (t *StockTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
