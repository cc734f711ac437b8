package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PurchaseTypeInventory = "inventory"
	PurchaseTypeDirect    = "direct"
)

// PurchaseInvoice is a supplier invoice. Inventory invoices feed stock,
// direct ones are consumed by a project immediately.
type PurchaseInvoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Date          time.Time       `gorm:"index" json:"date"`
	InvoiceNumber string          `gorm:"type:varchar(100)" json:"invoice_number"`
	PurchaseType  string          `gorm:"type:varchar(20);not null;index" json:"purchase_type"`
	SupplierID    *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	Supplier      *Partner        `gorm:"foreignKey:SupplierID;constraint:OnDelete:SET NULL" json:"supplier,omitempty"`
	ProjectID     *uuid.UUID      `gorm:"type:uuid;index" json:"project_id"`
	Project       *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	Notes         string          `gorm:"type:text" json:"notes"`
	Items         []PurchaseItem  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *PurchaseInvoice) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

type PurchaseItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ItemID      *uuid.UUID      `gorm:"type:uuid;index" json:"item_id"`
	Description string          `gorm:"type:varchar(255)" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`
}

func (p *PurchaseItem) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
