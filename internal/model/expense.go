package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense is a cost booked against a project. Stock withdrawals are also
// expenses: their Type and Description follow the withdrawal text convention
// and the Withdrawal* columns carry the same facts in structured form.
type Expense struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID       *uuid.UUID      `gorm:"type:uuid;index" json:"project_id"`
	Project         *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	BudgetItemID    *uuid.UUID      `gorm:"type:uuid;index" json:"budget_item_id"`
	BudgetItem      *BudgetItem     `gorm:"foreignKey:BudgetItemID;constraint:OnDelete:SET NULL" json:"budget_item,omitempty"`
	Date            time.Time       `gorm:"index" json:"date"`
	Type            string          `gorm:"type:varchar(255);not null" json:"type"`
	Description     string          `gorm:"type:text" json:"description"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	ReferenceNumber string          `gorm:"type:varchar(100)" json:"reference_number"`
	PaidTo          string          `gorm:"type:varchar(255)" json:"paid_to"`

	WithdrawalItemID   *uuid.UUID       `gorm:"type:uuid;index" json:"withdrawal_item_id,omitempty"`
	WithdrawalQuantity *decimal.Decimal `gorm:"type:decimal(18,4)" json:"withdrawal_quantity,omitempty"`
	WithdrawalUnit     string           `gorm:"type:varchar(50)" json:"withdrawal_unit,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Expense) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
