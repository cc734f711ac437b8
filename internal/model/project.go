package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusSuspended = "suspended"
)

type Project struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Location      string          `gorm:"type:varchar(255)" json:"location"`
	ClientName    string          `gorm:"type:varchar(255)" json:"client_name"`
	ContractValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"contract_value"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       *time.Time      `json:"end_date"`
	Status        string          `gorm:"type:varchar(20);not null;index" json:"status"` // active, completed, suspended
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// BudgetItem is a planned cost line of a project.
type BudgetItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Project       *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Category      string          `gorm:"type:varchar(100)" json:"category"`
	PlannedAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"planned_amount"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (b *BudgetItem) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
