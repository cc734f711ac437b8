package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerKind enum constants
const (
	PartnerKindCustomer = "customer"
	PartnerKindSupplier = "supplier"
)

// Partner is a customer or a supplier.
type Partner struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      string    `gorm:"type:varchar(20);not null;index" json:"kind"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string    `gorm:"type:varchar(50)" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Address   string    `gorm:"type:text" json:"address"`
	TaxNumber string    `gorm:"type:varchar(50)" json:"tax_number"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Partner) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
