package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// JournalEntry is a double-entry record. Its lines always balance.
type JournalEntry struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Date        time.Time     `gorm:"index" json:"date"`
	Description string        `gorm:"type:text" json:"description"`
	Reference   string        `gorm:"type:varchar(100)" json:"reference"`
	Lines       []JournalLine `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (j *JournalEntry) BeforeCreate(*gorm.DB) error {
	assignID(&j.ID)
	return nil
}

type JournalLine struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"entry_id"`
	Account string          `gorm:"type:varchar(255);not null;index" json:"account"`
	Debit   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"debit"`
	Credit  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"credit"`
	Memo    string          `gorm:"type:varchar(255)" json:"memo"`
}

func (l *JournalLine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}
