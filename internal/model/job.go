package model

import (
	"time"

	"sitebooks/internal/access"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Job is a named role whose path grants every assigned user inherits.
type Job struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string        `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Permissions access.Grants `gorm:"type:text;serializer:json" json:"permissions"`
	IsSystem    bool          `json:"is_system"` // built-in jobs cannot be deleted
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (j *Job) BeforeCreate(*gorm.DB) error {
	assignID(&j.ID)
	return nil
}
