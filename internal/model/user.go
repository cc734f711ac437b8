package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that signs in with a short code and a PIN.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	PINHash   string     `gorm:"type:varchar(255);not null" json:"-"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	IsAdmin   bool       `json:"is_admin"`
	JobID     *uuid.UUID `gorm:"type:uuid;index" json:"job_id"`
	Job       *Job       `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
