package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Employee struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	JobTitle   string          `gorm:"type:varchar(255)" json:"job_title"`
	Phone      string          `gorm:"type:varchar(50)" json:"phone"`
	NationalID string          `gorm:"type:varchar(50)" json:"national_id"`
	BaseSalary decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_salary"`
	HireDate   time.Time       `json:"hire_date"`
	ProjectID  *uuid.UUID      `gorm:"type:uuid;index" json:"project_id"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (e *Employee) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}

// SalaryPayment is the pay of one employee for one month (Period is YYYY-MM).
type SalaryPayment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_salary_employee_period" json:"employee_id"`
	Employee   *Employee       `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Period     string          `gorm:"type:varchar(7);not null;uniqueIndex:idx_salary_employee_period" json:"period"`
	BaseAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"base_amount"`
	Allowances decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"allowances"`
	Deductions decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"deductions"`
	NetAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"net_amount"` // base + allowances - deductions
	PaidAt     time.Time       `json:"paid_at"`
	Notes      string          `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (s *SalaryPayment) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
