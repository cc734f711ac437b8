package repository

import (
	"context"

	"sitebooks/internal/model"

	"gorm.io/gorm"
)

// DataRepository operates on the store as a whole.
type DataRepository interface {
	// Reset deletes every business record. User accounts and jobs survive.
	Reset(ctx context.Context) error
}

type dataRepository struct {
	db *gorm.DB
}

func NewDataRepository(db *gorm.DB) DataRepository {
	return &dataRepository{db: db}
}

// resettable lists the wiped models, children before parents.
var resettable = []interface{}{
	&model.JournalLine{},
	&model.JournalEntry{},
	&model.PurchaseItem{},
	&model.PurchaseInvoice{},
	&model.StockTransaction{},
	&model.Expense{},
	&model.SalaryPayment{},
	&model.Employee{},
	&model.BudgetItem{},
	&model.InventoryItem{},
	&model.Partner{},
	&model.Project{},
	&model.AuditLog{},
}

func (r *dataRepository) Reset(ctx context.Context) error {
	db := GetDB(ctx, r.db)
	for _, m := range resettable {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}
