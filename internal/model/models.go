package model

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Job{},
		&User{},
		&Project{},
		&BudgetItem{},
		&Partner{},
		&InventoryItem{},
		&StockTransaction{},
		&Expense{},
		&PurchaseInvoice{},
		&PurchaseItem{},
		&JournalEntry{},
		&JournalLine{},
		&Employee{},
		&SalaryPayment{},
		&AuditLog{},
	}
}
