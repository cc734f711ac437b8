package service

import (
	"context"

	"sitebooks/internal/model"
	"sitebooks/internal/realtime"
)

// auditSnapshotSize bounds the live audit log to its most recent rows.
const auditSnapshotSize = 200

// Collections binds every live collection path to the service that loads it.
type Collections struct {
	Dashboard DashboardService
	Projects  ProjectService
	Budget    BudgetService
	Expenses  ExpenseService
	Inventory InventoryService
	Purchases PurchaseService
	Journal   JournalService
	Employees EmployeeService
	Salaries  SalaryService
	Partners  PartnerService
	Audit     AuditService
	Users     UserService
	Jobs      JobService
}

// Register installs the loaders on hub. The movements collection is added
// by MovementService.Start.
func (c Collections) Register(hub *realtime.Hub) {
	hub.Register(PathDashboard, func(ctx context.Context) (interface{}, error) {
		return c.Dashboard.Summary(ctx)
	})
	hub.Register(PathProjects, func(ctx context.Context) (interface{}, error) {
		return c.Projects.AllProjects(ctx)
	})
	hub.Register(PathBudget, func(ctx context.Context) (interface{}, error) {
		return c.Budget.ListItems(ctx, "")
	})
	hub.Register(PathExpenses, func(ctx context.Context) (interface{}, error) {
		return c.Expenses.AllExpenses(ctx)
	})
	hub.Register(PathInventoryItems, func(ctx context.Context) (interface{}, error) {
		return c.Inventory.AllItems(ctx)
	})
	hub.Register(PathPurchases, func(ctx context.Context) (interface{}, error) {
		return c.Purchases.AllPurchases(ctx)
	})
	hub.Register(PathJournal, func(ctx context.Context) (interface{}, error) {
		return c.Journal.AllEntries(ctx)
	})
	hub.Register(PathEmployees, func(ctx context.Context) (interface{}, error) {
		return c.Employees.AllEmployees(ctx)
	})
	hub.Register(PathSalaries, func(ctx context.Context) (interface{}, error) {
		return c.Salaries.AllPayments(ctx)
	})
	hub.Register(PathCustomers, func(ctx context.Context) (interface{}, error) {
		return c.Partners.AllPartners(ctx, model.PartnerKindCustomer)
	})
	hub.Register(PathSuppliers, func(ctx context.Context) (interface{}, error) {
		return c.Partners.AllPartners(ctx, model.PartnerKindSupplier)
	})
	hub.Register(PathAuditLog, func(ctx context.Context) (interface{}, error) {
		logs, _, err := c.Audit.ListLogs(ctx, "", 1, auditSnapshotSize)
		return logs, err
	})
	hub.Register(PathUsers, func(ctx context.Context) (interface{}, error) {
		return c.Users.AllUsers(ctx)
	})
	hub.Register(PathJobs, func(ctx context.Context) (interface{}, error) {
		return c.Jobs.ListJobs(ctx)
	})
}
