// Package legacy imports the tree of the old realtime database into the SQL
// store.
package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sitebooks/internal/model"
	"sitebooks/internal/movement"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// errDryRun rolls the import transaction back on purpose.
var errDryRun = errors.New("dry run")

// Counts reports how many records of each kind were written.
type Counts struct {
	Projects    int `json:"projects"`
	Customers   int `json:"customers"`
	Suppliers   int `json:"suppliers"`
	Items       int `json:"items"`
	Employees   int `json:"employees"`
	Purchases   int `json:"purchases"`
	Expenses    int `json:"expenses"`
	Withdrawals int `json:"withdrawals"` // expenses recognised as stock withdrawals
}

type Options struct {
	// DryRun reads and converts everything, then rolls back.
	DryRun bool
}

type Importer struct {
	reader        Reader
	txManager     repository.TransactionManager
	projectRepo   repository.ProjectRepository
	partnerRepo   repository.PartnerRepository
	inventoryRepo repository.InventoryRepository
	employeeRepo  repository.EmployeeRepository
	purchaseRepo  repository.PurchaseRepository
	expenseRepo   repository.ExpenseRepository
	auditRepo     repository.AuditRepository
	log           *zap.Logger
}

func NewImporter(
	reader Reader,
	txManager repository.TransactionManager,
	projectRepo repository.ProjectRepository,
	partnerRepo repository.PartnerRepository,
	inventoryRepo repository.InventoryRepository,
	employeeRepo repository.EmployeeRepository,
	purchaseRepo repository.PurchaseRepository,
	expenseRepo repository.ExpenseRepository,
	auditRepo repository.AuditRepository,
	log *zap.Logger,
) *Importer {
	return &Importer{
		reader:        reader,
		txManager:     txManager,
		projectRepo:   projectRepo,
		partnerRepo:   partnerRepo,
		inventoryRepo: inventoryRepo,
		employeeRepo:  employeeRepo,
		purchaseRepo:  purchaseRepo,
		expenseRepo:   expenseRepo,
		auditRepo:     auditRepo,
		log:           log,
	}
}

// tree is the whole legacy database, keyed by push id per node.
type tree struct {
	projects  map[string]Project
	expenses  map[string]Expense
	inventory map[string]Item
	purchases map[string]Purchase
	suppliers map[string]Partner
	customers map[string]Partner
	employees map[string]Employee
}

func (im *Importer) read(ctx context.Context) (*tree, error) {
	t := &tree{}
	nodes := []struct {
		path string
		v    interface{}
	}{
		{NodeProjects, &t.projects},
		{NodeExpenses, &t.expenses},
		{NodeInventory, &t.inventory},
		{NodePurchases, &t.purchases},
		{NodeSuppliers, &t.suppliers},
		{NodeCustomers, &t.customers},
		{NodeEmployees, &t.employees},
	}
	for _, n := range nodes {
		if err := im.reader.Get(ctx, n.path, n.v); err != nil {
			return nil, fmt.Errorf("read %s: %w", n.path, err)
		}
	}
	return t, nil
}

// ids maps legacy push ids to the new primary keys, per node.
type ids map[string]uuid.UUID

func (m ids) ref(pushID string) *uuid.UUID {
	if id, ok := m[strings.TrimSpace(pushID)]; ok {
		return &id
	}
	return nil
}

// Import copies the legacy tree in one transaction. Push ids become fresh
// UUIDs and references between nodes are rewritten. Withdrawal expenses keep
// their text and also get the structured withdrawal columns.
func (im *Importer) Import(ctx context.Context, opts Options) (*Counts, error) {
	t, err := im.read(ctx)
	if err != nil {
		return nil, err
	}

	counts := &Counts{}
	err = im.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		projects, err := im.importProjects(txCtx, t.projects, counts)
		if err != nil {
			return err
		}
		suppliers, err := im.importPartners(txCtx, t.suppliers, model.PartnerKindSupplier, &counts.Suppliers)
		if err != nil {
			return err
		}
		if _, err := im.importPartners(txCtx, t.customers, model.PartnerKindCustomer, &counts.Customers); err != nil {
			return err
		}
		items, byName, err := im.importItems(txCtx, t.inventory, counts)
		if err != nil {
			return err
		}
		if err := im.importEmployees(txCtx, t.employees, projects, counts); err != nil {
			return err
		}
		if err := im.importPurchases(txCtx, t.purchases, items, suppliers, projects, counts); err != nil {
			return err
		}
		if err := im.importExpenses(txCtx, t.expenses, projects, byName, counts); err != nil {
			return err
		}

		if err := im.auditRepo.Log(txCtx, &model.AuditLog{
			Action:     model.ActionImport,
			EntityType: "system",
			EntityName: "legacy import",
			Details:    fmt.Sprintf(`{"projects":%d,"expenses":%d,"purchases":%d}`, counts.Projects, counts.Expenses, counts.Purchases),
		}); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, err
	}

	im.log.Info("legacy import finished",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("projects", counts.Projects),
		zap.Int("expenses", counts.Expenses),
		zap.Int("withdrawals", counts.Withdrawals),
		zap.Int("purchases", counts.Purchases),
		zap.Int("items", counts.Items),
	)
	return counts, nil
}

func projectStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case model.ProjectStatusCompleted, "مكتمل", "منتهي":
		return model.ProjectStatusCompleted
	case model.ProjectStatusSuspended, "متوقف", "معلق":
		return model.ProjectStatusSuspended
	default:
		return model.ProjectStatusActive
	}
}

func (im *Importer) importProjects(ctx context.Context, nodes map[string]Project, counts *Counts) (ids, error) {
	out := make(ids, len(nodes))
	for _, key := range sortedKeys(nodes) {
		n := nodes[key]
		start, _ := parseDate(n.StartDate)
		p := &model.Project{
			Name:          fallback(n.Name, key),
			Location:      n.Location,
			ClientName:    n.ClientName,
			ContractValue: n.ContractValue.Decimal,
			StartDate:     start,
			Status:        projectStatus(n.Status),
			Notes:         n.Notes,
		}
		if end, ok := parseDate(n.EndDate); ok {
			p.EndDate = &end
		}
		if err := im.projectRepo.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("project %s: %w", key, err)
		}
		out[key] = p.ID
		counts.Projects++
	}
	return out, nil
}

func (im *Importer) importPartners(ctx context.Context, nodes map[string]Partner, kind string, count *int) (ids, error) {
	out := make(ids, len(nodes))
	for _, key := range sortedKeys(nodes) {
		n := nodes[key]
		p := &model.Partner{
			Kind:      kind,
			Name:      fallback(n.Name, key),
			Phone:     n.Phone,
			Email:     n.Email,
			Address:   n.Address,
			TaxNumber: n.TaxNumber,
			Notes:     n.Notes,
		}
		if err := im.partnerRepo.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("%s %s: %w", kind, key, err)
		}
		out[key] = p.ID
		*count++
	}
	return out, nil
}

func (im *Importer) importItems(ctx context.Context, nodes map[string]Item, counts *Counts) (ids, map[string]uuid.UUID, error) {
	out := make(ids, len(nodes))
	byName := make(map[string]uuid.UUID, len(nodes))
	for _, key := range sortedKeys(nodes) {
		n := nodes[key]
		item := &model.InventoryItem{
			Name:        fallback(n.Name, key),
			Unit:        n.Unit,
			Category:    n.Category,
			Quantity:    n.Quantity.Decimal,
			UnitCost:    n.UnitCost.Decimal,
			MinQuantity: n.MinQuantity.Decimal,
			Notes:       n.Notes,
		}
		if err := im.inventoryRepo.Create(ctx, item); err != nil {
			return nil, nil, fmt.Errorf("item %s: %w", key, err)
		}
		out[key] = item.ID
		// First item wins when names repeat.
		if _, dup := byName[item.Name]; !dup {
			byName[item.Name] = item.ID
		}
		counts.Items++
	}
	return out, byName, nil
}

func (im *Importer) importEmployees(ctx context.Context, nodes map[string]Employee, projects ids, counts *Counts) error {
	for _, key := range sortedKeys(nodes) {
		n := nodes[key]
		hired, _ := parseDate(n.HireDate)
		e := &model.Employee{
			Name:       fallback(n.Name, key),
			JobTitle:   n.JobTitle,
			Phone:      n.Phone,
			NationalID: n.NationalID,
			BaseSalary: n.BaseSalary.Decimal,
			HireDate:   hired,
			ProjectID:  projects.ref(n.ProjectID),
			Active:     n.Active == nil || *n.Active,
		}
		if err := im.employeeRepo.Create(ctx, e); err != nil {
			return fmt.Errorf("employee %s: %w", key, err)
		}
		counts.Employees++
	}
	return nil
}

func (im *Importer) importPurchases(ctx context.Context, nodes map[string]Purchase, items, suppliers, projects ids, counts *Counts) error {
	for _, key := range sortedKeys(nodes) {
		n := nodes[key]
		date, _ := parseDate(n.Date)
		invoice := &model.PurchaseInvoice{
			Date:          date,
			InvoiceNumber: n.InvoiceNumber,
			PurchaseType:  n.PurchaseType,
			SupplierID:    suppliers.ref(n.SupplierID),
			ProjectID:     projects.ref(n.ProjectID),
			Notes:         n.Notes,
			Total:         decimal.Zero,
		}

		hasItems := false
		for _, line := range n.Items {
			pi := purchaseItem(line, items)
			if pi.ItemID != nil {
				hasItems = true
			}
			invoice.Items = append(invoice.Items, pi)
			invoice.Total = invoice.Total.Add(pi.Total)
		}
		if invoice.PurchaseType != model.PurchaseTypeInventory && invoice.PurchaseType != model.PurchaseTypeDirect {
			invoice.PurchaseType = model.PurchaseTypeDirect
			if hasItems {
				invoice.PurchaseType = model.PurchaseTypeInventory
			}
		}

		if err := im.purchaseRepo.Create(ctx, invoice); err != nil {
			return fmt.Errorf("purchase %s: %w", key, err)
		}
		counts.Purchases++
	}
	return nil
}

// purchaseItem fills in whichever of unit price and total the old record
// left out.
func purchaseItem(line PurchaseLine, items ids) model.PurchaseItem {
	qty := line.Quantity.Decimal
	price := line.UnitPrice.Decimal
	total := line.Total.Decimal
	switch {
	case total.IsZero():
		total = qty.Mul(price)
	case price.IsZero() && !qty.IsZero():
		price = total.Div(qty).Round(4)
	}
	return model.PurchaseItem{
		ItemID:      items.ref(line.ItemID),
		Description: line.Description,
		Quantity:    qty,
		UnitPrice:   price,
		Total:       total,
	}
}

func (im *Importer) importExpenses(ctx context.Context, nodes map[string]Expense, projects ids, itemsByName map[string]uuid.UUID, counts *Counts) error {
	for _, key := range sortedKeys(nodes) {
		n := nodes[key]
		date, ok := parseDate(n.Date)
		if !ok && n.Date != "" {
			im.log.Warn("unreadable expense date", zap.String("key", key), zap.String("date", n.Date))
		}
		e := &model.Expense{
			ProjectID:       projects.ref(n.ProjectID),
			Date:            date,
			Type:            fallback(n.Type, "-"),
			Description:     n.Description,
			Amount:          n.Amount.Decimal,
			ReferenceNumber: n.ReferenceNumber,
			PaidTo:          n.PaidTo,
		}

		if name, qty, unit, isWithdrawal := movement.ParseWithdrawal(n.Type, n.Description); isWithdrawal {
			if id, found := itemsByName[name]; found {
				e.WithdrawalItemID = &id
			}
			e.WithdrawalQuantity = &qty
			e.WithdrawalUnit = unit
			counts.Withdrawals++
		}

		if err := im.expenseRepo.Create(ctx, e); err != nil {
			return fmt.Errorf("expense %s: %w", key, err)
		}
		counts.Expenses++
	}
	return nil
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
