package service

import (
	"context"
	"fmt"
	"sync"

	"sitebooks/internal/export"
	"sitebooks/internal/model"
	"sitebooks/internal/movement"
	"sitebooks/internal/realtime"
	"sitebooks/internal/repository"

	"go.uber.org/zap"
)

// MovementService keeps the inventory movement ledger current by following
// the purchase and expense collections.
type MovementService interface {
	// Start loads the item and project catalogs, registers the movements
	// collection and subscribes to its two sources. The /purchases and
	// /expenses collections must already be registered on the hub.
	Start(ctx context.Context) error
	// Stop releases both source subscriptions.
	Stop()
	// Movements reloads the catalogs and returns the current ledger.
	Movements(ctx context.Context) []movement.Movement
	Export(ctx context.Context) ([]byte, error)
}

type movementService struct {
	hub           *realtime.Hub
	inventoryRepo repository.InventoryRepository
	projectRepo   repository.ProjectRepository
	reconciler    *movement.Reconciler
	log           *zap.Logger

	mu   sync.Mutex
	subs []*realtime.Subscription
}

func NewMovementService(hub *realtime.Hub, inventoryRepo repository.InventoryRepository, projectRepo repository.ProjectRepository, log *zap.Logger) MovementService {
	return &movementService{
		hub:           hub,
		inventoryRepo: inventoryRepo,
		projectRepo:   projectRepo,
		reconciler:    movement.NewReconciler(),
		log:           log,
	}
}

func (s *movementService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return nil
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}
	s.reconciler.SetCatalog(catalog)

	// Every load of the collection, including the first snapshot of a new
	// subscriber, sees items and projects created since Start.
	s.hub.Register(PathMovements, func(ctx context.Context) (interface{}, error) {
		s.refreshCatalog(ctx)
		return s.reconciler.Movements(), nil
	})

	purchases, err := s.hub.Subscribe(ctx, PathPurchases, s.onPurchases)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", PathPurchases, err)
	}
	expenses, err := s.hub.Subscribe(ctx, PathExpenses, s.onExpenses)
	if err != nil {
		purchases.Close()
		return fmt.Errorf("subscribe %s: %w", PathExpenses, err)
	}
	s.subs = []*realtime.Subscription{purchases, expenses}
	return nil
}

func (s *movementService) Stop() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// refreshCatalog swaps in freshly loaded catalogs. On failure the previous
// ones stay and unresolved ids keep their sentinels.
func (s *movementService) refreshCatalog(ctx context.Context) {
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		s.log.Warn("catalog reload failed", zap.Error(err))
		return
	}
	s.reconciler.SetCatalog(catalog)
}

func (s *movementService) loadCatalog(ctx context.Context) (movement.Catalog, error) {
	items, err := s.inventoryRepo.All(ctx)
	if err != nil {
		return movement.Catalog{}, fmt.Errorf("load item catalog: %w", err)
	}
	projects, err := s.projectRepo.All(ctx)
	if err != nil {
		return movement.Catalog{}, fmt.Errorf("load project catalog: %w", err)
	}

	catalog := movement.Catalog{
		Items:    make(map[string]movement.CatalogItem, len(items)),
		Projects: make(map[string]string, len(projects)),
	}
	for _, it := range items {
		catalog.Items[it.ID.String()] = movement.CatalogItem{Name: it.Name, Unit: it.Unit}
	}
	for _, p := range projects {
		catalog.Projects[p.ID.String()] = p.Name
	}
	return catalog, nil
}

func (s *movementService) onPurchases(snap realtime.Snapshot) {
	invoices, ok := snap.Data.([]model.PurchaseInvoice)
	if !ok {
		s.log.Warn("unexpected snapshot type", zap.String("path", snap.Path), zap.String("type", fmt.Sprintf("%T", snap.Data)))
		return
	}
	s.reconciler.SetPurchases(toMovementPurchases(invoices))
	s.hub.Touch(context.Background(), PathMovements)
}

func (s *movementService) onExpenses(snap realtime.Snapshot) {
	expenses, ok := snap.Data.([]model.Expense)
	if !ok {
		s.log.Warn("unexpected snapshot type", zap.String("path", snap.Path), zap.String("type", fmt.Sprintf("%T", snap.Data)))
		return
	}
	s.reconciler.SetExpenses(toMovementExpenses(expenses))
	s.hub.Touch(context.Background(), PathMovements)
}

func toMovementPurchases(invoices []model.PurchaseInvoice) []movement.PurchaseInvoice {
	out := make([]movement.PurchaseInvoice, 0, len(invoices))
	for _, inv := range invoices {
		p := movement.PurchaseInvoice{
			ID:            inv.ID.String(),
			Date:          inv.Date,
			InvoiceNumber: inv.InvoiceNumber,
			PurchaseType:  inv.PurchaseType,
		}
		if inv.Supplier != nil {
			p.SupplierName = inv.Supplier.Name
		}
		for _, line := range inv.Items {
			itemID := ""
			if line.ItemID != nil {
				itemID = line.ItemID.String()
			}
			p.Items = append(p.Items, movement.PurchaseLine{ItemID: itemID, Quantity: line.Quantity, Total: line.Total})
		}
		out = append(out, p)
	}
	return out
}

func toMovementExpenses(expenses []model.Expense) []movement.Expense {
	out := make([]movement.Expense, 0, len(expenses))
	for _, e := range expenses {
		m := movement.Expense{
			ID:              e.ID.String(),
			Date:            e.Date,
			Type:            e.Type,
			Description:     e.Description,
			Amount:          e.Amount,
			ReferenceNumber: e.ReferenceNumber,
		}
		if e.ProjectID != nil {
			m.ProjectID = e.ProjectID.String()
		}
		if e.WithdrawalItemID != nil && e.WithdrawalQuantity != nil {
			m.Withdrawal = &movement.WithdrawalInfo{
				ItemID:   e.WithdrawalItemID.String(),
				Quantity: *e.WithdrawalQuantity,
				Unit:     e.WithdrawalUnit,
			}
		}
		out = append(out, m)
	}
	return out
}

func (s *movementService) Movements(ctx context.Context) []movement.Movement {
	s.refreshCatalog(ctx)
	return s.reconciler.Movements()
}

var movementKindNames = map[movement.Kind]string{
	movement.KindPurchase:   "وارد",
	movement.KindWithdrawal: "صادر",
}

func (s *movementService) Export(ctx context.Context) ([]byte, error) {
	sheet := export.Sheet{
		Name: "حركة المخزون",
		Columns: []export.Column{
			{Header: "التاريخ", Width: 14},
			{Header: "الحركة", Width: 10},
			{Header: "رقم المرجع"},
			{Header: "المورد / المشروع", Width: 24},
			{Header: "الصنف", Width: 24},
			{Header: "الكمية", Width: 12},
			{Header: "الوحدة", Width: 10},
			{Header: "التكلفة", Width: 14},
		},
	}
	for _, m := range s.Movements(ctx) {
		sheet.Rows = append(sheet.Rows, []interface{}{
			m.Date, movementKindNames[m.Kind], m.ReferenceNumber, m.CounterpartyName, m.ItemName, m.Quantity, m.Unit, m.Cost,
		})
	}
	return export.Workbook(sheet)
}
