package service

import (
	"context"
	"fmt"
	"strings"

	"sitebooks/internal/model"
	"sitebooks/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseLineRequest struct {
	ItemID      string          `json:"item_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type PurchaseRequest struct {
	Date          string                `json:"date"`
	InvoiceNumber string                `json:"invoice_number"`
	PurchaseType  string                `json:"purchase_type" binding:"required"`
	SupplierID    string                `json:"supplier_id"`
	ProjectID     string                `json:"project_id"`
	Notes         string                `json:"notes"`
	Items         []PurchaseLineRequest `json:"items" binding:"required,min=1"`
}

// PurchaseHeaderRequest edits an invoice without touching its lines.
type PurchaseHeaderRequest struct {
	Date          string `json:"date"`
	InvoiceNumber string `json:"invoice_number"`
	SupplierID    string `json:"supplier_id"`
	ProjectID     string `json:"project_id"`
	Notes         string `json:"notes"`
}

type PurchaseService interface {
	ListPurchases(ctx context.Context, purchaseType string, page, limit int) ([]model.PurchaseInvoice, int64, error)
	AllPurchases(ctx context.Context) ([]model.PurchaseInvoice, error)
	GetPurchase(ctx context.Context, id string) (*model.PurchaseInvoice, error)
	// CreatePurchase stores the invoice. Inventory invoices also receive their
	// lines into stock at the invoice unit price.
	CreatePurchase(ctx context.Context, actor string, req PurchaseRequest) (*model.PurchaseInvoice, error)
	UpdatePurchase(ctx context.Context, actor, id string, req PurchaseHeaderRequest) (*model.PurchaseInvoice, error)
	// DeletePurchase removes the invoice and takes received stock back out.
	DeletePurchase(ctx context.Context, actor, id string) error
}

type purchaseService struct {
	writer
	purchaseRepo  repository.PurchaseRepository
	inventoryRepo repository.InventoryRepository
	stockRepo     repository.StockRepository
	partnerRepo   repository.PartnerRepository
	projectRepo   repository.ProjectRepository
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	inventoryRepo repository.InventoryRepository,
	stockRepo repository.StockRepository,
	partnerRepo repository.PartnerRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	feed ChangeFeed,
) PurchaseService {
	return &purchaseService{
		writer:        newWriter(txManager, auditRepo, feed),
		purchaseRepo:  purchaseRepo,
		inventoryRepo: inventoryRepo,
		stockRepo:     stockRepo,
		partnerRepo:   partnerRepo,
		projectRepo:   projectRepo,
	}
}

func (s *purchaseService) ListPurchases(ctx context.Context, purchaseType string, page, limit int) ([]model.PurchaseInvoice, int64, error) {
	if purchaseType != "" && purchaseType != model.PurchaseTypeInventory && purchaseType != model.PurchaseTypeDirect {
		return nil, 0, invalid("unknown purchase type %q", purchaseType)
	}
	page, limit = normalizePage(page, limit)
	return s.purchaseRepo.List(ctx, purchaseType, page, limit)
}

func (s *purchaseService) AllPurchases(ctx context.Context) ([]model.PurchaseInvoice, error) {
	return s.purchaseRepo.All(ctx)
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (*model.PurchaseInvoice, error) {
	uid, err := parseID(id, "purchase")
	if err != nil {
		return nil, err
	}
	invoice, err := s.purchaseRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, lookupError(err, "purchase")
	}
	return invoice, nil
}

// references resolves and checks the supplier and project of an invoice.
func (s *purchaseService) references(ctx context.Context, supplier, project string) (*uuid.UUID, *uuid.UUID, error) {
	supplierID, err := parseOptionalID(supplier, "supplier")
	if err != nil {
		return nil, nil, err
	}
	projectID, err := parseOptionalID(project, "project")
	if err != nil {
		return nil, nil, err
	}
	if supplierID != nil {
		p, err := s.partnerRepo.FindByID(ctx, *supplierID)
		if err != nil {
			return nil, nil, lookupError(err, "supplier")
		}
		if p.Kind != model.PartnerKindSupplier {
			return nil, nil, invalid("%s is not a supplier", p.Name)
		}
	}
	if projectID != nil {
		if _, err := s.projectRepo.FindByID(ctx, *projectID); err != nil {
			return nil, nil, lookupError(err, "project")
		}
	}
	return supplierID, projectID, nil
}

func (s *purchaseService) CreatePurchase(ctx context.Context, actor string, req PurchaseRequest) (*model.PurchaseInvoice, error) {
	if req.PurchaseType != model.PurchaseTypeInventory && req.PurchaseType != model.PurchaseTypeDirect {
		return nil, invalid("purchase type must be %q or %q", model.PurchaseTypeInventory, model.PurchaseTypeDirect)
	}
	if len(req.Items) == 0 {
		return nil, invalid("an invoice needs at least one item")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	supplierID, projectID, err := s.references(ctx, req.SupplierID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	invoice := &model.PurchaseInvoice{
		Date:          date,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		PurchaseType:  req.PurchaseType,
		SupplierID:    supplierID,
		ProjectID:     projectID,
		Notes:         req.Notes,
		Total:         decimal.Zero,
	}
	for i, line := range req.Items {
		if !line.Quantity.IsPositive() {
			return nil, invalid("item %d: quantity must be greater than zero", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return nil, invalid("item %d: unit price cannot be negative", i+1)
		}
		itemID, err := parseOptionalID(line.ItemID, "item")
		if err != nil {
			return nil, err
		}
		if itemID == nil && req.PurchaseType == model.PurchaseTypeInventory {
			return nil, invalid("item %d: inventory purchases must name a stock item", i+1)
		}
		total := line.Quantity.Mul(line.UnitPrice)
		invoice.Items = append(invoice.Items, model.PurchaseItem{
			ItemID:      itemID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Total:       total,
		})
		invoice.Total = invoice.Total.Add(total)
	}

	paths := []string{PathPurchases}
	if invoice.PurchaseType == model.PurchaseTypeInventory {
		paths = append(paths, PathInventoryItems)
	}

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.purchaseRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}
		if invoice.PurchaseType == model.PurchaseTypeInventory {
			for _, line := range invoice.Items {
				if err := s.receive(txCtx, invoice.ID, line); err != nil {
					return err
				}
			}
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionCreate, entityType: "purchase",
			entityID: invoice.ID, entityName: invoice.InvoiceNumber, details: req,
		})
	}, paths...)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// receive adds one invoice line to stock. The line's unit price becomes the
// item's current cost.
func (s *purchaseService) receive(ctx context.Context, invoiceID uuid.UUID, line model.PurchaseItem) error {
	item, err := s.inventoryRepo.FindForUpdate(ctx, *line.ItemID)
	if err != nil {
		return lookupError(err, "item")
	}
	item.Quantity = item.Quantity.Add(line.Quantity)
	item.UnitCost = line.UnitPrice
	if err := s.inventoryRepo.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return s.stockRepo.Create(ctx, &model.StockTransaction{
		ItemID:          item.ID,
		SourceType:      model.StockSourcePurchase,
		SourceID:        invoiceID,
		Direction:       model.StockIn,
		QuantityChanged: line.Quantity,
		StockAfter:      item.Quantity,
	})
}

func (s *purchaseService) UpdatePurchase(ctx context.Context, actor, id string, req PurchaseHeaderRequest) (*model.PurchaseInvoice, error) {
	invoice, err := s.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	supplierID, projectID, err := s.references(ctx, req.SupplierID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	invoice.Date = date
	invoice.InvoiceNumber = strings.TrimSpace(req.InvoiceNumber)
	invoice.SupplierID = supplierID
	invoice.ProjectID = projectID
	invoice.Notes = req.Notes

	err = s.commit(ctx, func(txCtx context.Context) error {
		if err := s.purchaseRepo.UpdateHeader(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to update purchase: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionUpdate, entityType: "purchase",
			entityID: invoice.ID, entityName: invoice.InvoiceNumber, details: req,
		})
	}, PathPurchases)
	if err != nil {
		return nil, err
	}
	return s.GetPurchase(ctx, id)
}

func (s *purchaseService) DeletePurchase(ctx context.Context, actor, id string) error {
	invoice, err := s.GetPurchase(ctx, id)
	if err != nil {
		return err
	}

	paths := []string{PathPurchases}
	if invoice.PurchaseType == model.PurchaseTypeInventory {
		paths = append(paths, PathInventoryItems)
	}

	return s.commit(ctx, func(txCtx context.Context) error {
		if invoice.PurchaseType == model.PurchaseTypeInventory {
			for _, line := range invoice.Items {
				if line.ItemID == nil {
					continue
				}
				if err := s.reverse(txCtx, invoice.ID, line); err != nil {
					return err
				}
			}
		}
		if err := s.purchaseRepo.Delete(txCtx, invoice.ID); err != nil {
			return fmt.Errorf("failed to delete purchase: %w", err)
		}
		return s.record(txCtx, auditEntry{
			actor: actor, action: model.ActionDelete, entityType: "purchase",
			entityID: invoice.ID, entityName: invoice.InvoiceNumber,
		})
	}, paths...)
}

func (s *purchaseService) reverse(ctx context.Context, invoiceID uuid.UUID, line model.PurchaseItem) error {
	item, err := s.inventoryRepo.FindForUpdate(ctx, *line.ItemID)
	if err != nil {
		return lookupError(err, "item")
	}
	if item.Quantity.LessThan(line.Quantity) {
		return fmt.Errorf("%s: only %s %s left to reverse: %w", item.Name, item.Quantity, item.Unit, ErrInsufficientStock)
	}
	item.Quantity = item.Quantity.Sub(line.Quantity)
	if err := s.inventoryRepo.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return s.stockRepo.Create(ctx, &model.StockTransaction{
		ItemID:          item.ID,
		SourceType:      model.StockSourcePurchaseReversal,
		SourceID:        invoiceID,
		Direction:       model.StockOut,
		QuantityChanged: line.Quantity,
		StockAfter:      item.Quantity,
	})
}
