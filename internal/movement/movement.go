// Package movement derives the inventory movement ledger from purchase
// invoices and stock withdrawal expenses.
package movement

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells inbound from outbound movements.
type Kind string

const (
	KindPurchase   Kind = "purchase"
	KindWithdrawal Kind = "withdrawal"
)

// Text conventions shared with the expense records written on withdrawal.
const (
	WithdrawalTag      = "صرف مخزون:"
	UnknownItem        = "غير معروف"
	UnspecifiedProject = "غير محدد"
	InventoryPurchase  = "inventory"
)

var quantityPattern = regexp.MustCompile(`صرف كمية \((\d+(?:\.\d+)?) ([^)]+)\)`)

// WithdrawalType builds the expense type for a withdrawal of itemName.
func WithdrawalType(itemName string) string {
	return WithdrawalTag + " " + itemName
}

// WithdrawalDescription builds the expense description for a withdrawn quantity.
func WithdrawalDescription(quantity decimal.Decimal, unit string) string {
	return "صرف كمية (" + quantity.String() + " " + unit + ")"
}

// Movement is one derived ledger line. It is never persisted.
type Movement struct {
	ID               string          `json:"id"`
	Date             time.Time       `json:"date"`
	Kind             Kind            `json:"kind"`
	ReferenceNumber  string          `json:"reference_number"`
	CounterpartyName string          `json:"counterparty_name,omitempty"`
	ItemName         string          `json:"item_name"`
	Quantity         decimal.Decimal `json:"quantity"`
	Unit             string          `json:"unit"`
	Cost             decimal.Decimal `json:"cost"`
}

// PurchaseLine is a line of a purchase invoice.
type PurchaseLine struct {
	ItemID   string
	Quantity decimal.Decimal
	Total    decimal.Decimal
}

// PurchaseInvoice is the reconciler's view of a purchase.
type PurchaseInvoice struct {
	ID            string
	Date          time.Time
	InvoiceNumber string
	PurchaseType  string
	SupplierName  string
	Items         []PurchaseLine
}

// WithdrawalInfo carries structured withdrawal fields when an expense has them.
type WithdrawalInfo struct {
	ItemID   string
	Quantity decimal.Decimal
	Unit     string
}

// Expense is the reconciler's view of an expense record.
type Expense struct {
	ID              string
	Date            time.Time
	Type            string
	Description     string
	Amount          decimal.Decimal
	ProjectID       string
	ReferenceNumber string
	Withdrawal      *WithdrawalInfo
}

// CatalogItem is the display data of an inventory item.
type CatalogItem struct {
	Name string
	Unit string
}

// Catalog resolves item and project ids to display names. The zero value is
// an empty catalog and every lookup falls back to a sentinel.
type Catalog struct {
	Items    map[string]CatalogItem
	Projects map[string]string
}

func (c Catalog) item(id string) (CatalogItem, bool) {
	it, ok := c.Items[id]
	return it, ok
}

func (c Catalog) projectName(id string) string {
	if name, ok := c.Projects[id]; ok && name != "" {
		return name
	}
	return UnspecifiedProject
}

// ParseWithdrawal extracts the item name, quantity and unit from the text
// convention of a withdrawal expense. ok is false when expenseType does not
// carry the withdrawal tag. Unmatched parts fall back to UnknownItem, zero
// and "".
func ParseWithdrawal(expenseType, description string) (itemName string, quantity decimal.Decimal, unit string, ok bool) {
	if !strings.HasPrefix(expenseType, WithdrawalTag) {
		return "", decimal.Zero, "", false
	}
	itemName = strings.TrimSpace(strings.TrimPrefix(expenseType, WithdrawalTag))
	if itemName == "" {
		itemName = UnknownItem
	}

	quantity = decimal.Zero
	if m := quantityPattern.FindStringSubmatch(description); m != nil {
		if q, err := decimal.NewFromString(m[1]); err == nil {
			quantity = q
		}
		unit = strings.TrimSpace(m[2])
	}
	return itemName, quantity, unit, true
}

// PurchaseMovements expands inventory purchase invoices into one movement per line.
func PurchaseMovements(invoices []PurchaseInvoice, catalog Catalog) []Movement {
	var out []Movement
	for _, inv := range invoices {
		if inv.PurchaseType != InventoryPurchase {
			continue
		}
		for i, line := range inv.Items {
			name, unit := UnknownItem, ""
			if it, ok := catalog.item(line.ItemID); ok {
				name, unit = it.Name, it.Unit
			}
			out = append(out, Movement{
				ID:               inv.ID + "-" + strconv.Itoa(i),
				Date:             inv.Date,
				Kind:             KindPurchase,
				ReferenceNumber:  inv.InvoiceNumber,
				CounterpartyName: inv.SupplierName,
				ItemName:         name,
				Quantity:         line.Quantity,
				Unit:             unit,
				Cost:             line.Total,
			})
		}
	}
	return out
}

// WithdrawalMovements turns withdrawal expenses into movements and skips
// every other expense.
func WithdrawalMovements(expenses []Expense, catalog Catalog) []Movement {
	var out []Movement
	for _, e := range expenses {
		name, qty, unit, ok := ParseWithdrawal(e.Type, e.Description)
		if !ok {
			continue
		}
		if w := e.Withdrawal; w != nil {
			// Unit preference: structured, then catalog, then the parsed text.
			qty = w.Quantity
			it, found := catalog.item(w.ItemID)
			if found {
				name = it.Name
			}
			switch {
			case w.Unit != "":
				unit = w.Unit
			case found && it.Unit != "":
				unit = it.Unit
			}
		}
		out = append(out, Movement{
			ID:               e.ID,
			Date:             e.Date,
			Kind:             KindWithdrawal,
			ReferenceNumber:  e.ReferenceNumber,
			CounterpartyName: catalog.projectName(e.ProjectID),
			ItemName:         name,
			Quantity:         qty,
			Unit:             unit,
			Cost:             e.Amount,
		})
	}
	return out
}

// Merge concatenates the batches and orders them newest first. Equal dates
// keep their batch order.
func Merge(batches ...[]Movement) []Movement {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make([]Movement, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Reconciler keeps the latest batch from each source and the merged view.
// Each Set call replaces its source batch wholesale.
type Reconciler struct {
	mu          sync.RWMutex
	catalog     Catalog
	invoices    []PurchaseInvoice
	expenses    []Expense
	purchases   []Movement
	withdrawals []Movement
	view        []Movement
}

// NewReconciler returns an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// SetCatalog replaces the lookups and re-derives both batches.
func (r *Reconciler) SetCatalog(c Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog = c
	r.purchases = PurchaseMovements(r.invoices, c)
	r.withdrawals = WithdrawalMovements(r.expenses, c)
	r.view = Merge(r.purchases, r.withdrawals)
}

// SetPurchases replaces the purchase batch.
func (r *Reconciler) SetPurchases(invoices []PurchaseInvoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices = invoices
	r.purchases = PurchaseMovements(invoices, r.catalog)
	r.view = Merge(r.purchases, r.withdrawals)
}

// SetExpenses replaces the withdrawal batch.
func (r *Reconciler) SetExpenses(expenses []Expense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expenses = expenses
	r.withdrawals = WithdrawalMovements(expenses, r.catalog)
	r.view = Merge(r.purchases, r.withdrawals)
}

// Movements returns a copy of the current view.
func (r *Reconciler) Movements() []Movement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Movement, len(r.view))
	copy(out, r.view)
	return out
}
