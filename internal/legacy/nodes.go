package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Top level nodes of the realtime database tree.
const (
	NodeProjects  = "projects"
	NodeExpenses  = "expenses"
	NodeInventory = "inventory"
	NodePurchases = "purchases"
	NodeSuppliers = "suppliers"
	NodeCustomers = "customers"
	NodeEmployees = "employees"
)

// Amount is a number the old clients stored either as a JSON number or as a
// string, sometimes with thousands separators.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", b, err)
	}
	a.Decimal = d
	return nil
}

type Project struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	ClientName    string `json:"clientName"`
	ContractValue Amount `json:"contractValue"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
}

type Expense struct {
	Date            string `json:"date"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	Amount          Amount `json:"amount"`
	ProjectID       string `json:"projectId"`
	ReferenceNumber string `json:"referenceNumber"`
	PaidTo          string `json:"paidTo"`
}

type Item struct {
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	Category    string `json:"category"`
	Quantity    Amount `json:"quantity"`
	UnitCost    Amount `json:"unitCost"`
	MinQuantity Amount `json:"minQuantity"`
	Notes       string `json:"notes"`
}

type PurchaseLine struct {
	ItemID      string `json:"itemId"`
	Description string `json:"description"`
	Quantity    Amount `json:"quantity"`
	UnitPrice   Amount `json:"unitPrice"`
	Total       Amount `json:"total"`
}

// Lines decodes invoice lines stored as an array, or as an object when the
// array was sparse.
type Lines []PurchaseLine

func (l *Lines) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if b[0] == '[' {
		var raw []*PurchaseLine
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		out := make(Lines, 0, len(raw))
		for _, line := range raw {
			if line != nil {
				out = append(out, *line)
			}
		}
		*l = out
		return nil
	}

	var keyed map[string]PurchaseLine
	if err := json.Unmarshal(b, &keyed); err != nil {
		return err
	}
	out := make(Lines, 0, len(keyed))
	for _, k := range indexKeys(keyed) {
		out = append(out, keyed[k])
	}
	*l = out
	return nil
}

type Purchase struct {
	Date          string `json:"date"`
	InvoiceNumber string `json:"invoiceNumber"`
	PurchaseType  string `json:"purchaseType"`
	SupplierID    string `json:"supplierId"`
	ProjectID     string `json:"projectId"`
	Notes         string `json:"notes"`
	Items         Lines  `json:"items"`
}

type Partner struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	TaxNumber string `json:"taxNumber"`
	Notes     string `json:"notes"`
}

type Employee struct {
	Name       string `json:"name"`
	JobTitle   string `json:"jobTitle"`
	Phone      string `json:"phone"`
	NationalID string `json:"nationalId"`
	BaseSalary Amount `json:"salary"`
	HireDate   string `json:"hireDate"`
	ProjectID  string `json:"projectId"`
	Active     *bool  `json:"active"`
}

// sortedKeys orders push ids, which sort by creation time.
func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// indexKeys orders the keys of a sparse array by index. Keys that are not
// indexes sort after them.
func indexKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil || errB == nil:
			return errA == nil
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04", "2006/01/02"}

// parseDate returns the zero time for dates no layout understands.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
