package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// costDecimals is the scale of the stored cost column.
const costDecimals = 2

// Part is a spare part or component consumed by a ticket's repair.
type Part struct {
	ID               int64
	TicketID         int64
	Name             string
	Serial           *string
	EAN              *string
	RegistrationDate time.Time
	Cost             decimal.Decimal
	Quantity         int
	RegisteredBy     *UserRef
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CostTotal is unit cost times quantity, derived on every read.
func (p *Part) CostTotal() decimal.Decimal {
	return p.Cost.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// Validate checks the invariants every persisted part must hold.
func (p *Part) Validate() error {
	errs := FieldErrors{}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs["nombre"] = "name is required"
	} else if utf8.RuneCountInString(name) > 200 {
		errs["nombre"] = "name must be at most 200 characters"
	}
	if !p.Cost.IsPositive() {
		errs["costo"] = "cost must be greater than zero"
	} else if p.Cost.GreaterThanOrEqual(decimal.New(1, 8)) {
		errs["costo"] = "cost must have at most 8 integer digits"
	} else if !p.Cost.Equal(p.Cost.Round(costDecimals)) {
		errs["costo"] = "cost must have at most 2 decimal places"
	}
	if p.Quantity <= 0 {
		errs["cantidad"] = "quantity must be greater than zero"
	}
	if p.Serial != nil && utf8.RuneCountInString(*p.Serial) > 100 {
		errs["serial"] = "serial must be at most 100 characters"
	}
	if p.EAN != nil && utf8.RuneCountInString(*p.EAN) > 50 {
		errs["ean"] = "ean must be at most 50 characters"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PartsTotal sums the derived totals of parts.
func PartsTotal(parts []Part) decimal.Decimal {
	total := decimal.Zero
	for i := range parts {
		total = total.Add(parts[i].CostTotal())
	}
	return total
}

// FieldErrors maps a field name to its validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return strings.Join(msgs, "; ")
}
