package lineitems

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultQuantity = "1"
	defaultPrice    = "0"
)

// Option customises an Engine.
type Option func(*Engine)

// WithIDGenerator overrides how new row ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithLookups seeds the reference lists.
func WithLookups(l Lookups) Option {
	return func(e *Engine) {
		e.lookups = l
	}
}

// Engine owns the rows of one order or invoice form. Only quantity, price and
// tax code are stored; tax and totals are derived whenever rows are read, so
// they always reflect the current tax list. Safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	items      []LineItem
	lookups    Lookups
	priceField PriceField
	newID      func() string
}

// NewEngine starts a form with initial rows, or a single empty row when there
// are none. priceField selects the product price used on product selection.
func NewEngine(initial []LineItem, priceField PriceField, opts ...Option) (*Engine, error) {
	field, err := ParsePriceField(string(priceField))
	if err != nil {
		return nil, err
	}
	e := &Engine{
		priceField: field,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, item := range initial {
		if item.ID == "" {
			item.ID = ID(e.newID())
		}
		item.TaxPrice, item.Total = "", ""
		item.Extra = cloneExtra(item.Extra)
		e.items = append(e.items, item)
	}
	if len(e.items) == 0 {
		e.items = append(e.items, e.blankRow())
	}
	return e, nil
}

// PriceField reports which product price seeds new selections.
func (e *Engine) PriceField() PriceField {
	return e.priceField
}

// AddRow appends an empty row and returns it.
func (e *Engine) AddRow() LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	row := e.blankRow()
	e.items = append(e.items, row)
	return e.priced(row)
}

// RemoveRow deletes the row with id. It reports false when no row matched.
func (e *Engine) RemoveRow(id ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.items {
		if e.items[i].ID == id {
			e.items = append(e.items[:i:i], e.items[i+1:]...)
			return true
		}
	}
	return false
}

// ChangeField stores raw as typed. Unknown field names are kept as free text.
func (e *Engine) ChangeField(id ID, field Field, raw string) (LineItem, error) {
	switch field {
	case FieldID, FieldTaxPrice, FieldTotal:
		return LineItem{}, fmt.Errorf("%w: %s", ErrReadOnlyField, field)
	}
	return e.update(id, func(item *LineItem) {
		switch field {
		case FieldProductCode:
			item.ProductCode = raw
		case FieldProductName:
			item.ProductName = raw
		case FieldUOM:
			item.UOM = raw
		case FieldWarehouseLocation:
			item.WarehouseLocation = raw
		case FieldTaxCode:
			item.TaxCode = raw
		case FieldQuantity:
			item.Quantity = raw
		case FieldPrice:
			item.Price = raw
		default:
			if item.Extra == nil {
				item.Extra = make(map[string]string)
			}
			item.Extra[string(field)] = raw
		}
	})
}

// SelectProduct copies code, name, unit and the configured price from p.
func (e *Engine) SelectProduct(id ID, p Product) (LineItem, error) {
	price := p.Price(e.priceField).String()
	return e.update(id, func(item *LineItem) {
		item.ProductCode = p.SKU
		item.ProductName = p.Name
		item.UOM = p.UOM
		item.Price = price
	})
}

// SelectUOM sets the row's unit.
func (e *Engine) SelectUOM(id ID, u UOM) (LineItem, error) {
	return e.update(id, func(item *LineItem) {
		item.UOM = u.Name
	})
}

// SelectWarehouse sets the row's stock location.
func (e *Engine) SelectWarehouse(id ID, w Warehouse) (LineItem, error) {
	return e.update(id, func(item *LineItem) {
		item.WarehouseLocation = w.Code
	})
}

// SelectTax sets the row's tax code.
func (e *Engine) SelectTax(id ID, t TaxCode) (LineItem, error) {
	return e.update(id, func(item *LineItem) {
		item.TaxCode = t.TaxCode
	})
}

// Item returns the priced row with id.
func (e *Engine) Item(id ID) (LineItem, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, item := range e.items {
		if item.ID == id {
			return e.priced(item), true
		}
	}
	return LineItem{}, false
}

// Items returns every row with tax and total filled in.
func (e *Engine) Items() []LineItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]LineItem, 0, len(e.items))
	for _, item := range e.items {
		out = append(out, e.priced(item))
	}
	return out
}

// Len returns the number of rows.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.items)
}

// Summary totals the current rows.
func (e *Engine) Summary() Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	productTotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, item := range e.items {
		amounts := e.amounts(item)
		productTotal = productTotal.Add(amounts.base)
		taxTotal = taxTotal.Add(amounts.tax.Round(2))
	}
	productTotal = productTotal.Round(2)
	return Summary{
		ProductTotal: FormatAmount(productTotal),
		TaxTotal:     FormatAmount(taxTotal),
		NetTotal:     FormatAmount(productTotal.Add(taxTotal)),
	}
}

// Lookups returns the reference lists currently in use.
func (e *Engine) Lookups() Lookups {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lookups
}

// SetLookups replaces the reference lists. Rows are repriced on next read.
func (e *Engine) SetLookups(l Lookups) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lookups = l
}

// Reload fetches the reference lists from src and installs whatever loaded.
func (e *Engine) Reload(ctx context.Context, src LookupSource, logger *slog.Logger) []LookupError {
	l, failures := LoadLookups(ctx, src, logger)
	e.SetLookups(l)
	return failures
}

func (e *Engine) update(id ID, mutate func(*LineItem)) (LineItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.items {
		if e.items[i].ID == id {
			mutate(&e.items[i])
			return e.priced(e.items[i]), nil
		}
	}
	return LineItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

func (e *Engine) blankRow() LineItem {
	return LineItem{
		ID:       ID(e.newID()),
		Quantity: defaultQuantity,
		Price:    defaultPrice,
	}
}

type lineAmounts struct {
	base decimal.Decimal
	tax  decimal.Decimal
}

func (e *Engine) amounts(item LineItem) lineAmounts {
	base := ParseAmount(item.Quantity).Mul(ParseAmount(item.Price))
	rate := e.lookups.TaxRate(item.TaxCode)
	return lineAmounts{base: base, tax: base.Mul(rate).Div(hundred)}
}

func (e *Engine) priced(item LineItem) LineItem {
	a := e.amounts(item)
	item.TaxPrice = FormatAmount(a.tax)
	item.Total = FormatAmount(a.base.Add(a.tax))
	item.Extra = cloneExtra(item.Extra)
	return item
}

func cloneExtra(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
