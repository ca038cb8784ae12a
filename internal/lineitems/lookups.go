package lineitems

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Lookup names used when reporting load failures.
const (
	LookupProducts   = "products"
	LookupTaxCodes   = "taxCodes"
	LookupUOMs       = "uoms"
	LookupWarehouses = "warehouses"
)

// Lookups holds the reference lists a form session selects from. They are
// read-only to the engine and replaced wholesale on reload.
type Lookups struct {
	Products   []Product   `json:"products"`
	TaxCodes   []TaxCode   `json:"taxCodes"`
	UOMs       []UOM       `json:"uoms"`
	Warehouses []Warehouse `json:"warehouses"`
}

// TaxRate returns the percentage for code, or zero when the code is not loaded.
func (l Lookups) TaxRate(code string) decimal.Decimal {
	if tax, ok := l.FindTax(code); ok {
		return tax.TotalPercentage
	}
	return decimal.Zero
}

// FindProduct looks a product up by SKU.
func (l Lookups) FindProduct(sku string) (Product, bool) {
	for _, p := range l.Products {
		if p.SKU == sku {
			return p, true
		}
	}
	return Product{}, false
}

// FindTax looks a tax declaration up by code.
func (l Lookups) FindTax(code string) (TaxCode, bool) {
	if code == "" {
		return TaxCode{}, false
	}
	for _, t := range l.TaxCodes {
		if t.TaxCode == code {
			return t, true
		}
	}
	return TaxCode{}, false
}

// FindUOM looks a unit up by name.
func (l Lookups) FindUOM(name string) (UOM, bool) {
	for _, u := range l.UOMs {
		if u.Name == name {
			return u, true
		}
	}
	return UOM{}, false
}

// FindWarehouse looks a warehouse up by code.
func (l Lookups) FindWarehouse(code string) (Warehouse, bool) {
	for _, w := range l.Warehouses {
		if w.Code == code {
			return w, true
		}
	}
	return Warehouse{}, false
}

// LookupSource fetches the four reference lists.
type LookupSource interface {
	Products(ctx context.Context) ([]Product, error)
	TaxCodes(ctx context.Context) ([]TaxCode, error)
	UOMs(ctx context.Context) ([]UOM, error)
	Warehouses(ctx context.Context) ([]Warehouse, error)
}

// LookupError records one reference list that could not be loaded.
type LookupError struct {
	Lookup string `json:"lookup"`
	Err    error  `json:"-"`
}

func (e LookupError) Error() string {
	return fmt.Sprintf("lineitems: load %s: %v", e.Lookup, e.Err)
}

func (e LookupError) Unwrap() error { return e.Err }

// LoadLookups fetches all reference lists concurrently. A failing list is
// logged and reported but never stops the others; the returned Lookups holds
// whatever did load.
func LoadLookups(ctx context.Context, src LookupSource, logger *slog.Logger) (Lookups, []LookupError) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		out      Lookups
		mu       sync.Mutex
		failures [4]*LookupError
		g        errgroup.Group
	)
	fail := func(slot int, name string, err error) {
		logger.Warn("load lookup failed", slog.String("lookup", name), slog.Any("error", err))
		mu.Lock()
		failures[slot] = &LookupError{Lookup: name, Err: err}
		mu.Unlock()
	}

	g.Go(func() error {
		items, err := src.Products(ctx)
		if err != nil {
			fail(0, LookupProducts, err)
			return nil
		}
		out.Products = items
		return nil
	})
	g.Go(func() error {
		items, err := src.TaxCodes(ctx)
		if err != nil {
			fail(1, LookupTaxCodes, err)
			return nil
		}
		out.TaxCodes = items
		return nil
	})
	g.Go(func() error {
		items, err := src.UOMs(ctx)
		if err != nil {
			fail(2, LookupUOMs, err)
			return nil
		}
		out.UOMs = items
		return nil
	})
	g.Go(func() error {
		items, err := src.Warehouses(ctx)
		if err != nil {
			fail(3, LookupWarehouses, err)
			return nil
		}
		out.Warehouses = items
		return nil
	})
	_ = g.Wait()

	var errs []LookupError
	for _, f := range failures {
		if f != nil {
			errs = append(errs, *f)
		}
	}
	return out, errs
}
