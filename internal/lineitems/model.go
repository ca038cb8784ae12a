// Package lineitems prices the editable rows of an order or invoice form.
package lineitems

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrItemNotFound is returned when a mutation targets an unknown row.
	ErrItemNotFound = errors.New("lineitems: item not found")
	// ErrInvalidPriceField is returned for an unsupported product price property.
	ErrInvalidPriceField = errors.New("lineitems: invalid price field")
	// ErrReadOnlyField is returned when a caller tries to edit an id or a derived amount.
	ErrReadOnlyField = errors.New("lineitems: field is read-only")
)

// ID identifies a row. Persisted rows carry the server id, which may arrive
// as a JSON number or string.
type ID string

// UnmarshalJSON accepts both string and numeric ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("lineitems: id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Field names the editable properties of a row.
type Field string

const (
	FieldID                Field = "id"
	FieldProductCode       Field = "productCode"
	FieldProductName       Field = "productName"
	FieldUOM               Field = "uom"
	FieldWarehouseLocation Field = "warehouseLocation"
	FieldTaxCode           Field = "taxCode"
	FieldQuantity          Field = "quantity"
	FieldPrice             Field = "price"
	FieldTaxPrice          Field = "taxPrice"
	FieldTotal             Field = "total"
)

// affectsAmounts reports whether editing f changes tax or total.
func (f Field) affectsAmounts() bool {
	return f == FieldQuantity || f == FieldPrice || f == FieldTaxCode
}

// LineItem is one order or invoice row. Quantity and Price hold the text as
// typed. TaxPrice and Total are filled in on read and ignored on input.
type LineItem struct {
	ID                ID                `json:"id"`
	ProductCode       string            `json:"productCode"`
	ProductName       string            `json:"productName"`
	UOM               string            `json:"uom"`
	WarehouseLocation string            `json:"warehouseLocation"`
	TaxCode           string            `json:"taxCode"`
	Quantity          string            `json:"quantity"`
	Price             string            `json:"price"`
	TaxPrice          string            `json:"taxPrice"`
	Total             string            `json:"total"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// PriceField selects which product price seeds a row when a product is picked.
type PriceField string

const (
	PriceWholesale PriceField = "wholesalePrice"
	PriceRetail    PriceField = "retailPrice"
	PricePurchase  PriceField = "purchasePrice"
)

// ParsePriceField validates a configured price property name.
func ParsePriceField(s string) (PriceField, error) {
	f := PriceField(strings.TrimSpace(s))
	switch f {
	case PriceWholesale, PriceRetail, PricePurchase:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriceField, s)
	}
}

// Product is a product master record as served by the backend.
type Product struct {
	SKU            string              `json:"sku" validate:"required,max=64"`
	Name           string              `json:"name" validate:"required,max=200"`
	UOM            string              `json:"uom" validate:"required"`
	WholesalePrice decimal.NullDecimal `json:"wholesalePrice"`
	RetailPrice    decimal.NullDecimal `json:"retailPrice"`
	PurchasePrice  decimal.NullDecimal `json:"purchasePrice"`
}

// Price returns the product's price for field, or zero when it has none.
func (p Product) Price(field PriceField) decimal.Decimal {
	var v decimal.NullDecimal
	switch field {
	case PriceWholesale:
		v = p.WholesalePrice
	case PriceRetail:
		v = p.RetailPrice
	case PricePurchase:
		v = p.PurchasePrice
	}
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// TaxCode is a tax declaration. TotalPercentage is the combined rate in percent.
type TaxCode struct {
	TaxCode         string          `json:"taxCode" validate:"required,max=32"`
	TaxDescription  string          `json:"taxDescription"`
	TotalPercentage decimal.Decimal `json:"totalPercentage"`
}

// UOM is a unit of measure.
type UOM struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// Warehouse is a stock location.
type Warehouse struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name"`
}

// Summary aggregates the priced rows of a document.
type Summary struct {
	ProductTotal string `json:"productTotal"`
	TaxTotal     string `json:"taxTotal"`
	NetTotal     string `json:"netTotal"`
}
