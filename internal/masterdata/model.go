// Package masterdata holds the reference entities maintained from the
// console and serves them to forms as lookups.
package masterdata

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
)

// Resource names accepted by Registry.Raw.
const (
	ResourceProducts        = "products"
	ResourceTaxDeclarations = "taxDeclarations"
	ResourceUOMs            = "uoms"
	ResourceWarehouses      = "warehouses"
	ResourceCustomers       = "customers"
	ResourceVendors         = "vendors"
	ResourcePurchaseOrders  = "purchaseOrders"
	ResourceSalesOrders     = "salesOrders"
	ResourceARInvoices      = "arInvoices"
	ResourceAPInvoices      = "apInvoices"
)

// Reference records shared with the line-item engine.
type (
	Product   = lineitems.Product
	TaxCode   = lineitems.TaxCode
	UOM       = lineitems.UOM
	Warehouse = lineitems.Warehouse
)

// Customer is a party sold to.
type Customer struct {
	Code        string              `json:"code" validate:"required,max=32"`
	Name        string              `json:"name" validate:"required,max=200"`
	Email       string              `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string              `json:"phone,omitempty" validate:"max=32"`
	Address     string              `json:"address,omitempty"`
	TaxNumber   string              `json:"taxNumber,omitempty" validate:"max=32"`
	CreditLimit decimal.NullDecimal `json:"creditLimit"`
}

// Vendor is a party bought from.
type Vendor struct {
	Code         string `json:"code" validate:"required,max=32"`
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string `json:"phone,omitempty" validate:"max=32"`
	Address      string `json:"address,omitempty"`
	TaxNumber    string `json:"taxNumber,omitempty" validate:"max=32"`
	PaymentTerms int    `json:"paymentTerms" validate:"gte=0"`
}
