// Package documents assembles, checks and submits order and invoice forms.
package documents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
)

// ErrUnknownKind is returned for a document kind the console does not handle.
var ErrUnknownKind = errors.New("documents: unknown document kind")

// Kind identifies a document type.
type Kind string

const (
	KindPurchaseOrder Kind = "purchase-order"
	KindSalesOrder    Kind = "sales-order"
	KindARInvoice     Kind = "ar-invoice"
	KindAPInvoice     Kind = "ap-invoice"
)

// Kinds lists every supported document kind.
func Kinds() []Kind {
	return []Kind{KindPurchaseOrder, KindSalesOrder, KindARInvoice, KindAPInvoice}
}

// ParseKind validates s.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Party is the counterparty a document kind is raised against.
type Party string

const (
	PartyCustomer Party = "customer"
	PartyVendor   Party = "vendor"
)

// Definition binds a kind to its endpoint and pricing.
type Definition struct {
	Kind       Kind                 `json:"kind"`
	Title      string               `json:"title"`
	Path       string               `json:"path"`
	Party      Party                `json:"party"`
	PriceField lineitems.PriceField `json:"priceField"`
}

// Definitions returns the definition of every kind for the given endpoints.
// Buying documents price at purchase price; selling documents use selling,
// or retail price when it is blank.
func Definitions(ep apiclient.Endpoints, selling lineitems.PriceField) map[Kind]Definition {
	ep = ep.WithDefaults()
	if selling == "" {
		selling = lineitems.PriceRetail
	}
	return map[Kind]Definition{
		KindPurchaseOrder: {Kind: KindPurchaseOrder, Title: "Purchase Order", Path: ep.PurchaseOrders, Party: PartyVendor, PriceField: lineitems.PricePurchase},
		KindSalesOrder:    {Kind: KindSalesOrder, Title: "Sales Order", Path: ep.SalesOrders, Party: PartyCustomer, PriceField: selling},
		KindARInvoice:     {Kind: KindARInvoice, Title: "AR Invoice", Path: ep.ARInvoices, Party: PartyCustomer, PriceField: selling},
		KindAPInvoice:     {Kind: KindAPInvoice, Title: "AP Invoice", Path: ep.APInvoices, Party: PartyVendor, PriceField: lineitems.PricePurchase},
	}
}

// Header holds the document-level form fields.
type Header struct {
	Number       string `json:"number,omitempty" validate:"max=32"`
	PartyCode    string `json:"partyCode" validate:"required,max=32"`
	DocumentDate string `json:"documentDate" validate:"required,datetime=2006-01-02"`
	DueDate      string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Remarks      string `json:"remarks,omitempty" validate:"max=500"`
}

// Payload is the JSON body sent to and read from the backend.
type Payload struct {
	ID      lineitems.ID         `json:"id,omitempty"`
	Kind    Kind                 `json:"kind"`
	Header  Header               `json:"header"`
	Lines   []lineitems.LineItem `json:"lines" validate:"min=1"`
	Summary lineitems.Summary    `json:"summary"`
}

// BuildPayload snapshots a form: header, priced lines and totals.
func BuildPayload(kind Kind, id lineitems.ID, header Header, engine *lineitems.Engine) Payload {
	return Payload{
		ID:      id,
		Kind:    kind,
		Header:  header,
		Lines:   engine.Items(),
		Summary: engine.Summary(),
	}
}
