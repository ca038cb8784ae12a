package apiclient

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Endpoints lists the backend resource paths, relative to the base URL.
type Endpoints struct {
	Products        string `json:"products"`
	TaxDeclarations string `json:"taxDeclarations"`
	UOMs            string `json:"uoms"`
	Warehouses      string `json:"warehouses"`
	Customers       string `json:"customers"`
	Vendors         string `json:"vendors"`
	PurchaseOrders  string `json:"purchaseOrders"`
	SalesOrders     string `json:"salesOrders"`
	ARInvoices      string `json:"arInvoices"`
	APInvoices      string `json:"apInvoices"`
}

// DefaultEndpoints returns the paths served by the stock backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Products:        "/Products",
		TaxDeclarations: "/TaxDeclarations",
		UOMs:            "/UOMs",
		Warehouses:      "/Warehouse",
		Customers:       "/Customers",
		Vendors:         "/Vendors",
		PurchaseOrders:  "/PurchaseOrders",
		SalesOrders:     "/SalesOrders",
		ARInvoices:      "/ARInvoices",
		APInvoices:      "/APInvoices",
	}
}

// WithDefaults fills blank paths from DefaultEndpoints.
func (e Endpoints) WithDefaults() Endpoints {
	d := DefaultEndpoints()
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	}
	return Endpoints{
		Products:        pick(e.Products, d.Products),
		TaxDeclarations: pick(e.TaxDeclarations, d.TaxDeclarations),
		UOMs:            pick(e.UOMs, d.UOMs),
		Warehouses:      pick(e.Warehouses, d.Warehouses),
		Customers:       pick(e.Customers, d.Customers),
		Vendors:         pick(e.Vendors, d.Vendors),
		PurchaseOrders:  pick(e.PurchaseOrders, d.PurchaseOrders),
		SalesOrders:     pick(e.SalesOrders, d.SalesOrders),
		ARInvoices:      pick(e.ARInvoices, d.ARInvoices),
		APInvoices:      pick(e.APInvoices, d.APInvoices),
	}
}

// Config is the single place the backend location is configured.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Endpoints Endpoints
}

func (c Config) parse() (*url.URL, error) {
	raw := strings.TrimSpace(c.BaseURL)
	if raw == "" {
		return nil, errors.New("apiclient: base url required")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("apiclient: base url must be http or https")
	}
	return u, nil
}
