package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
)

// Config holds runtime configuration for the console.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	RateLimit         int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	APIBaseURL string        `envconfig:"API_BASE_URL" required:"true"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`

	ProductsPath        string `envconfig:"API_PRODUCTS_PATH"`
	TaxDeclarationsPath string `envconfig:"API_TAX_DECLARATIONS_PATH"`
	UOMsPath            string `envconfig:"API_UOMS_PATH"`
	WarehousesPath      string `envconfig:"API_WAREHOUSES_PATH"`
	CustomersPath       string `envconfig:"API_CUSTOMERS_PATH"`
	VendorsPath         string `envconfig:"API_VENDORS_PATH"`
	PurchaseOrdersPath  string `envconfig:"API_PURCHASE_ORDERS_PATH"`
	SalesOrdersPath     string `envconfig:"API_SALES_ORDERS_PATH"`
	ARInvoicesPath      string `envconfig:"API_AR_INVOICES_PATH"`
	APInvoicesPath      string `envconfig:"API_AP_INVOICES_PATH"`

	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	LookupCacheTTL time.Duration `envconfig:"LOOKUP_CACHE_TTL" default:"5m"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	ListPageSize      int           `envconfig:"LIST_PAGE_SIZE" default:"10"`
	SearchDebounce    time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"450ms"`
	FormSessionTTL    time.Duration `envconfig:"FORM_SESSION_TTL" default:"30m"`
	DefaultPriceField string        `envconfig:"DEFAULT_PRICE_FIELD" default:"wholesalePrice"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api base url must be provided")
	}
	if c.ListPageSize <= 0 {
		return fmt.Errorf("list page size must be positive, got %d", c.ListPageSize)
	}
	if c.FormSessionTTL <= 0 {
		return errors.New("form session ttl must be positive")
	}
	if c.SearchDebounce < 0 {
		return errors.New("search debounce must not be negative")
	}
	if _, err := lineitems.ParsePriceField(c.DefaultPriceField); err != nil {
		return err
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// PriceField returns the configured default price column.
func (c *Config) PriceField() lineitems.PriceField {
	field, err := lineitems.ParsePriceField(c.DefaultPriceField)
	if err != nil {
		return lineitems.PriceWholesale
	}
	return field
}

// APIConfig builds the backend client configuration.
func (c *Config) APIConfig() apiclient.Config {
	return apiclient.Config{
		BaseURL: c.APIBaseURL,
		Timeout: c.APITimeout,
		Endpoints: apiclient.Endpoints{
			Products:        c.ProductsPath,
			TaxDeclarations: c.TaxDeclarationsPath,
			UOMs:            c.UOMsPath,
			Warehouses:      c.WarehousesPath,
			Customers:       c.CustomersPath,
			Vendors:         c.VendorsPath,
			PurchaseOrders:  c.PurchaseOrdersPath,
			SalesOrders:     c.SalesOrdersPath,
			ARInvoices:      c.ARInvoicesPath,
			APInvoices:      c.APInvoicesPath,
		}.WithDefaults(),
	}
}
