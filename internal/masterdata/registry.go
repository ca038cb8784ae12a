package masterdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/crud"
	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
	"github.com/odyssey-erp/odyssey-console/internal/pagination"
	"github.com/odyssey-erp/odyssey-console/internal/platform/cache"
)

var (
	// ErrUnknownResource is returned for names the registry does not serve.
	ErrUnknownResource = errors.New("masterdata: unknown resource")
	// ErrNotEditable is returned when a resource is maintained elsewhere,
	// such as documents edited through form sessions.
	ErrNotEditable = errors.New("masterdata: resource is not editable here")
)

// schemas validates raw records of the editable entities.
var schemas = map[string]func(map[string]any) error{
	ResourceProducts:        crud.ValidateAs[Product],
	ResourceTaxDeclarations: crud.ValidateAs[TaxCode],
	ResourceUOMs:            crud.ValidateAs[UOM],
	ResourceWarehouses:      crud.ValidateAs[Warehouse],
	ResourceCustomers:       crud.ValidateAs[Customer],
	ResourceVendors:         crud.ValidateAs[Vendor],
}

// Registry holds one resource per master-data entity and feeds form lookups.
// Lookup lists go through the Redis cache when one is configured.
type Registry struct {
	Products        *crud.Resource[Product]
	TaxDeclarations *crud.Resource[TaxCode]
	UOMs            *crud.Resource[UOM]
	Warehouses      *crud.Resource[Warehouse]
	Customers       *crud.Resource[Customer]
	Vendors         *crud.Resource[Vendor]

	client *apiclient.Client
	paths  map[string]string
	cache  *cache.LookupCache
	logger *slog.Logger
}

// NewRegistry binds every entity to its configured endpoint. lookupCache may be nil.
func NewRegistry(client *apiclient.Client, lookupCache *cache.LookupCache, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	ep := client.Endpoints()
	return &Registry{
		Products:        crud.NewResource[Product](client, ep.Products),
		TaxDeclarations: crud.NewResource[TaxCode](client, ep.TaxDeclarations),
		UOMs:            crud.NewResource[UOM](client, ep.UOMs),
		Warehouses:      crud.NewResource[Warehouse](client, ep.Warehouses),
		Customers:       crud.NewResource[Customer](client, ep.Customers),
		Vendors:         crud.NewResource[Vendor](client, ep.Vendors),
		client:          client,
		paths: map[string]string{
			ResourceProducts:        ep.Products,
			ResourceTaxDeclarations: ep.TaxDeclarations,
			ResourceUOMs:            ep.UOMs,
			ResourceWarehouses:      ep.Warehouses,
			ResourceCustomers:       ep.Customers,
			ResourceVendors:         ep.Vendors,
			ResourcePurchaseOrders:  ep.PurchaseOrders,
			ResourceSalesOrders:     ep.SalesOrders,
			ResourceARInvoices:      ep.ARInvoices,
			ResourceAPInvoices:      ep.APInvoices,
		},
		cache:  lookupCache,
		logger: logger,
	}
}

// Names lists the resources Raw knows, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.paths))
	for name := range r.paths {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Raw returns an untyped resource for list screens that only display fields.
func (r *Registry) Raw(name string) (*crud.Resource[map[string]any], bool) {
	path, ok := r.paths[name]
	if !ok {
		return nil, false
	}
	return crud.NewResource[map[string]any](r.client, path), true
}

// Editor returns a list view for maintaining a master-data entity. Writes
// are checked against the entity's validation tags before they are sent.
func (r *Registry) Editor(name string, pageSize int) (*crud.ListView[map[string]any], error) {
	path, ok := r.paths[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	check, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotEditable, name)
	}
	res := crud.NewResource[map[string]any](r.client, path, crud.WithValidator(check))
	return crud.NewListView(res, pageSize, pagination.MapAccessor, r.logger)
}

// InvalidateLookups drops every cached lookup list, e.g. after a master
// record was edited.
func (r *Registry) InvalidateLookups(ctx context.Context) error {
	return r.cache.Bump(ctx)
}

// Lookups adapts the registry to lineitems.LookupSource.
func (r *Registry) Lookups() lineitems.LookupSource {
	return lookupSource{r}
}

type lookupSource struct{ r *Registry }

func (s lookupSource) Products(ctx context.Context) ([]Product, error) {
	return cachedList(ctx, s.r, ResourceProducts, s.r.Products)
}

func (s lookupSource) TaxCodes(ctx context.Context) ([]TaxCode, error) {
	return cachedList(ctx, s.r, ResourceTaxDeclarations, s.r.TaxDeclarations)
}

func (s lookupSource) UOMs(ctx context.Context) ([]UOM, error) {
	return cachedList(ctx, s.r, ResourceUOMs, s.r.UOMs)
}

func (s lookupSource) Warehouses(ctx context.Context) ([]Warehouse, error) {
	return cachedList(ctx, s.r, ResourceWarehouses, s.r.Warehouses)
}

// cachedList serves a lookup from the cache. Cache outages fall back to a
// direct fetch; backend failures are returned.
func cachedList[T any](ctx context.Context, r *Registry, name string, res *crud.Resource[T]) ([]T, error) {
	key, err := r.cache.BuildKey(ctx, name)
	if err != nil {
		r.logger.Warn("lookup cache unavailable", slog.String("lookup", name), slog.Any("error", err))
		return res.List(ctx, nil)
	}
	var (
		out     []T
		loadErr error
		loaded  bool
	)
	err = r.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		loaded = true
		items, err := res.List(ctx, nil)
		loadErr = err
		return items, err
	})
	if err == nil {
		return out, nil
	}
	if loaded && loadErr != nil {
		return nil, loadErr
	}
	r.logger.Warn("lookup cache unavailable", slog.String("lookup", name), slog.Any("error", err))
	return res.List(ctx, nil)
}
