package lineitems

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	lookups Lookups
	fail    map[string]error
}

func (s stubSource) Products(ctx context.Context) ([]Product, error) {
	if err := s.fail[LookupProducts]; err != nil {
		return nil, err
	}
	return s.lookups.Products, nil
}

func (s stubSource) TaxCodes(ctx context.Context) ([]TaxCode, error) {
	if err := s.fail[LookupTaxCodes]; err != nil {
		return nil, err
	}
	return s.lookups.TaxCodes, nil
}

func (s stubSource) UOMs(ctx context.Context) ([]UOM, error) {
	if err := s.fail[LookupUOMs]; err != nil {
		return nil, err
	}
	return s.lookups.UOMs, nil
}

func (s stubSource) Warehouses(ctx context.Context) ([]Warehouse, error) {
	if err := s.fail[LookupWarehouses]; err != nil {
		return nil, err
	}
	return s.lookups.Warehouses, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadLookupsAllSucceed(t *testing.T) {
	src := stubSource{lookups: testLookups()}

	got, failures := LoadLookups(context.Background(), src, quietLogger())
	assert.Empty(t, failures)
	assert.Equal(t, testLookups(), got)
}

func TestLoadLookupsToleratesPartialFailure(t *testing.T) {
	boom := errors.New("connection refused")
	src := stubSource{
		lookups: testLookups(),
		fail:    map[string]error{LookupTaxCodes: boom, LookupWarehouses: boom},
	}

	got, failures := LoadLookups(context.Background(), src, quietLogger())
	require.Len(t, failures, 2)
	assert.Equal(t, LookupTaxCodes, failures[0].Lookup)
	assert.Equal(t, LookupWarehouses, failures[1].Lookup)
	assert.ErrorIs(t, failures[0], boom)

	assert.Len(t, got.Products, 2)
	assert.Len(t, got.UOMs, 2)
	assert.Empty(t, got.TaxCodes)
	assert.Empty(t, got.Warehouses)
}

func TestEngineStaysEditableWhenLookupsFail(t *testing.T) {
	boom := errors.New("timeout")
	src := stubSource{fail: map[string]error{
		LookupProducts: boom, LookupTaxCodes: boom, LookupUOMs: boom, LookupWarehouses: boom,
	}}
	e, err := NewEngine(nil, PriceRetail)
	require.NoError(t, err)

	failures := e.Reload(context.Background(), src, quietLogger())
	require.Len(t, failures, 4)

	id := e.Items()[0].ID
	_, err = e.ChangeField(id, FieldQuantity, "2")
	require.NoError(t, err)
	item, err := e.ChangeField(id, FieldPrice, "10")
	require.NoError(t, err)
	assert.Equal(t, "20.00", item.Total)
}

func TestLookupFinders(t *testing.T) {
	l := testLookups()

	_, ok := l.FindProduct("SKU-2")
	assert.True(t, ok)
	_, ok = l.FindTax("")
	assert.False(t, ok)
	_, ok = l.FindUOM("KG")
	assert.True(t, ok)
	_, ok = l.FindWarehouse("WH-B")
	assert.False(t, ok)
	assert.True(t, l.TaxRate("missing").IsZero())
}
