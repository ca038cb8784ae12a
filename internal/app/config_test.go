package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-console/internal/lineitems"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://erp.example.com/api")
	t.Setenv("API_UOMS_PATH", "/Units")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 10, cfg.ListPageSize)
	assert.Equal(t, 450*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, lineitems.PriceWholesale, cfg.PriceField())
	assert.False(t, cfg.IsProduction())

	api := cfg.APIConfig()
	assert.Equal(t, "https://erp.example.com/api", api.BaseURL)
	assert.Equal(t, "/Units", api.Endpoints.UOMs)
	assert.Equal(t, "/Warehouse", api.Endpoints.Warehouses)
}

func TestLoadConfigRequiresBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:5000")

	t.Setenv("DEFAULT_PRICE_FIELD", "costPrice")
	_, err := LoadConfig()
	require.ErrorIs(t, err, lineitems.ErrInvalidPriceField)

	t.Setenv("DEFAULT_PRICE_FIELD", "retailPrice")
	t.Setenv("LIST_PAGE_SIZE", "0")
	_, err = LoadConfig()
	require.Error(t, err)

	t.Setenv("LIST_PAGE_SIZE", "25")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, lineitems.PriceRetail, cfg.PriceField())
}
