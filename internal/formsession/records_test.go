package formsession

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/documents"
	"github.com/odyssey-erp/odyssey-console/internal/masterdata"
	"github.com/odyssey-erp/odyssey-console/internal/pagination"
	"github.com/odyssey-erp/odyssey-console/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-console/internal/platform/httpx"
)

type writtenRecord struct {
	Record map[string]any                   `json:"record"`
	Page   *pagination.Page[map[string]any] `json:"page"`
}

// newCachedEnv serves lookups through a Redis-backed cache.
func newCachedEnv(t *testing.T) *testEnv {
	t.Helper()
	erp := &fakeERP{}
	backend := httptest.NewServer(erp.routes())
	t.Cleanup(backend.Close)
	client, err := apiclient.New(apiclient.Config{BaseURL: backend.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewStore(time.Hour)
	reg := masterdata.NewRegistry(client, cache.NewLookupCache(rdb, time.Hour), nil)
	h := NewHandler(nil, reg, documents.NewService(client, "", nil), store, 5)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return &testEnv{erp: erp, router: r, store: store, handler: h}
}

func uomNames(t *testing.T, env *testEnv, formID string) []string {
	t.Helper()
	rr := env.call(t, http.MethodPost, "/api/forms/"+formID+"/lookups/reload", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[formView](t, rr)
	require.NotNil(t, view.Lookups)
	names := make([]string, 0, len(view.Lookups.UOMs))
	for _, u := range view.Lookups.UOMs {
		names = append(names, u.Name)
	}
	return names
}

func TestMasterRecordWritesRefreshLookups(t *testing.T) {
	env := newCachedEnv(t)
	form := env.openForm(t, map[string]any{"kind": "sales-order"})
	require.NotNil(t, form.Lookups)
	assert.Len(t, form.Lookups.UOMs, 2)

	rr := env.call(t, http.MethodPost, "/api/lists/uoms", map[string]any{"name": "KG"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[writtenRecord](t, rr)
	assert.Equal(t, "KG", created.Record["name"])
	require.NotNil(t, created.Page)
	assert.Equal(t, 3, created.Page.TotalItems)
	assert.Equal(t, 1, created.Page.Page)
	assert.Equal(t, []string{"PCS", "BOX", "KG"}, uomNames(t, env, form.ID))

	rr = env.call(t, http.MethodPut, "/api/lists/uoms/KG?page=1", map[string]any{"name": "KGM"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"PCS", "BOX", "KGM"}, uomNames(t, env, form.ID))

	rr = env.call(t, http.MethodDelete, "/api/lists/uoms/KGM", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	deleted := decode[writtenRecord](t, rr)
	require.NotNil(t, deleted.Page)
	assert.Equal(t, 2, deleted.Page.TotalItems)
	assert.Equal(t, []string{"PCS", "BOX"}, uomNames(t, env, form.ID))
}

func TestMasterRecordWriteErrors(t *testing.T) {
	env := newCachedEnv(t)

	rr := env.call(t, http.MethodPost, "/api/lists/uoms", map[string]any{"description": "kilogram"})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	assert.Equal(t, "is required", decode[httpx.ProblemDetail](t, rr).Errors["name"])

	rr = env.call(t, http.MethodPost, "/api/lists/uoms", map[string]any{"name": 12})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	assert.Equal(t, "has the wrong type", decode[httpx.ProblemDetail](t, rr).Errors["name"])

	rr = env.call(t, http.MethodPost, "/api/lists/salesOrders", map[string]any{"id": "SO-1"})
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = env.call(t, http.MethodDelete, "/api/lists/payroll/1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.call(t, http.MethodPost, "/api/lists/uoms", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	env.erp.mu.Lock()
	defer env.erp.mu.Unlock()
	assert.Nil(t, env.erp.uoms)
}
