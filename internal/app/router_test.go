package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-console/internal/apiclient"
	"github.com/odyssey-erp/odyssey-console/internal/documents"
	"github.com/odyssey-erp/odyssey-console/internal/formsession"
	"github.com/odyssey-erp/odyssey-console/internal/masterdata"
	"github.com/odyssey-erp/odyssey-console/internal/observability"
	_ "github.com/odyssey-erp/odyssey-console/testing"
)

func newTestRouter(t *testing.T) (http.Handler, *observability.Metrics) {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"PCS"},{"name":"BOX"}]`))
	}))
	t.Cleanup(backend.Close)

	metrics := observability.NewMetrics()
	client, err := apiclient.New(apiclient.Config{BaseURL: backend.URL}, apiclient.WithObserver(metrics))
	require.NoError(t, err)
	cfg := &Config{AppEnv: "development", AppRequestTimeout: 5 * time.Second, RateLimit: 100}
	handler := formsession.NewHandler(nil, masterdata.NewRegistry(client, nil, nil), documents.NewService(client, "", nil), formsession.NewStore(time.Minute), 10)
	return NewRouter(RouterParams{Config: cfg, Forms: handler, Metrics: metrics}), metrics
}

func TestRouterServesHealthAndAPI(t *testing.T) {
	require.True(t, InTestMode())
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/lists/uoms", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"totalItems":2`)
}

func TestRouterExposesMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/lists/uoms", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `console_http_requests_total{code="200",route="/api/lists/{resource}"} 1`), body)
	assert.Contains(t, body, `console_backend_requests_total{code="200",method="GET",path="/UOMs"} 1`)
}
