package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-console/internal/validation"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveUpstream(method, path string, status int, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, method+" "+path)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/api/"}, opts...)
	require.NoError(t, err)
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{BaseURL: "ftp://example.com"})
	require.Error(t, err)

	c, err := New(Config{BaseURL: "https://erp.example.com", Endpoints: Endpoints{Products: "/Items"}})
	require.NoError(t, err)
	assert.Equal(t, "/Items", c.Endpoints().Products)
	assert.Equal(t, "/Warehouse", c.Endpoints().Warehouses)
}

func TestGetJSONBuildsURLAndDecodes(t *testing.T) {
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Products/A%2FB", r.URL.EscapedPath())
		assert.Equal(t, "widget", r.URL.Query().Get("search"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, `[{"sku":"A/B"}]`)
	}, WithObserver(obs))

	var out []map[string]any
	err := c.GetJSON(context.Background(), JoinPath("/Products", "A/B"), url.Values{"search": {"widget"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "A/B", out[0]["sku"])
	assert.Equal(t, []string{"GET /Products/A%2FB"}, obs.calls)
}

func TestPostPutDeleteSendJSON(t *testing.T) {
	var methods []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Box"}`, string(body))
		_, _ = io.WriteString(w, `{"id":12,"name":"Box"}`)
	})

	var created map[string]any
	require.NoError(t, c.PostJSON(context.Background(), "/UOMs", map[string]string{"name": "Box"}, &created))
	assert.EqualValues(t, 12, created["id"])
	require.NoError(t, c.PutJSON(context.Background(), "/UOMs/12", map[string]string{"name": "Box"}, nil))
	require.NoError(t, c.Delete(context.Background(), "/UOMs/12"))
	assert.Equal(t, []string{http.MethodPost, http.MethodPut, http.MethodDelete}, methods)
}

func TestPostMultipartCarriesPayloadAndFiles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.JSONEq(t, `{"partyCode":"V1"}`, r.FormValue(PayloadField))
		files := r.MultipartForm.File[AttachmentField]
		if assert.Len(t, files, 1) {
			assert.Equal(t, "scan.pdf", files[0].Filename)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"PO-1"}`)
	})

	var out map[string]string
	err := c.PostMultipart(context.Background(), "/PurchaseOrders", map[string]string{"partyCode": "V1"},
		[]Attachment{{Name: "scan.pdf", Content: strings.NewReader("%PDF")}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "PO-1", out["id"])
}

func TestErrorMessagePreference(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message wins", 400, `{"message":"SKU exists","title":"Bad Request"}`, "SKU exists"},
		{"title next", 400, `{"title":"One or more validation errors occurred.","detail":"x"}`, "One or more validation errors occurred."},
		{"detail last", 409, `{"detail":"Document locked"}`, "Document locked"},
		{"plain text", 500, "  database offline \n", "database offline"},
		{"json string", 422, `"Quantity must be positive"`, "Quantity must be positive"},
		{"empty body", 404, "", "Not Found"},
		{"html page", 502, "<html>bad gateway</html>", "Bad Gateway"},
		{"unknown status", 599, "", defaultFailureMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			err := c.GetJSON(context.Background(), "/Products", nil, &[]any{})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.Equal(t, tc.want, UserMessage(err))
		})
	}
}

func TestDecodeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})
	err := c.GetJSON(context.Background(), "/Products", nil, &[]any{})
	require.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, "The server returned an unreadable response.", UserMessage(err))
}

func TestEmptySuccessBodyLeavesDestination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	out := map[string]any{"kept": true}
	require.NoError(t, c.PostJSON(context.Background(), "/Vendors", map[string]any{}, &out))
	assert.Equal(t, true, out["kept"])
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	c, err := New(Config{BaseURL: base, Timeout: time.Second}, WithObserver(obs))
	require.NoError(t, err)

	err = c.GetJSON(context.Background(), "/UOMs", nil, &[]any{})
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "Unable to reach the server. Check your connection and try again.", UserMessage(err))
	assert.Len(t, obs.calls, 1)
}

func TestUserMessageCoversOtherErrors(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "Request cancelled.", UserMessage(context.Canceled))
	assert.Contains(t, UserMessage(validation.Errors{"partyCode": "is required"}), "partyCode: is required")
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}

func TestStatusHelpers(t *testing.T) {
	err := error(&APIError{Status: http.StatusNotFound})
	assert.True(t, IsNotFound(err))
	status, ok := StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, 404, status)
	_, ok = StatusCode(errors.New("x"))
	assert.False(t, ok)
}
