package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-console/internal/validation"
)

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	var p ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("form: %w", ErrNotFound):   http.StatusNotFound,
		fmt.Errorf("page: %w", ErrBadRequest): http.StatusBadRequest,
		fmt.Errorf("seq: %w", ErrConflict):    http.StatusConflict,
		fmt.Errorf("list: %w", ErrUpstream):   http.StatusBadGateway,
		fmt.Errorf("something unexpected"):    http.StatusInternalServerError,
	}
	for err, status := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, err)
		assert.Equal(t, status, rr.Code, err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
		assert.Equal(t, status, decodeProblem(t, rr).Status)
	}
}

func TestRespondErrorListsValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, validation.Errors{"dueDate": "must not be before documentDate"})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	p := decodeProblem(t, rr)
	assert.Equal(t, "Validation Failed", p.Title)
	assert.Equal(t, "must not be before documentDate", p.Errors["dueDate"])
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target struct {
		Field string `json:"field"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"field":"x","other":1}`))
	assert.Error(t, DecodeJSON(req, &target))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"field":"x"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "x", target.Field)
}
