package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/go-autocrud/framework/http"
	"github.com/km-arc/go-autocrud/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

// ── Response ─────────────────────────────────────────────────────────────────

func TestResponse_Envelopes(t *testing.T) {
	tests := []struct {
		name   string
		send   func(*gohttp.Response)
		status int
		key    string
		want   any
	}{
		{"success", func(r *gohttp.Response) { r.Success("ok") }, http.StatusOK, "data", "ok"},
		{"created", func(r *gohttp.Response) { r.Created(map[string]any{"id": 1}) }, http.StatusCreated, "data", map[string]any{"id": float64(1)}},
		{"error", func(r *gohttp.Response) { r.Error(http.StatusConflict, "taken") }, http.StatusConflict, "message", "taken"},
		{"bad request", func(r *gohttp.Response) { r.BadRequest() }, http.StatusBadRequest, "message", "Bad request."},
		{"not found", func(r *gohttp.Response) { r.NotFound("person 3 not found") }, http.StatusNotFound, "message", "person 3 not found"},
		{"server error", func(r *gohttp.Response) { r.ServerError() }, http.StatusInternalServerError, "message", "Server Error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.send(res)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.want, decodeJSON(t, rr)[tt.key])
		})
	}
}

func TestResponse_NoContent(t *testing.T) {
	res, rr := newResponse(t)
	res.NoContent()
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, rr.Body.Len())
}

func TestResponse_ValidationError(t *testing.T) {
	bag := &validation.Errors{}
	bag.Add("pageNumber", "The pageNumber field is required.")

	res, rr := newResponse(t)
	res.ValidationError(bag)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"errors":{"pageNumber":["The pageNumber field is required."]}}`, rr.Body.String())
}

func TestResponse_Stream(t *testing.T) {
	res, rr := newResponse(t)
	require.NoError(t, res.Stream("text/csv", strings.NewReader("a,b\n")))
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "a,b\n", rr.Body.String())
}

// ── Request ──────────────────────────────────────────────────────────────────

func TestRequest_Bind(t *testing.T) {
	raw := httptest.NewRequest(http.MethodPost, "/people", strings.NewReader(`{"name":"Ada"}`))
	raw.Header.Set("Content-Type", "application/json")
	req := gohttp.NewRequest(raw)
	assert.True(t, req.IsJSON())

	var body struct {
		Name string `json:"name"`
	}
	require.NoError(t, req.Bind(&body))
	assert.Equal(t, "Ada", body.Name)

	empty := gohttp.NewRequest(httptest.NewRequest(http.MethodPost, "/people", nil))
	assert.ErrorIs(t, empty.Bind(&body), gohttp.ErrEmptyBody)

	broken := gohttp.NewRequest(httptest.NewRequest(http.MethodPost, "/people", strings.NewReader(`{`)))
	assert.ErrorContains(t, broken.Bind(&body), "decoding request body")
}

func TestRequest_QueryHelpers(t *testing.T) {
	req := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/people?search=ad&orderBy=name,-age&orderBy=id", nil))

	assert.Equal(t, "ad", req.Query("search"))
	assert.Equal(t, "10", req.Query("pageSize", "10"))
	assert.Equal(t, []string{"name", "-age", "id"}, req.QueryAll("orderBy"))
	assert.Equal(t, map[string]string{"search": "ad", "orderBy": "name,-age"}, req.Queries())
	assert.Equal(t, http.MethodGet, req.Method())
	assert.Equal(t, "/people", req.Path())
}

func TestRequest_RouteParam(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/people/{id}", func(w http.ResponseWriter, raw *http.Request) {
		got = gohttp.NewRequest(raw).RouteParam("id")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/people/42", nil))
	assert.Equal(t, "42", got)
}
