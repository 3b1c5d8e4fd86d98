// Package http wraps net/http requests and responses with the helpers the
// entity controllers use: JSON binding, typed query access and JSON
// envelopes.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const maxBody = 4 << 20 // 4 MB

// ErrEmptyBody is returned when a request that needs a body has none.
var ErrEmptyBody = errors.New("empty request body")

// Request wraps *http.Request.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Body ─────────────────────────────────────────────────────────────────────

// Body reads the whole request body, up to 4 MB.
func (req *Request) Body() ([]byte, error) {
	defer req.raw.Body.Close()
	body, err := io.ReadAll(io.LimitReader(req.raw.Body, maxBody+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading request body")
	}
	if len(body) > maxBody {
		return nil, errors.New("request body too large")
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}

// Bind decodes a JSON request body into v.
func (req *Request) Bind(v any) error {
	body, err := req.Body()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "decoding request body")
	}
	return nil
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	v := req.raw.URL.Query().Get(key)
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}

// QueryAll returns every value of a repeated query parameter. Comma-separated
// values are split.
func (req *Request) QueryAll(key string) []string {
	var out []string
	for _, v := range req.raw.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Queries returns the first value of each query parameter.
func (req *Request) Queries() map[string]string {
	out := make(map[string]string)
	for k, v := range req.raw.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Header returns a request header value.
func (req *Request) Header(key string) string {
	return req.raw.Header.Get(key)
}

// Method returns the HTTP method.
func (req *Request) Method() string { return req.raw.Method }

// Path returns the URL path.
func (req *Request) Path() string { return req.raw.URL.Path }

// ContentType returns the Content-Type header value.
func (req *Request) ContentType() string {
	return req.raw.Header.Get("Content-Type")
}

// IsJSON returns true when the request carries or expects JSON.
func (req *Request) IsJSON() bool {
	return strings.Contains(req.raw.Header.Get("Accept"), "application/json") ||
		strings.Contains(req.ContentType(), "application/json")
}
