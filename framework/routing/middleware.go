package routing

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/container"
)

// Logger logs one line per request with its status, size and duration.
func Logger(log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

type scopeKey struct{}

// Scoped opens a container scope per request. Handlers reach it with Scope.
func Scoped(c *container.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := c.Scope(ctx)
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, scopeKey{}, scope)))
		})
	}
}

// Scope returns the request's container scope, if Scoped opened one.
func Scope(r *http.Request) (*container.Container, bool) {
	scope, ok := r.Context().Value(scopeKey{}).(*container.Container)
	return scope, ok
}

// Scoped adds the Scoped middleware for c to the router.
func (r *Router) Scoped(c *container.Container) {
	r.Middleware(Scoped(c))
}
