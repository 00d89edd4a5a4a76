package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// unmatchedRoute labels requests that never reached a route, such as CORS
// preflights or 404s. Raw paths would make label cardinality unbounded.
const unmatchedRoute = "unmatched"

// RequestMiddleware records a count and a latency sample for every request,
// labelled by the chi route pattern.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, RoutePattern(r, unmatchedRoute), status, time.Since(start))
		})
	}
}

// RoutePattern returns the chi pattern that matched r, or fallback when
// routing did not match.
func RoutePattern(r *http.Request, fallback string) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return fallback
}
