package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// DefaultOrigins are the local front-end dev servers allowed to call the API.
const DefaultOrigins = "http://localhost:5173,http://localhost:8080,http://localhost:3000,http://localhost:8081"

// CORS returns middleware answering cross-origin requests from the origins
// in allowedOrigins, a comma-separated list or "*". An empty list allows any
// origin. Only real preflights (OPTIONS carrying
// Access-Control-Request-Method) are answered here; other requests reach
// the router.
func CORS(allowedOrigins string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: ParseOrigins(allowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         86400,
	})
}

// ParseOrigins splits a CORS_ORIGINS value, dropping blanks.
func ParseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
