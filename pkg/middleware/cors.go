package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowedOrigins []string // e.g. ["https://kiosk.example.com"] or ["*"]
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int // seconds for preflight cache
}

// DefaultCORSOptions allows the given origins to call the vending API.
func DefaultCORSOptions(origins ...string) CORSOptions {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSOptions{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}
}

// CORS returns a middleware that adds Cross-Origin Resource Sharing headers
// and answers preflight requests.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	methods := strings.Join(opts.AllowedMethods, ", ")
	headers := strings.Join(opts.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := ""
			for _, o := range opts.AllowedOrigins {
				if o == "*" || o == origin {
					allowed = o
					break
				}
			}

			if allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Expose-Headers", "Retry-After, X-Request-ID")
				if opts.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAge))
				}
				if allowed != "*" {
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
