// Package middleware contains HTTP middleware shared by the web server.
package middleware

import (
	"net/http"
	"strings"
)

// parseAllowedOrigins normalizes the configured origin list into a set.
// A "*" entry means any origin is accepted.
func parseAllowedOrigins(origins []string) (map[string]struct{}, bool) {
	set := make(map[string]struct{})
	any := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			any = true
			continue
		}
		set[o] = struct{}{}
	}
	return set, any
}

// isLocalhostOrigin returns true if the origin is http(s)://localhost:<port>.
func isLocalhostOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost:", "http://localhost", "https://localhost:", "https://localhost"} {
		if origin == prefix || strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

// CORS returns middleware that handles CORS headers. The default
// configuration ("*") accepts every origin, which keeps browser demo
// clients working out of the box; production deployments are expected
// to narrow the list via WEB_ALLOWED_ORIGINS. Localhost origins are
// always permitted for development convenience.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed, anyOrigin := parseAllowedOrigins(origins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case anyOrigin:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && (isLocalhostOrigin(origin) || contains(allowed, origin)):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Requested-With")
			w.Header().Set("Access-Control-Max-Age", "86400")

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
