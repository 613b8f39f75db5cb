package middleware

import (
	"net/http"
	"strings"
)

const (
	// apiContentSecurityPolicy is the restrictive policy for JSON endpoints
	apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	// appContentSecurityPolicy lets the storefront bundle load its own assets
	appContentSecurityPolicy = "default-src 'self'; img-src 'self' data: https:; style-src 'self' 'unsafe-inline'; " +
		"connect-src 'self'; frame-ancestors 'none'"
)

// SecurityHeaders sets security headers on all responses
func SecurityHeaders(enableHSTS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// X-Content-Type-Options: Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// X-Frame-Options: Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Referrer-Policy: Control referrer information sharing
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Permissions-Policy: Disable unused browser features
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			if isAPIPath(r.URL.Path) {
				w.Header().Set("Content-Security-Policy", apiContentSecurityPolicy)
			} else {
				w.Header().Set("Content-Security-Policy", appContentSecurityPolicy)
			}

			// HSTS only over TLS and only when enabled, so local development is unaffected
			if enableHSTS && r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/") || path == "/healthz"
}
