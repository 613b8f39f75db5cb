package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

const (
	// DefaultMaxRequestSize is the default body ceiling (10 MiB)
	DefaultMaxRequestSize int64 = 10 << 20
)

// MaxRequestSize rejects bodies whose size is at or above maxBytes with 413.
// A declared Content-Length is checked up front; bodies without one are cut off while being read,
// and the reader error surfaces to whoever reads the body (see JSONBody).
func MaxRequestSize(maxBytes int64, logger *zap.Logger) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength >= maxBytes {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
					"Request body exceeds the size limit", logger)
				return
			}

			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes-1)
			}

			next.ServeHTTP(w, r)
		})
	}
}
