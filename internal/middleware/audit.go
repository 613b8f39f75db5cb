package middleware

import (
	"net/http"

	logpkg "github.com/ezyshopper/storefront/internal/logger"
	"github.com/ezyshopper/storefront/internal/request"
	"go.uber.org/zap"
)

// Audit logs security-related events for monitoring and compliance.
// trustProxy selects whether the logged ip comes from forwarding headers.
func Audit(logger *zap.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Wrap ResponseWriter to capture status code for audit logging
			wrapped := &auditResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			var event string
			switch wrapped.statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				event = "security_event"
			case http.StatusRequestEntityTooLarge:
				event = "oversized_request_rejected"
			case http.StatusTooManyRequests:
				event = "rate_limit_violation"
			default:
				return
			}

			logger.Warn(event,
				zap.Int("status_code", wrapped.statusCode),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r, trustProxy), logpkg.MaxGeneralStringLength)),
				zap.String("origin", logpkg.SanitizeHeader(r.Header.Get("Origin"))),
				zap.String("request_id", request.RequestID(r)),
			)
		})
	}
}

// auditResponseWriter wraps http.ResponseWriter to capture status code
type auditResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (aw *auditResponseWriter) WriteHeader(code int) {
	if !aw.wroteHeader {
		aw.statusCode = code
		aw.wroteHeader = true
	}
	aw.ResponseWriter.WriteHeader(code)
}

func (aw *auditResponseWriter) Write(b []byte) (int, error) {
	aw.wroteHeader = true
	return aw.ResponseWriter.Write(b)
}
