package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/ezyshopper/storefront/internal/config"
	logpkg "github.com/ezyshopper/storefront/internal/logger"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// CORS creates middleware enforcing policy with rs/cors.
//
// Requests from allowed origins get the CORS response headers. Preflights from allowed origins are
// answered with 204 and advertise the full method and header sets of the policy. A cross-origin
// request from any other origin is rejected with 403 when policy.RejectDisallowed is set; otherwise
// it continues without CORS headers and the browser blocks the response.
func CORS(policy config.CORSPolicy, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return newCORSHandler(policy, next, logger)
	}
}

// CORSOptions converts a policy into rs/cors options.
func CORSOptions(policy config.CORSPolicy) cors.Options {
	return cors.Options{
		AllowedOrigins:   policy.AllowedOrigins,
		AllowedMethods:   policy.AllowedMethods,
		AllowedHeaders:   policy.AllowedHeaders,
		AllowCredentials: policy.AllowCredentials,
		MaxAge:           policy.MaxAge,
	}
}

type corsHandler struct {
	policy         config.CORSPolicy
	cors           *cors.Cors
	handler        http.Handler
	allowedMethods string
	allowedHeaders string
	logger         *zap.Logger
}

func newCORSHandler(policy config.CORSPolicy, next http.Handler, logger *zap.Logger) *corsHandler {
	c := cors.New(CORSOptions(policy))
	return &corsHandler{
		policy:         policy,
		cors:           c,
		handler:        c.Handler(next),
		allowedMethods: strings.Join(policy.AllowedMethods, ", "),
		allowedHeaders: strings.Join(policy.AllowedHeaders, ", "),
		logger:         logger,
	}
}

func (h *corsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.cors.OriginAllowed(r) && !isSameOrigin(r, origin) {
		h.logger.Debug("cors_origin_not_allowed",
			zap.String("origin", logpkg.SanitizeHeader(origin)),
			zap.String("method", r.Method),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
		if h.policy.RejectDisallowed {
			respondErrorJSON(w, r, http.StatusForbidden, "Forbidden", "Origin not allowed", h.logger)
			return
		}
	}

	if isPreflight(r) {
		h.handler.ServeHTTP(&preflightWriter{ResponseWriter: w, methods: h.allowedMethods, headers: h.allowedHeaders}, r)
		return
	}
	h.handler.ServeHTTP(w, r)
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

// isSameOrigin reports whether the Origin header names the host the request was sent to.
// Browsers send Origin on same-origin POSTs, which must not be treated as cross-origin.
func isSameOrigin(r *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// preflightWriter replaces the echoed method/header lists of an accepted preflight with the full policy.
type preflightWriter struct {
	http.ResponseWriter
	methods     string
	headers     string
	wroteHeader bool
}

func (pw *preflightWriter) WriteHeader(code int) {
	if !pw.wroteHeader {
		pw.wroteHeader = true
		h := pw.Header()
		if h.Get("Access-Control-Allow-Origin") != "" {
			h.Set("Access-Control-Allow-Methods", pw.methods)
			h.Set("Access-Control-Allow-Headers", pw.headers)
		}
	}
	pw.ResponseWriter.WriteHeader(code)
}

func (pw *preflightWriter) Write(b []byte) (int, error) {
	if !pw.wroteHeader {
		pw.WriteHeader(http.StatusOK)
	}
	return pw.ResponseWriter.Write(b)
}
