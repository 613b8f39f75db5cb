package server

import (
	"context"
	"net/http"

	"github.com/ezyshopper/storefront/internal/config"
	"github.com/ezyshopper/storefront/internal/database"
	"github.com/ezyshopper/storefront/internal/handlers"
	"github.com/ezyshopper/storefront/internal/middleware"
	"github.com/ezyshopper/storefront/internal/telemetry"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler is the fully wired HTTP entry point: middleware chain, API routes and the SPA fallback.
type Handler struct {
	http.Handler

	cors      *middleware.CORSReloader
	rateLimit *middleware.RateLimitReloader
}

// NewHandler builds the request pipeline for cfg. The deployment mode, static roots and CORS policy are
// taken from cfg once and never re-read.
func NewHandler(cfg *config.Config, db *database.DB, deps Deps, logger *zap.Logger) (*Handler, error) {
	modules := deps.Modules
	if modules == nil {
		modules = handlers.DefaultModules()
	}

	h := &Handler{}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	if cfg.OTELEnabled {
		r.Use(telemetry.Middleware(telemetry.ServiceName))
	}

	health := handlers.NewHealthChecker(db, deps.Redis, logger)
	r.HandleFunc("/healthz", health.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/health", health.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	handlers.NewOpenAPIHandler(cfg.OpenAPIPath, logger).RegisterRoutes(r)

	// Preflights from allowed origins never get here; the CORS middleware answers them.
	r.Methods(http.MethodOptions).Handler(handlers.Preflight(cfg.CORS.AllowedMethods))

	api := mux.NewRouter()
	api.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	prefixes := make([]string, 0, len(modules))
	for _, m := range modules {
		handlers.Mount(api, m)
		prefixes = append(prefixes, m.Prefix())
		logger.Debug("module_mounted", zap.String("module", m.Name()), zap.String("prefix", m.Prefix()))
	}

	var apiHandler http.Handler = api
	if deps.Redis != nil {
		store, err := middleware.NewRedisLimiterStore(deps.Redis)
		if err != nil {
			return nil, err
		}
		h.rateLimit = middleware.NewRateLimitReloader(store, database.NewRatelimitConfigRepository(db),
			cfg.RateLimit, cfg.TrustProxy, logger, cfg.RateLimitReload)
		apiHandler = h.rateLimit.Middleware()(api)
	}
	r.MatcherFunc(handlers.PrefixMatcher(prefixes...)).Handler(apiHandler)

	// Unknown API paths are errors, not client-side routes.
	r.MatcherFunc(handlers.PrefixMatcher("/api")).HandlerFunc(handlers.NotFound)
	r.PathPrefix("/").Handler(handlers.NewSPAHandler(cfg.Static, cfg.Mode, logger))

	h.cors = middleware.NewCORSReloader(database.NewCorsConfigRepository(db), cfg.CORS, logger, cfg.CORSReloadInterval)

	h.Handler = middleware.Chain(r,
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Audit(logger, cfg.TrustProxy),
		middleware.ErrorHandler(logger),
		middleware.SecurityHeaders(cfg.EnableHSTS),
		h.cors.Middleware(),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.MaxRequestSize(cfg.MaxBodyBytes, logger),
		middleware.JSONBody(logger),
		middleware.Cookies(middleware.NewCookieCodec(cfg.CookieSecret)),
	)

	return h, nil
}

// StartReloaders runs the CORS and rate limit reload loops until ctx is cancelled.
func (h *Handler) StartReloaders(ctx context.Context) {
	if h.cors != nil {
		go h.cors.Start(ctx)
	}
	if h.rateLimit != nil {
		go h.rateLimit.Start(ctx)
	}
}

// CORSPolicy returns the CORS policy currently enforced.
func (h *Handler) CORSPolicy() config.CORSPolicy {
	return h.cors.Policy()
}
