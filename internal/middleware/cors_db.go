package middleware

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/ezyshopper/storefront/internal/config"
	"github.com/ezyshopper/storefront/internal/database"
	"go.uber.org/zap"
)

// CORSReloader applies the operator override stored in cors_config on top of the configured policy
// and periodically reloads it. Methods and headers always come from the configured policy.
type CORSReloader struct {
	next     http.Handler
	store    database.CorsConfigStore
	base     config.CORSPolicy
	log      *zap.Logger
	interval time.Duration
	mu       sync.RWMutex
	current  http.Handler
	active   config.CORSPolicy
}

// NewCORSReloader creates a CORS middleware that loads overrides from the DB and hot-reloads them.
func NewCORSReloader(store database.CorsConfigStore, base config.CORSPolicy, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	return &CORSReloader{
		store:    store,
		base:     base,
		log:      log,
		interval: reloadInterval,
	}
}

// Middleware returns a middleware that wraps next with CORS and hot-reload.
// The first load happens here, so the policy is in place before any route is reachable.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		r.next = next
		r.load(context.Background())
		return r
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware() is applied.
func (r *CORSReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.load(ctx)
		}
	}
}

// Policy returns the policy currently enforced.
func (r *CORSReloader) Policy() config.CORSPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *CORSReloader) load(ctx context.Context) {
	if r.next == nil {
		return
	}
	policy := r.base
	if r.store != nil {
		stored, err := r.store.Get(ctx)
		switch {
		case err != nil:
			r.log.Warn("failed_to_load_cors_config_using_configured_policy", zap.Error(err))
		case stored != nil && len(stored.Origins()) > 0:
			policy.AllowedOrigins = stored.Origins()
			policy.AllowCredentials = stored.AllowCredentials
			policy.MaxAge = stored.MaxAge
		}
	}

	h := newCORSHandler(policy, r.next, r.log)

	r.mu.Lock()
	changed := !slices.Equal(r.active.AllowedOrigins, policy.AllowedOrigins)
	r.current = h
	r.active = policy
	r.mu.Unlock()

	if changed {
		r.log.Info("cors_policy_loaded",
			zap.Strings("allowed_origins", policy.AllowedOrigins),
			zap.Bool("allow_credentials", policy.AllowCredentials),
			zap.Int("max_age", policy.MaxAge),
		)
	}
}

// ServeHTTP implements http.Handler.
func (r *CORSReloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	h := r.current
	r.mu.RUnlock()
	if h != nil {
		h.ServeHTTP(w, req)
		return
	}
	if r.next != nil {
		r.next.ServeHTTP(w, req)
	}
}
