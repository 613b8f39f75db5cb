package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ezyshopper/storefront/internal/database"
	"github.com/ezyshopper/storefront/internal/models"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// RateLimitReloader wraps ulule/limiter and periodically reloads the rate from ratelimit_config.
type RateLimitReloader struct {
	next        http.Handler
	store       limiter.Store
	repo        database.RatelimitConfigStore
	defaultRate string
	trustProxy  bool
	log         *zap.Logger
	interval    time.Duration
	mu          sync.RWMutex
	current     http.Handler
	rate        string
}

// NewRateLimitReloader creates a rate limit middleware that loads its rate from the DB and hot-reloads it.
// store is usually a Redis-backed limiter store (see NewRedisLimiterStore). trustProxy is passed to the
// limiter so buckets follow forwarding headers only behind a trusted proxy.
func NewRateLimitReloader(store limiter.Store, repo database.RatelimitConfigStore, defaultRate string, trustProxy bool, log *zap.Logger, reloadInterval time.Duration) *RateLimitReloader {
	if defaultRate == "" {
		defaultRate = DefaultRatelimitRate
	}
	return &RateLimitReloader{
		store:       store,
		repo:        repo,
		defaultRate: defaultRate,
		trustProxy:  trustProxy,
		log:         log,
		interval:    reloadInterval,
	}
}

// Middleware returns a middleware that wraps next with rate limiting and hot-reload.
func (r *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		r.next = next
		r.load(context.Background())
		return r
	}
}

// Start runs the reload loop until ctx is cancelled. Call after Middleware() is applied.
func (r *RateLimitReloader) Start(ctx context.Context) {
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

// Rate returns the formatted rate currently enforced.
func (r *RateLimitReloader) Rate() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rate
}

func (r *RateLimitReloader) load(ctx context.Context) {
	if r.next == nil {
		return
	}
	rateStr := r.defaultRate
	if r.repo != nil {
		cfg, err := r.repo.Get(ctx)
		switch {
		case err != nil:
			r.log.Warn("failed_to_load_ratelimit_config_from_db_using_default",
				zap.Error(err),
				zap.String("default_rate", r.defaultRate),
			)
		case cfg != nil && cfg.Rate != "":
			rateStr = cfg.Rate
		default:
			// Save default config if none exists
			if err = r.repo.Set(ctx, &models.RatelimitConfig{Rate: r.defaultRate}); err != nil {
				r.log.Error("failed_to_save_default_ratelimit_config",
					zap.Error(err),
					zap.String("default_rate", r.defaultRate),
				)
			}
		}
	}

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		r.log.Error("failed_to_parse_rate_limit_using_default",
			zap.Error(err),
			zap.String("rate_str", rateStr),
			zap.String("default_rate", r.defaultRate),
		)
		rateStr = r.defaultRate
		rate, err = limiter.NewRateFromFormatted(rateStr)
		if err != nil {
			r.log.Error("failed_to_parse_default_rate_limit",
				zap.Error(err),
				zap.String("default_rate", r.defaultRate),
			)
			return
		}
	}

	h := newLimiterHandler(newLimiter(r.store, rate, r.trustProxy), r.next, r.log)

	r.mu.Lock()
	changed := r.rate != rateStr
	r.current = h
	r.rate = rateStr
	r.mu.Unlock()

	if changed {
		r.log.Info("rate_limit_loaded",
			zap.String("rate", rateStr),
			zap.Int64("limit", rate.Limit),
			zap.String("period", strconv.FormatInt(int64(rate.Period/time.Second), 10)+"s"),
		)
	}
}

// ServeHTTP implements http.Handler.
func (r *RateLimitReloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
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
