package middleware

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// DefaultRatelimitRate applies when neither configuration nor the database names a rate.
const DefaultRatelimitRate = "5-S"

const ratelimitKeyPrefix = "storefront_ratelimit"

// NewRedisLimiterStore creates the shared counter store for the API rate limiter.
func NewRedisLimiterStore(client redis.UniversalClient) (limiter.Store, error) {
	return redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: ratelimitKeyPrefix,
	})
}

// RateLimit returns middleware enforcing a fixed rate against store, keyed by client IP.
// The IP is taken from X-Forwarded-For or X-Real-IP only when trustProxy is set.
func RateLimit(store limiter.Store, rate string, trustProxy bool, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	instance := newLimiter(store, parsed, trustProxy)
	return func(next http.Handler) http.Handler {
		return newLimiterHandler(instance, next, logger)
	}, nil
}

func newLimiter(store limiter.Store, rate limiter.Rate, trustProxy bool) *limiter.Limiter {
	return limiter.New(store, rate, limiter.WithTrustForwardHeader(trustProxy))
}

func newLimiterHandler(instance *limiter.Limiter, next http.Handler, logger *zap.Logger) http.Handler {
	limitReached := func(w http.ResponseWriter, r *http.Request) {
		respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", logger)
	}
	onError := func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("rate_limiter_store_error", zap.Error(err))
		respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", logger)
	}
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(instance.GetIPKey),
		stdlibmw.WithLimitReachedHandler(limitReached),
		stdlibmw.WithErrorHandler(onError),
	)
	return mw.Handler(next)
}
