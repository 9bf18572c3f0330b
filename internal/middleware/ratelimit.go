package middleware

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/tabwatch/tabwatch/internal/request"
)

const defaultRatelimitRate = "20-S"

// RateLimit returns per-client-IP rate limiting middleware backed by
// Redis, sharing the persistence gateway's client. Rate uses the
// limiter format, e.g. "20-S" or "100-M".
func RateLimit(redisClient *redis.Client, rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = defaultRatelimitRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		return nil, err
	}
	return newLimiterMiddleware(limiter.New(store, parsed)), nil
}

// RateLimitInMemory is the store-less variant for tests and for running
// without Redis.
func RateLimitInMemory(rate string) (func(http.Handler) http.Handler, error) {
	if rate == "" {
		rate = defaultRatelimitRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	return newLimiterMiddleware(limiter.New(memorystore.NewStore(), parsed)), nil
}

func newLimiterMiddleware(instance *limiter.Limiter) func(http.Handler) http.Handler {
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler
}
