package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/campussports/facility-booking/internal/config"
)

// tokenBucket refills `rate` tokens per second up to `burst` and takes one
// token per request.  State lives in a Redis hash per client so every
// instance of the service shares the same budget.
var tokenBucket = redis.NewScript(`
local key     = KEYS[1]
local rate    = tonumber(ARGV[1])
local burst   = tonumber(ARGV[2])
local now     = tonumber(ARGV[3])
local ttl     = tonumber(ARGV[4])

local state  = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts     = tonumber(state[2])
if tokens == nil then
  tokens = burst
  ts     = now
end

local elapsed = math.max(0, now - ts)
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens  = tokens - 1
end

redis.call('HMSET', key, 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', key, ttl)
return allowed
`)

// RateLimit throttles requests per client IP using the shared Redis bucket.
// When Redis is unreachable the request is let through; throttling is a
// guard, not a dependency.
func RateLimit(rdb *redis.Client, cfg config.RateLimitConfig) echo.MiddlewareFunc {
	ttl := int(cfg.IdleTTL / time.Second)
	if ttl < 1 {
		ttl = 60
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "rl:" + c.RealIP()
			now := float64(time.Now().UnixMilli()) / 1000.0

			res, err := tokenBucket.Run(c.Request().Context(), rdb,
				[]string{key},
				cfg.Rate, cfg.Burst, strconv.FormatFloat(now, 'f', 3, 64), ttl,
			).Int()
			if err != nil {
				c.Logger().Warnf("rate limiter unavailable: %v", err)
				return next(c)
			}
			if res != 1 {
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
