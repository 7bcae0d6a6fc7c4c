package middleware

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/campussports/facility-booking/internal/config"
)

// bodyRecorder duplicates everything written to the response so a successful
// body can be stored in the cache after the handler returns.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

// CacheGET serves repeated GET requests from Redis for a short period.
// Facility listings are read far more often than they change; anything
// non-GET or non-200 bypasses the cache entirely.
func CacheGET(rdb *redis.Client, cfg config.CacheConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := "cache:" + c.Request().URL.RequestURI()

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				return err
			}
			if rec.status == http.StatusOK && rec.buf.Len() > 0 {
				if err := rdb.Set(ctx, key, rec.buf.Bytes(), cfg.TTL).Err(); err != nil {
					c.Logger().Warnf("response cache write failed: %v", err)
				}
			}
			return nil
		}
	}
}

// InvalidateCache drops every cached entry under the given URI prefixes.
// Admin mutations call this so stale facility listings never outlive a write.
func InvalidateCache(rdb *redis.Client, prefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			ctx := c.Request().Context()
			for _, p := range prefixes {
				iter := rdb.Scan(ctx, 0, "cache:"+p+"*", 100).Iterator()
				for iter.Next(ctx) {
					rdb.Del(ctx, iter.Val())
				}
			}
			return nil
		}
	}
}
