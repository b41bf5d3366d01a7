package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"porchboard/internal/caching"
)

// Rate limit applied ahead of routing: a fixed window per source IP.
const (
	RateLimitWindow   = 15 * time.Minute
	RateLimitRequests = 100
)

// RateLimit counts requests per source IP in a fixed redis-backed
// window and rejects with 429 once the window count is exceeded. If the
// counter store is unreachable the request is let through.
func RateLimit(cache caching.CacheService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("ratelimit:%s", c.RealIP())

			count, err := cache.IncrementRequestCount(c.Request().Context(), key, RateLimitWindow)
			if err != nil {
				log.Printf("WARN: rate limit counter unavailable: %v", err)
				return next(c)
			}
			if count > RateLimitRequests {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
			}
			return next(c)
		}
	}
}
