package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// KeyedLimiter admits or rejects one request for a key.
type KeyedLimiter interface {
	Allow(key string) bool
	RetryAfter(key string) time.Duration
}

// RateLimit rejects requests over the per client IP budget with 429.
func RateLimit(l KeyedLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if l.Allow(key) {
				return next(c)
			}
			if wait := l.RetryAfter(key); wait > 0 {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			}
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": http.StatusText(http.StatusTooManyRequests),
				"data": []map[string]string{
					{"code": "ERR_RATE_LIMITED", "message": "too many requests"},
				},
			})
		}
	}
}
