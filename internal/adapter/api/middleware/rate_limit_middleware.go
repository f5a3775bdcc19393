package middleware

import (
	"github.com/labstack/echo/v4"

	"lapakda/internal/infrastructure/ratelimit"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
	"lapakda/pkg/response"
)

// RateLimit spends one token from limiter's action bucket per request. The
// bucket is keyed by the authenticated uid, or the client IP before login.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := c.Get("uid").(string)
			if !ok || key == "" {
				key = "ip:" + c.RealIP()
			}

			if allowed, wait := limiter.Allow(key, action); !allowed {
				logger.Warn("Rate limit hit: %s on %s %s", key, c.Request().Method, c.Path())
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded", int(wait.Seconds())+1))
			}
			return next(c)
		}
	}
}
