package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// DefaultConnectRate is how many websocket upgrades per second one address
// may attempt.
const DefaultConnectRate = 10

// RateLimiter limits requests per client IP to perSecond, with an equal
// burst. It guards the hub endpoint against reconnect storms.
func RateLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = DefaultConnectRate
	}
	config := middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(perSecond)),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			FromContext(c.Request().Context()).Warn("Connection rate exceeded", "client", identifier)
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "too many connection attempts, retry later",
			})
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
