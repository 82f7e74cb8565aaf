package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"homebooking/internal/config"
	"homebooking/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID reuses the caller's X-Request-ID or mints one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *zerolog.Logger) gin.HandlerFunc {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "http").Logger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		metrics.IncHTTP(route, strconv.Itoa(code))

		ev := base.Info()
		if code >= http.StatusInternalServerError {
			ev = base.Error()
		}
		ev.Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Int("status", code).
			Str("remote", c.ClientIP()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
type HTTPAuth struct {
	cfg     config.APIConfig
	keys    *keyChecker
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{
		cfg:     cfg,
		keys:    newKeyChecker(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *HTTPAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.cfg.Enabled || isProbe(c.Request.URL.Path) {
			c.Next()
			return
		}

		if a.cfg.Auth.Enabled {
			err := a.keys.check(
				strings.TrimSpace(c.GetHeader(a.keys.headerKey)),
				strings.TrimSpace(c.GetHeader(a.keys.headerExtra)),
				requiredPermissionHTTP(c.Request.Method, c.Request.URL.Path),
			)
			if err != nil {
				statusCode := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					statusCode = http.StatusForbidden
				}
				c.AbortWithStatusJSON(statusCode, gin.H{"error": err.Error()})
				return
			}
		}

		if !a.limiter.allow(a.clientKey(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func (a *HTTPAuth) clientKey(c *gin.Context) string {
	if apiKey := strings.TrimSpace(c.GetHeader(a.keys.headerKey)); apiKey != "" {
		return apiKey
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return clientKeyUnknown
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

func requiredPermissionHTTP(method, path string) string {
	read := method == http.MethodGet || method == http.MethodHead
	switch {
	case strings.HasPrefix(path, "/api/v1/admin"):
		return permAdmin
	case strings.HasPrefix(path, "/api/v1/services"), strings.HasPrefix(path, "/api/v1/categories"):
		if read {
			return permReadCatalog
		}
		return permWriteCatalog
	case strings.HasPrefix(path, "/api/v1/bookings"), strings.HasPrefix(path, "/api/v1/slots"):
		if read {
			return permReadBookings
		}
		return permWriteBookings
	default:
		return ""
	}
}
