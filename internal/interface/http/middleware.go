package http

import (
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roamgrid/roamgrid/internal/infra/config"
)

// errorHandlingMiddleware turns the last collected gin error into the JSON
// error envelope. Handlers abort with an HTTPError and never write error
// bodies themselves.
func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		level := slog.LevelWarn
		if httpErr.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			"code", httpErr.Code,
			"status", httpErr.Status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", httpErr.Err,
		)

		c.JSON(httpErr.Status, gin.H{
			"error": gin.H{
				"code":    httpErr.Code,
				"message": message,
			},
		})
	}
}

// requestLoggingMiddleware emits one line per request. The user id is only
// present once the authorizer has attached an identity.
func requestLoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if identity, ok := getIdentity(c); ok {
			attrs = append(attrs, "user_id", identity.ID)
		}
		logger.Info("request", attrs...)
	}
}

func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	buckets := newClientBuckets(cfg)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if buckets.take(ip) {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

// clientBuckets is a per-IP token bucket. Idle entries are swept so the map
// does not grow without bound under address churn.
type clientBuckets struct {
	mu        sync.Mutex
	clients   map[string]*bucket
	perMinute float64
	burst     float64
	idleAfter time.Duration
	lastSweep time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func newClientBuckets(cfg config.RateLimitConfig) *clientBuckets {
	return &clientBuckets{
		clients:   make(map[string]*bucket),
		perMinute: float64(cfg.RequestsPerMinute),
		burst:     float64(cfg.Burst),
		idleAfter: 5 * time.Minute,
		lastSweep: time.Now(),
	}
}

func (b *clientBuckets) take(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	entry, ok := b.clients[ip]
	if !ok {
		entry = &bucket{tokens: b.burst, lastSeen: now}
		b.clients[ip] = entry
	} else {
		entry.refill(now, b.perMinute, b.burst)
	}

	if now.Sub(b.lastSweep) > b.idleAfter {
		b.sweepLocked(now)
	}

	if entry.tokens < 1 {
		return false
	}
	entry.tokens--
	return true
}

func (e *bucket) refill(now time.Time, perMinute, burst float64) {
	if elapsed := now.Sub(e.lastSeen).Minutes(); elapsed > 0 {
		e.tokens = math.Min(burst, e.tokens+elapsed*perMinute)
	}
	e.lastSeen = now
}

func (b *clientBuckets) sweepLocked(now time.Time) {
	for ip, entry := range b.clients {
		if now.Sub(entry.lastSeen) > b.idleAfter {
			delete(b.clients, ip)
		}
	}
	b.lastSweep = now
}
