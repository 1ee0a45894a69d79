package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	RequestIDHeader     = "X-Request-ID"
	contextKeyRequestID = "request_id"
)

// RequestIDMiddleware tags every request with an id, reusing the caller's
// X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestIDMiddleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}

// RequestLogger logs one line per request.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", GetRequestID(c),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", kv...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", kv...)
		default:
			logger.Info("HTTP request", kv...)
		}
	}
}

// ClientRateLimiter hands out a token bucket per client IP.
type ClientRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter allows rps requests per second per IP with the given burst.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ClientRateLimiter{
		limiters: make(map[string]*clientLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
}

// Allow reports whether a request from ip may proceed now.
func (l *ClientRateLimiter) Allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		l.evictIdle(now)
		entry = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// evictIdle drops limiters not seen for idleTTL. Caller holds mu.
func (l *ClientRateLimiter) evictIdle(now time.Time) {
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.limiters, ip)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}
