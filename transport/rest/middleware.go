package rest

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const kindRateLimited = "RateLimited"

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP. Idle buckets are dropped after ttl.
type ipRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time

	limit rate.Limit
	burst int
	ttl   time.Duration
}

func newIPRateLimiter(reqPerMin, burst int, ttl time.Duration) *ipRateLimiter {
	if burst <= 0 {
		burst = 1
	}

	return &ipRateLimiter{
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
		limit:     rate.Limit(float64(reqPerMin) / 60.0),
		burst:     burst,
		ttl:       ttl,
	}
}

func (that *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	that.mu.Lock()
	defer that.mu.Unlock()

	now := time.Now()
	if now.Sub(that.lastSweep) > that.ttl {
		for key, v := range that.visitors {
			if now.Sub(v.lastSeen) > that.ttl {
				delete(that.visitors, key)
			}
		}
		that.lastSweep = now
	}

	if v, ok := that.visitors[ip]; ok {
		v.lastSeen = now
		return v.limiter
	}

	limiter := rate.NewLimiter(that.limit, that.burst)
	that.visitors[ip] = &visitor{limiter: limiter, lastSeen: now}

	return limiter
}

func rateLimitByIP(limiter *ipRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.getLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody(kindRateLimited, "too many requests"))
			return
		}

		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
