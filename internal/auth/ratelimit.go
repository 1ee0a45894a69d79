package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// RateLimiter throttles staff logins. Failures are counted per client IP and
// username inside a fixed window; reaching MaxAttempts locks the pair out.
type RateLimiter struct {
	cfg  RateLimitConfig
	now  func() time.Time
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	failures map[loginKey]*failureWindow
}

type loginKey struct {
	ip       string
	username string
}

type failureWindow struct {
	started     time.Time
	count       int
	lockedUntil time.Time
}

type RateLimitConfig struct {
	MaxAttempts     int           // default 5
	WindowDuration  time.Duration // default 15m
	LockoutDuration time.Duration // default 30m
	CleanupInterval time.Duration // default 5m
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.WindowDuration <= 0 {
		c.WindowDuration = 15 * time.Minute
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = 30 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 5 * time.Minute
	}
	return c
}

// NewRateLimiter starts a limiter with a background sweep of stale entries.
// Call Stop to end the sweep.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		done:     make(chan struct{}),
		failures: make(map[loginKey]*failureWindow),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// Allow reports whether ip may try to log in as username, and if not, how
// long until it may.
func (rl *RateLimiter) Allow(ip, username string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.current(loginKey{ip, username}, now)
	if w == nil {
		return true, 0
	}
	if now.Before(w.lockedUntil) {
		return false, w.lockedUntil.Sub(now)
	}
	return w.count < rl.cfg.MaxAttempts, 0
}

// RecordFailure counts a failed login and reports whether it triggered a lockout.
func (rl *RateLimiter) RecordFailure(ip, username string) (bool, time.Duration) {
	now := rl.now()
	key := loginKey{ip, username}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.current(key, now)
	if w == nil {
		w = &failureWindow{started: now}
		rl.failures[key] = w
	}
	w.count++
	if w.count < rl.cfg.MaxAttempts {
		return false, 0
	}
	w.lockedUntil = now.Add(rl.cfg.LockoutDuration)
	return true, rl.cfg.LockoutDuration
}

// RecordSuccess forgets earlier failures for the pair.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.failures, loginKey{ip, username})
	rl.mu.Unlock()
}

// current returns the live window for key, dropping it once both the window
// and any lockout have passed. Caller holds mu.
func (rl *RateLimiter) current(key loginKey, now time.Time) *failureWindow {
	w, ok := rl.failures[key]
	if !ok {
		return nil
	}
	if rl.expired(w, now) {
		delete(rl.failures, key)
		return nil
	}
	return w
}

func (rl *RateLimiter) expired(w *failureWindow, now time.Time) bool {
	return now.Sub(w.started) > rl.cfg.WindowDuration && !now.Before(w.lockedUntil)
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) sweep() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.failures {
		if rl.expired(w, now) {
			delete(rl.failures, key)
		}
	}
}

// RateLimitMiddleware rejects logins for locked out pairs before the handler
// runs. The username is read from the JSON body, which stays readable for
// the handler through ShouldBindBodyWith.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil || req.Username == "" {
			c.Next()
			return
		}

		if allowed, retryAfter := rl.Allow(c.ClientIP(), req.Username); !allowed {
			if retryAfter <= 0 {
				retryAfter = rl.cfg.LockoutDuration
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many login attempts",
				"code":        "rate_limited",
				"retry_after": retryAfter.String(),
			})
			return
		}
		c.Next()
	}
}
