package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"easycart/internal/config"
)

// RateLimiter throttles cart mutations with one token bucket per session.
// A zero RPS disables limiting entirely.
type RateLimiter struct {
	limiters sync.Map
	rps      float64
	burst    int
}

// NewRateLimiter creates a limiter from configuration.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{rps: cfg.RPS, burst: burst}
}

func (l *RateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

// Handler returns the fiber middleware handler. Requests are keyed by the
// session ID set by the Session middleware, falling back to the client IP.
func (l *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l.rps <= 0 {
			return c.Next()
		}

		key, _ := c.Locals(SessionIDLocalKey).(string)
		if key == "" {
			key = c.IP()
		}

		if !l.getLimiter(key).Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
