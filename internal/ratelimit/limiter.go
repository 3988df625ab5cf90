package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

type ClientLimiter struct {
	limiters map[string]*entry
	mu       sync.RWMutex
	defaults RateLimitConfig
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func NewClientLimiter(config RateLimitConfig) *ClientLimiter {
	return &ClientLimiter{
		limiters: make(map[string]*entry),
		defaults: config,
	}
}

func (p *ClientLimiter) GetLimiter(key string) *rate.Limiter {
	p.mu.RLock()
	e, exists := p.limiters[key]
	p.mu.RUnlock()

	if exists {
		p.mu.Lock()
		e.lastSeen = time.Now()
		p.mu.Unlock()
		return e.limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if e, exists = p.limiters[key]; exists {
		e.lastSeen = time.Now()
		return e.limiter
	}

	e = &entry{
		limiter:  rate.NewLimiter(rate.Limit(p.defaults.RequestsPerSecond), p.defaults.BurstSize),
		lastSeen: time.Now(),
	}
	p.limiters[key] = e
	return e.limiter
}

func (p *ClientLimiter) Allow(key string) bool {
	return p.GetLimiter(key).Allow()
}

// Prune drops limiters not used since before cutoff.
func (p *ClientLimiter) Prune(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for key, e := range p.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(p.limiters, key)
			removed++
		}
	}
	return removed
}

func (p *ClientLimiter) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.limiters)
}

// Middleware rejects requests over the per-client rate with 429. Clients are
// keyed by their real IP.
func (p *ClientLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !p.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
					Error:   "rate_limited",
					Message: "too many searches, slow down",
					Code:    http.StatusTooManyRequests,
				})
			}
			return next(c)
		}
	}
}
