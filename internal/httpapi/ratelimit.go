package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/bastiangx/shelfserve/internal/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// DefaultLimiterIdle is how long a quiet client keeps its bucket.
const DefaultLimiterIdle = 15 * time.Minute

type client struct {
	bucket *rate.Limiter
	seen   time.Time
}

// RateLimiter keeps one token bucket per client IP. Clients quiet for
// longer than the idle window are forgotten, checked at most once per window.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	nextSweep time.Time
}

// NewRateLimiter allows perMinute requests per client with bursts up to
// burst. A non-positive idle uses DefaultLimiterIdle.
func NewRateLimiter(perMinute, burst int, idle time.Duration) *RateLimiter {
	if idle <= 0 {
		idle = DefaultLimiterIdle
	}
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:   max(burst, 1),
		idle:    idle,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Allow spends one token of key's bucket.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !now.Before(l.nextSweep) {
		for k, c := range l.clients {
			if now.Sub(c.seen) > l.idle {
				delete(l.clients, k)
			}
		}
		l.nextSweep = now.Add(l.idle)
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.seen = now
	return c.bucket.AllowN(now, 1)
}

// Clients returns how many buckets are held.
func (l *RateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware answers 429 once the caller's bucket is empty.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			metrics.IncRateLimited()
			respondError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
