package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultLimiterIdle is how long a client's limiter outlives its last request.
const DefaultLimiterIdle = 10 * time.Minute

// IPRateLimiter hands out one token bucket per client IP. Buckets that see
// no traffic for the idle period are evicted, and a returning client starts
// with a full burst.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates a limiter allowing r requests per second with
// bursts of b, forgetting clients idle for longer than idle.
func NewIPRateLimiter(r rate.Limit, b int, idle time.Duration) *IPRateLimiter {
	if idle <= 0 {
		idle = DefaultLimiterIdle
	}
	return &IPRateLimiter{
		limiters: cache.New(idle, idle),
		r:        r,
		b:        b,
	}
}

// Allow takes a token from ip's bucket and refreshes its idle deadline.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(l.r, l.b)
	}
	l.limiters.SetDefault(ip, limiter)
	return limiter.(*rate.Limiter).Allow()
}

// Clients returns how many clients currently hold a bucket.
func (l *IPRateLimiter) Clients() int {
	l.limiters.DeleteExpired()
	return l.limiters.ItemCount()
}

// RateLimiter rejects clients that exceed r requests per second (burst b)
// with 429 and a Retry-After hint.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	return RateLimiterFor(NewIPRateLimiter(r, b, DefaultLimiterIdle))
}

// RateLimiterFor is RateLimiter over an existing IPRateLimiter.
func RateLimiterFor(limiter *IPRateLimiter) gin.HandlerFunc {
	retryAfter := "1"
	if limiter.r > 0 && limiter.r < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / float64(limiter.r))))
	}
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
