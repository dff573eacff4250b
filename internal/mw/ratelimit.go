package mw

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// minIdleTTL is the shortest time an unused limiter is kept around.
const minIdleTTL = time.Minute

// KeyedRateLimiter stores a rate limiter per client key. Limiters that go
// unused for the idle TTL are dropped.
type KeyedRateLimiter struct {
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

// NewKeyedRateLimiter creates a new KeyedRateLimiter whose idle entries
// expire after idle.
func NewKeyedRateLimiter(r rate.Limit, b int, idle time.Duration) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: cache.New(idle, idle),
		r:        r,
		b:        b,
	}
}

// Limiter returns the rate limiter for a key and pushes back its expiry.
func (k *KeyedRateLimiter) Limiter(key string) *rate.Limiter {
	if v, ok := k.limiters.Get(key); ok {
		limiter := v.(*rate.Limiter)
		k.limiters.SetDefault(key, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(k.r, k.b)
	if err := k.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := k.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// idleTTL is long enough for a drained bucket to refill, so dropping an
// expired limiter never hands a client more than a full burst.
func idleTTL(r rate.Limit, b int) time.Duration {
	if r <= 0 {
		return minIdleTTL
	}
	refill := time.Duration(float64(b) / float64(r) * float64(time.Second))
	if refill < minIdleTTL {
		return minIdleTTL
	}
	return refill
}

// RateLimiter is a middleware limiting each client key to r requests per
// second with burst b.
func RateLimiter(r rate.Limit, b int, key KeyFunc) gin.HandlerFunc {
	limiter := NewKeyedRateLimiter(r, b, idleTTL(r, b))
	return func(c *gin.Context) {
		if !limiter.Limiter(key(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
				"code":  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
