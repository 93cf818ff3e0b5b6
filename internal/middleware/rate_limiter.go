package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// IdleTTL is how long an IP's limiter survives without traffic.
	IdleTTL time.Duration
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Rate:    rate.Every(time.Second),
		Burst:   10,
		IdleTTL: 10 * time.Minute,
	}
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	config   RateLimiterConfig
}

func NewIPRateLimiter(config RateLimiterConfig) *IPRateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	return &IPRateLimiter{
		limiters: cache.New(config.IdleTTL, 2*config.IdleTTL),
		config:   config,
	}
}

func (rl *IPRateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.limiters.Get(ip); ok {
		l := v.(*rate.Limiter)
		rl.limiters.SetDefault(ip, l)
		return l
	}
	l := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	rl.limiters.SetDefault(ip, l)
	return l
}

// Allow reports whether ip may make another request now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	return rl.limiter(ip).Allow()
}

func (rl *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
