package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"temankosan/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// each IP gets its own limiter; lastSeen drives cleanup
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	reqPerMin int
	burst     int
	ttl       time.Duration

	// closed once the sweep goroutine has exited
	done chan struct{}
}

// NewIPRateLimiter starts a background sweep that forgets IPs idle for ttl.
// The sweep runs until ctx is cancelled.
func NewIPRateLimiter(ctx context.Context, reqPerMin, burst int, ttl time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		visitors:  make(map[string]*visitor),
		reqPerMin: reqPerMin,
		burst:     burst,
		ttl:       ttl,
		done:      make(chan struct{}),
	}
	go rl.cleanupVisitors(ctx)
	return rl
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, ok := rl.visitors[ip]; ok {
		v.lastSeen = time.Now()
		return v.limiter
	}

	rps := float64(rl.reqPerMin) / 60.0
	limiter := rate.NewLimiter(rate.Limit(rps), rl.burst)
	rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (rl *IPRateLimiter) cleanupVisitors(ctx context.Context) {
	defer close(rl.done)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

func (rl *IPRateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
}

func RateLimitByIP(rl *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			utils.JSONError(c, http.StatusTooManyRequests, "Terlalu banyak permintaan. Silakan coba lagi sebentar lagi.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// 60 requests/minute/IP with a burst of 20 for everything under /api
func NewAPILimiter(ctx context.Context) *IPRateLimiter {
	return NewIPRateLimiter(ctx, 60, 20, 5*time.Minute)
}
