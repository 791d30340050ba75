package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps a token bucket per client IP. The predictor endpoint is
// the expensive path, so it gets its own limiter instance instead of a
// process-wide one.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	lastSeen time.Duration
}

type clientLimiter struct {
	limiter *rate.Limiter
	seenAt  time.Time
}

// NewRateLimiter creates a per-IP rate limiter allowing perMinute requests
// with the given burst
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		clients:  make(map[string]*clientLimiter),
		lastSeen: 10 * time.Minute,
	}
}

// Handler rejects requests over the limit with 429
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.seenAt = now

	// Evict buckets for clients that went quiet
	if len(rl.clients) > 1000 {
		for key, stale := range rl.clients {
			if now.Sub(stale.seenAt) > rl.lastSeen {
				delete(rl.clients, key)
			}
		}
	}

	return c.limiter.Allow()
}

// clientIP uses the address chi's RealIP middleware resolved
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
