package server

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"assistant-api/internal/config"
)

// ipRateLimiter keeps a token bucket per client IP.
type ipRateLimiter struct {
	ips       map[string]*rate.Limiter
	mu        sync.Mutex
	rateLimit rate.Limit
	burst     int
}

func newIPRateLimiter(r rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		ips:       make(map[string]*rate.Limiter),
		rateLimit: r,
		burst:     burst,
	}
}

func (l *ipRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.ips[ip]
	if !ok {
		limiter = rate.NewLimiter(l.rateLimit, l.burst)
		l.ips[ip] = limiter
	}
	return limiter
}

// rateLimitMiddleware throttles API requests per client IP. Health and
// metrics endpoints are never throttled so probes keep working under load.
func rateLimitMiddleware(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	limiters := newIPRateLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			if !limiters.limiter(clientIP(r)).Allow() {
				rateLimitedTotal.Inc()
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
