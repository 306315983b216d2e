package http

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
)

// RateLimitMiddleware limits each client IP within scope. Routes sharing a
// scope share a bucket.
func RateLimitMiddleware(limiter *RateLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			allowed, retryAfter := limiter.Allow(scope + "|" + ip)
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Truncate(time.Millisecond).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				writeError(w, r, http.StatusTooManyRequests, "Too many requests, please slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
