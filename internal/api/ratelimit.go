package api

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goalline/academy-server/internal/pkg/logger"
)

// RateLimiter applies a fixed-window per-IP limit to the public form
// endpoints using a Redis counter. When Redis is unreachable the limiter
// fails open: dropping legitimate applications over a cache outage is worse
// than letting a burst through.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window per IP.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{redis: client, limit: limit, window: window}
}

// Middleware enforces the limit, responding 429 when exceeded.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		bucket := time.Now().UTC().Truncate(rl.window).Unix()
		key := fmt.Sprintf("ratelimit:forms:%s:%d", ip, bucket)

		pipe := rl.redis.Pipeline()
		countCmd := pipe.Incr(r.Context(), key)
		pipe.Expire(r.Context(), key, rl.window+time.Minute)
		if _, err := pipe.Exec(r.Context()); err != nil {
			logger.Warn("rate limiter unavailable, failing open", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		if countCmd.Val() > int64(rl.limit) {
			respondError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP returns the remote IP. middleware.RealIP has already rewritten
// RemoteAddr from X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
