package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront-service/pkg/response"
)

// Counter is the one cache call the limiter needs; *cache.Cache satisfies it.
type Counter interface {
	IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error)
}

// RateLimit caps requests per client IP over a sliding window. Redis failures
// fail open: throttling is protection, not a dependency.
func RateLimit(c Counter, limit int, window time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			cnt, err := c.IncrWithExpire(r.Context(), "http_rate", ip, window)
			if err != nil {
				logger.Warn("rate limit counter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if int(cnt) > limit {
				response.ErrorCode(w, http.StatusTooManyRequests, "rate_limited", "Too many requests; slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
