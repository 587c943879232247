package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"idverify/internal/logger"
	"idverify/internal/metrics"
)

// Counter counts hits per key within an expiring window.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type RateLimitConfig struct {
	RequestsPerMinute int
	Window            time.Duration
}

// RateLimit allows RequestsPerMinute requests per client IP in each fixed
// window. Counter errors let the request through.
func RateLimit(counter Counter, cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	now := time.Now
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			slot := now().UnixNano() / int64(cfg.Window)
			key := ip + ":" + strconv.FormatInt(slot, 10)

			n, err := counter.Incr(r.Context(), key, cfg.Window)
			if err != nil {
				logger.Ctx(r.Context()).Warn("rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if n > int64(cfg.RequestsPerMinute) {
				metrics.RateLimited.Inc()
				logger.Ctx(r.Context()).Warn("Rate limit exceeded", zap.String("ip", ip))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status":  "Too_Many_Requests",
					"message": "Rate limit exceeded. Please try again later.",
				})
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
