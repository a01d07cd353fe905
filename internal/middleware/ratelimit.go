package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/metrics"
	"github.com/parlor/parlor/internal/ratelimit"
)

// RateLimitConfig holds configuration for the rate limiting stage.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter ratelimit.Limiter
	Metrics metrics.Recorder
	Enabled bool
	Limit   int
}

// RateLimit returns middleware that counts requests per client
// identity: the authenticated user id when present, the client IP
// otherwise. Exceeding the window short-circuits with 429.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := auth.UserIDFromContext(r.Context())
			if key == "" {
				key = "ip:" + clientIP(r)
			}

			result, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			if cfg.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			}

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncRateLimited()

				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				msg := fmt.Sprintf(`{"error":"RATE_LIMITED","retryAfterSeconds":%d}`,
					int(result.RetryAfter.Seconds()))
				_, _ = w.Write([]byte(msg))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from the request.
// chi's RealIP middleware already folds X-Forwarded-For and X-Real-IP
// into RemoteAddr when present.
func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
