package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/cache"
	"github.com/parlor/parlor/internal/metrics"
)

// cacheControlKey carries the per-request cache handle through the
// context, so handlers can instruct the cache explicitly instead of
// reaching for ambient state.
const cacheControlKey contextKey = "cache_control"

// cacheControl is the request-scoped cache handle. The middleware owns
// it; handlers only flip the store flag or ask for invalidation.
type cacheControl struct {
	store     cache.Store
	metrics   metrics.Recorder
	key       string
	cacheable bool
	logger    *slog.Logger
}

// CacheConfig holds configuration for the response cache stage.
type CacheConfig struct {
	Logger  *slog.Logger
	Store   cache.Store
	Metrics metrics.Recorder
	TTL     time.Duration
}

// ResponseCache returns the final pipeline stage. For GET requests it
// looks up a stored response keyed by path, query, and the
// authenticated caller, and replays it on a hit, bypassing the handler
// entirely. On a miss the handler runs with a capture buffer
// underneath; if the handler marked the response cacheable, the
// middleware persists it afterwards.
func ResponseCache(cfg CacheConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctl := &cacheControl{
				store:   cfg.Store,
				metrics: recorder,
				key:     cacheKey(r),
				logger:  cfg.Logger,
			}
			ctx := context.WithValue(r.Context(), cacheControlKey, ctl)
			r = r.WithContext(ctx)

			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			entry, err := cfg.Store.GetResponse(r.Context(), ctl.key)
			if err == nil {
				recorder.IncCacheHit()
				if entry.ContentType != "" {
					w.Header().Set("Content-Type", entry.ContentType)
				}
				w.WriteHeader(entry.Status)
				_, _ = w.Write(entry.Body)
				return
			}
			if errors.Is(err, cache.ErrCacheMiss) {
				recorder.IncCacheMiss()
			} else {
				// A backend failure is not a miss. Fall through to the
				// handler, but say what happened.
				cfg.Logger.Error("cache lookup failed",
					slog.String("error", err.Error()),
					slog.String("key", ctl.key),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}

			capture := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			if !ctl.cacheable || capture.status != http.StatusOK {
				return
			}
			storeErr := cfg.Store.SetResponse(r.Context(), ctl.key, &cache.Entry{
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}, ttl)
			if storeErr != nil {
				cfg.Logger.Error("cache store failed",
					slog.String("error", storeErr.Error()),
					slog.String("key", ctl.key),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}
		})
	}
}

// MarkCacheable instructs the cache to store the response now being
// written, under the request's own key. A no-op outside the cache
// stage.
func MarkCacheable(ctx context.Context) {
	if ctl, ok := ctx.Value(cacheControlKey).(*cacheControl); ok {
		ctl.cacheable = true
	}
}

// InvalidateCache removes every cached response whose key starts with
// prefix. Handlers call this on mutations; the invalidation is coarse
// on purpose, trading precision for simplicity.
func InvalidateCache(ctx context.Context, prefix string) {
	ctl, ok := ctx.Value(cacheControlKey).(*cacheControl)
	if !ok {
		return
	}
	ctl.metrics.IncCacheInvalidation()
	if err := ctl.store.InvalidatePrefix(ctx, prefix); err != nil {
		ctl.logger.Error("cache invalidation failed",
			slog.String("error", err.Error()),
			slog.String("prefix", prefix),
			slog.String("request_id", GetRequestID(ctx)),
		)
	}
}

// cacheKey derives the cache key from the request path and query, with
// the authenticated user id as a trailing segment. Chat reads are
// owner-scoped, so entries must be too: without the suffix one user's
// cached listing would be replayed to another. Keeping the path first
// means prefix invalidation still clears every user's entries at once.
func cacheKey(r *http.Request) string {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	if userID := auth.UserIDFromContext(r.Context()); userID != "" {
		key += "|" + userID
	}
	return key
}

// captureWriter tees the response body so it can be stored after the
// handler finishes.
type captureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	cw.status = code
	cw.wroteHeader = true
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	cw.body.Write(b)
	return cw.ResponseWriter.Write(b)
}
