// Package main is the entrypoint for the Parlor API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/cache"
	"github.com/parlor/parlor/internal/config"
	"github.com/parlor/parlor/internal/handler"
	"github.com/parlor/parlor/internal/metrics"
	"github.com/parlor/parlor/internal/middleware"
	"github.com/parlor/parlor/internal/ratelimit"
	"github.com/parlor/parlor/internal/server"
	"github.com/parlor/parlor/internal/service"
	"github.com/parlor/parlor/internal/storage"
	"github.com/parlor/parlor/internal/storage/memory"
	"github.com/parlor/parlor/internal/storage/postgres"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Create and run server placeholder so backends can register closers
	srv := server.New(
		nil, // router attached below
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Initialize storage backend
	var (
		users         storage.UserResource
		chats         storage.ChatResource
		messages      storage.MessageResource
		storageHealth handler.HealthChecker
	)

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Error("failed to apply schema", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			os.Exit(1)
		}
		logger.Info("connected to database")

		users = postgres.NewUserStore(db)
		chats = postgres.NewChatStore(db)
		messages = postgres.NewMessageStore(db)
		storageHealth = db
		srv.OnShutdown("database", func(ctx context.Context) error {
			db.Close()
			return nil
		})
	default:
		logger.Info("using in-memory storage")
		users = memory.NewUserStore()
		chats = memory.NewChatStore()
		messages = memory.NewMessageStore()
	}

	// Initialize cache and rate limiter. With no Redis configured both
	// fall back to in-process implementations.
	var (
		responseCache cache.Store
		limiter       ratelimit.Limiter
		cacheHealth   handler.HealthChecker
	)

	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to Redis")

		responseCache = redisCache
		limiter = ratelimit.NewRedisLimiter(redisCache.Client(), cfg.RateLimitRequests, cfg.RateLimitWindow)
		cacheHealth = redisCache
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return redisCache.Close()
		})
	} else {
		logger.Info("using in-memory cache and rate limiter")
		responseCache = cache.NewMemory()
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	// Initialize services
	metricsRecorder := metrics.NewNoop()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(users, tokens, metricsRecorder)
	chatService := service.NewChatService(chats, messages, metricsRecorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(storageHealth, cacheHealth)
	authHandler := handler.NewAuthHandler(authService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)

	// Setup router
	r := setupRouter(routerDeps{
		base:          h,
		health:        healthHandler,
		auth:          authHandler,
		chat:          chatHandler,
		tokens:        tokens,
		limiter:       limiter,
		responseCache: responseCache,
		metrics:       metricsRecorder,
		cfg:           cfg,
		logger:        logger,
	})
	srv.SetHandler(r)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"storage_backend", cfg.StorageBackend,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	base          *handler.Handler
	health        *handler.HealthHandler
	auth          *handler.AuthHandler
	chat          *handler.ChatHandler
	tokens        *auth.Tokens
	limiter       ratelimit.Limiter
	responseCache cache.Store
	metrics       metrics.Recorder
	cfg           *config.Config
	logger        *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))

	// CORS applies to every route. Preflights carry no Authorization
	// header, so this must sit outside the auth gate.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	secCfg := middleware.DefaultSecurityConfig()
	secCfg.IsDevelopment = deps.cfg.IsDevelopment()
	r.Use(middleware.SecurityHeaders(secCfg))
	r.Use(middleware.MaxBodySize(secCfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	authCfg := middleware.AuthConfig{
		Logger:  deps.logger,
		Tokens:  deps.tokens,
		Metrics: deps.metrics,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  deps.logger,
		Limiter: deps.limiter,
		Metrics: deps.metrics,
		Enabled: deps.cfg.RateLimitEnabled,
		Limit:   deps.cfg.RateLimitRequests,
	}

	cacheCfg := middleware.CacheConfig{
		Logger:  deps.logger,
		Store:   deps.responseCache,
		Metrics: deps.metrics,
		TTL:     deps.cfg.CacheTTL,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Registration and login stay outside the auth gate but not
		// outside the rate limiter: failed logins are the main
		// brute-force surface. The key falls back to client IP here.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(rateLimitCfg))
			r.Post("/auth/register", deps.auth.Register)
			r.Post("/auth/login", deps.auth.Login)
		})

		// Chat routes require a valid token; behind the gate the rate
		// limit key is the user id.
		r.Route("/chat", func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.AttachUserID)
			r.Use(middleware.RateLimit(rateLimitCfg))
			r.Use(middleware.ResponseCache(cacheCfg))

			r.Post("/", deps.chat.Create)
			r.Get("/", deps.chat.List)
			r.Delete("/", deps.chat.DeleteMessage)
			r.Get("/{id}", deps.chat.Get)
			r.Get("/{id}/message", deps.chat.ListMessages)
			r.Post("/{id}/message", deps.chat.PostMessage)
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
