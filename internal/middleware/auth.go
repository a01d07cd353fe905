package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/parlor/parlor/internal/auth"
	"github.com/parlor/parlor/internal/metrics"
)

// AuthConfig holds configuration for the auth gate.
type AuthConfig struct {
	Logger  *slog.Logger
	Tokens  *auth.Tokens
	Metrics metrics.Recorder
}

// Auth returns the gate that authenticates every protected request.
// It extracts the bearer token, verifies it, and stores the claims in
// the request context; any failure short-circuits with 401.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			claims, err := cfg.Tokens.Verify(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AttachUserID copies the user id out of the verified claims into the
// request context for downstream handlers.
//
// Precondition: the Auth gate already ran. Assembling this stage
// without it is a wiring bug, so a missing claim set panics rather
// than limping on with an empty identity.
func AttachUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims == nil {
			panic("user-id attachment requires the auth gate to run first")
		}

		ctx := auth.ContextWithUserID(r.Context(), claims.User.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken pulls the token out of the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// writeAuthError writes a 401 Unauthorized response.
// The same body covers every failure mode to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"UNAUTHORIZED"}`))
}
