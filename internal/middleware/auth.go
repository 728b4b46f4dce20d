package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/cache"
	"github.com/ashaconnect/ashaconnect/internal/model"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Issuer *auth.TokenIssuer
	Cache  *cache.Cache
}

// Auth returns a middleware that authenticates API requests.
// It extracts the JWT from the Authorization header, verifies it,
// and injects the auth context into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			tokenHash := auth.QuickHash(token)
			if cfg.Cache != nil && cfg.Cache.IsTokenRevoked(r.Context(), tokenHash) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "token_revoked"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			// Check cache first to skip signature verification
			if cfg.Cache != nil {
				if authCtx, _ := cfg.Cache.GetAuthContext(r.Context(), tokenHash); authCtx != nil {
					ctx := auth.ContextWithAuth(r.Context(), authCtx)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			claims, err := cfg.Issuer.Verify(token)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, auth.ErrTokenExpired) {
					reason = "token_expired"
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			authCtx := &model.AuthContext{
				UserID:   claims.Subject,
				Username: claims.Username,
				Role:     claims.Role,
			}

			if cfg.Cache != nil && claims.ExpiresAt != nil {
				// Cap the cache entry at the token's remaining lifetime so a
				// cache hit can never authenticate an expired token.
				remaining := time.Until(claims.ExpiresAt.Time)
				_ = cfg.Cache.SetAuthContext(r.Context(), tokenHash, authCtx, remaining)
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", authCtx.UserID),
				slog.String("role", string(authCtx.Role)),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the bearer token from the request.
// Supports "Authorization: Bearer <token>" and, for call gateway
// integrations that cannot set Authorization, "X-Auth-Token: <token>".
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	return r.Header.Get("X-Auth-Token")
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing token"}}`))
}
