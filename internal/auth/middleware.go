package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

type contextKey string

const SessionContextKey contextKey = "admin-session"

// RequireAdmin rejects requests without a live admin session token
func RequireAdmin(gate *Gate, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				logger.Debug().Str("path", r.URL.Path).Msg("missing admin token")
				http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
				return
			}

			claims, err := gate.Verify(tokenString)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("admin token rejected")
				http.Error(w, "Unauthorized: admin session required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken gets the token from the Authorization header or the token
// query parameter
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != authHeader {
			return tokenString
		}
	}

	return r.URL.Query().Get("token")
}

// SessionFromContext retrieves the admin session from request context
func SessionFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(SessionContextKey).(*Claims)
	return claims, ok
}
