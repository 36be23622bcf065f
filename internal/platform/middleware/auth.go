package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator validates a bearer token and extracts the caller claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*CallerClaims, error)
}

// CallerClaims is what the registry needs to know about a caller: the
// identity key it wants to register, and the client that submitted it.
type CallerClaims struct {
	Key      string
	ClientID string
}

type contextKeyCallerKey struct{}
type contextKeyClientID struct{}

// GetCallerKey retrieves the authenticated caller key from the context.
func GetCallerKey(ctx context.Context) string {
	key, ok := ctx.Value(contextKeyCallerKey{}).(string)
	if !ok {
		return ""
	}
	return key
}

// WithCallerKey injects a caller key into a context. Useful for handler
// tests that don't run the full middleware chain.
func WithCallerKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, contextKeyCallerKey{}, key)
}

// GetClientID retrieves the submitting client id from the context.
func GetClientID(ctx context.Context) string {
	clientID, ok := ctx.Value(contextKeyClientID{}).(string)
	if !ok {
		return ""
	}
	return clientID
}

// RequireAuth verifies the bearer token and stashes the caller identity in
// the request context. Failure to establish the caller is terminal; no
// registration check runs before this one.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized - missing bearer token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeyCallerKey{}, claims.Key)
			ctx = context.WithValue(ctx, contextKeyClientID{}, claims.ClientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
