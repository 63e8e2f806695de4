package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type userIDKey struct{}

// UserIDFromContext retrieves the authenticated user id set by SupabaseAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok
}

// WithUserID returns a context carrying the given user id. Exposed for
// handler tests that bypass the middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func writeAuthError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// SupabaseAuth verifies the Supabase-issued JWT from the Authorization
// header against the project's HMAC secret and puts the token's subject
// (the user id) on the request context. No call to Supabase is made; the
// token is self-contained.
func SupabaseAuth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Error("SUPABASE_JWT_SECRET is not configured")
				writeAuthError(w, http.StatusInternalServerError, "server configuration error")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				writeAuthError(w, http.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Debug("token rejected", zap.Error(err))
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			// Supabase stores the user id in the 'sub' claim.
			userID, ok := claims["sub"].(string)
			if !ok || userID == "" {
				writeAuthError(w, http.StatusUnauthorized, "token missing user id")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
