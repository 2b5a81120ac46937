package common

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// UserIDKey is the request-context key the auth middleware stores the caller
// id under.
const UserIDKey contextKey = "user_id"

// NicknameKey holds the caller's nickname claim.
const NicknameKey contextKey = "nickname"

// AuthMiddleware validates the bearer token and injects the caller identity
// into the request context. Every chat HTTP route sits behind it.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "authorization required", http.StatusUnauthorized)
			return
		}

		// header = Bearer <token>
		parts := strings.Fields(header)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "invalid auth header", http.StatusUnauthorized)
			return
		}

		claims, err := ValidToken(parts[1])
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, NicknameKey, claims.Nickname)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerID pulls the authenticated user id out of a request context. The
// empty string means the middleware never ran (or the route is public).
func CallerID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}
