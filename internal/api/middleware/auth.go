package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/product-catalog/internal/auth"
	"github.com/example/product-catalog/internal/catalog"
)

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

type contextKey string

const (
	ActorContextKey contextKey = "actor"
)

// Auth validates JWT tokens and adds the actor to the request context.
// Requests without a valid token are rejected.
func Auth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				respondError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorContextKey, claims.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth adds the actor to the context when a valid token is present.
// Anonymous requests pass through with no actor, which narrows product
// visibility downstream rather than rejecting the request.
func OptionalAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := ExtractToken(r); tokenString != "" {
				if claims, err := jwtService.ValidateToken(tokenString); err == nil {
					ctx := context.WithValue(r.Context(), ActorContextKey, claims.Actor())
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireService gates internal endpoints behind a shared service token
// carried in the X-Service-Token header.
func RequireService(serviceToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.VerifyServiceToken(serviceToken, r.Header.Get("X-Service-Token")) {
				respondError(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFromContext retrieves the authenticated actor, or nil for anonymous
// requests.
func ActorFromContext(ctx context.Context) *catalog.Actor {
	actor, ok := ctx.Value(ActorContextKey).(*catalog.Actor)
	if !ok {
		return nil
	}
	return actor
}
