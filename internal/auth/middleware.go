package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"valetbay/internal/db"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	requesterIDKey contextKey = "requesterID"
	requesterRole  contextKey = "requesterRole"
)

// RequesterFromContext returns the verified (requesterID, role) pair the
// middleware stored, with ok false for anonymous requests.
func RequesterFromContext(ctx context.Context) (string, db.Role, bool) {
	id, okID := ctx.Value(requesterIDKey).(string)
	role, okRole := ctx.Value(requesterRole).(db.Role)
	return id, role, okID && okRole
}

func parseToken(r *http.Request) (string, db.Role, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "", fmt.Errorf("missing bearer token")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", "", fmt.Errorf("JWT_SECRET not set")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	roleStr, _ := claims["role"].(string)
	role, err := db.ParseRole(roleStr)
	if err != nil || sub == "" {
		return "", "", fmt.Errorf("invalid claims")
	}
	return sub, role, nil
}

// RequireAuth rejects requests without a valid JWT and stores the requester in
// the context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, role, err := parseToken(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), requesterIDKey, id)
		ctx = context.WithValue(ctx, requesterRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth stores the requester when a valid token is present but lets
// anonymous requests through (guest bookings).
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, role, err := parseToken(r); err == nil {
			ctx := context.WithValue(r.Context(), requesterIDKey, id)
			ctx = context.WithValue(ctx, requesterRole, role)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles wraps RequireAuth and additionally rejects requesters whose
// role is not in the allowed set.
func RequireRoles(roles ...db.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, role, _ := RequesterFromContext(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		}))
	}
}

// APIKeyMiddleware is the pre-check for the externally embedded booking
// surface: a pass/reject gate on X-API-Key against the comma-separated
// EMBED_API_KEYS env value. When no keys are configured the gate is open.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		configured := os.Getenv("EMBED_API_KEYS")
		if configured == "" {
			next.ServeHTTP(w, r)
			return
		}
		presented := r.Header.Get("X-API-Key")
		for _, key := range strings.Split(configured, ",") {
			if presented != "" && presented == strings.TrimSpace(key) {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Invalid API key", http.StatusUnauthorized)
	})
}
