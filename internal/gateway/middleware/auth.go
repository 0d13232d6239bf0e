package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/saransh1220/careerpush/internal/shared/auth"
)

type contextKey string

const ContextKeyUserId contextKey = "user_id"

type AuthMiddleWare struct {
	jwtSecret string
}

// NewAuthMiddleware creates an AuthMiddleWare validating HS256 tokens signed
// with jwtSecret.
func NewAuthMiddleware(jwtSecret string) *AuthMiddleWare {
	return &AuthMiddleWare{jwtSecret: jwtSecret}
}

// BearerToken returns the token from the Authorization header, falling back
// to the token query parameter used by WebSocket clients.
func BearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return r.URL.Query().Get("token")
}

// Authenticate validates tokenStr and returns the user id it carries.
func (m *AuthMiddleWare) Authenticate(tokenStr string) (string, bool) {
	if tokenStr == "" {
		return "", false
	}
	claims, err := auth.ValidateToken(tokenStr, m.jwtSecret)
	if err != nil {
		return "", false
	}
	return claims.UserID.String(), true
}

// RequireAuth rejects requests without a valid token with 401 and injects the
// user id into the request context otherwise.
func (m *AuthMiddleWare) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := BearerToken(r)
		if tokenStr == "" {
			http.Error(w, `{"error": "missing or invalid authorization"}`, http.StatusUnauthorized)
			return
		}

		userID, ok := m.Authenticate(tokenStr)
		if !ok {
			http.Error(w, `{"error": "invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserId, userID)
}

func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(ContextKeyUserId).(string)
	return userID, ok && userID != ""
}
