package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// ClaimsFrom returns the verified session claims stored in ctx by the
// middleware, if any.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// Middleware guards routes behind a valid session token.
type Middleware struct {
	tokens *TokenService
	logger *zap.Logger
}

// NewMiddleware creates auth middleware verifying with tokens.
func NewMiddleware(tokens *TokenService, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, logger: logger}
}

// RequireAuth wraps a handler, rejecting requests without a valid
// session token. The token is read from the Authorization header
// ("Bearer <token>") or, failing that, the session cookie.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			unauthorized(w, "missing credentials")
			return
		}

		claims, err := m.tokens.Verify(tokenString)
		if err != nil {
			m.logger.Debug("rejected request with invalid token",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			unauthorized(w, "invalid or expired token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie("session"); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
