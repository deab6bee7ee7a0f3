package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devilmonastery/shopfeed/internal/api"
	"github.com/devilmonastery/shopfeed/internal/auth"
	"github.com/devilmonastery/shopfeed/internal/pkg/logger"
)

// AuthMiddleware authenticates requests by their bearer access token
type AuthMiddleware struct {
	jwt *auth.JWTManager
	log *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwt *auth.JWTManager, log *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwt: jwt,
		log: log.With(slog.String("component", "auth_middleware")),
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireAuth rejects requests without a valid access token. An expired
// token gets ACCESS_TOKEN_EXPIRED so clients know to refresh.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "missing bearer token")
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if errors.Is(err, auth.ErrExpiredToken) {
			m.log.Debug("access token expired", slog.String("token", logger.TokenPreview(token)))
			api.WriteError(w, http.StatusUnauthorized, api.CodeAccessTokenExpired, "access token expired")
			return
		}
		if err != nil {
			m.log.Warn("rejected access token", slog.String("error", err.Error()))
			api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "invalid access token")
			return
		}

		ctx := auth.SetUserInContext(r.Context(), auth.UserFromClaims(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
