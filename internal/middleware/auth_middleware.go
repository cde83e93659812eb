package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/auth"
	"github.com/pingup/backend/pkg/response"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
)

// TokenValidator is satisfied by *auth.JWTManager.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// UserRegistrar records users issued by the identity provider.
type UserRegistrar interface {
	EnsureUser(ctx context.Context, userID uuid.UUID) error
}

// AuthMiddleware creates JWT authentication middleware
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				// Browsers cannot set headers on WebSocket upgrades.
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				response.Unauthorized(w, "missing authorization header")
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					response.Unauthorized(w, "token has expired")
					return
				}
				response.Unauthorized(w, "invalid token")
				return
			}

			recordRequestUser(r.Context(), claims.UserID)
			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EnsureUser registers the authenticated caller in the relationship store so
// that a user exists from their first request on. Must run after AuthMiddleware.
func EnsureUser(registrar UserRegistrar, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				response.Unauthorized(w, "not authenticated")
				return
			}
			if err := registrar.EnsureUser(r.Context(), userID); err != nil {
				logger.Error("failed to register user", zap.String("user_id", userID.String()), zap.Error(err))
				response.InternalError(w, "failed to load user")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// WithUserID returns ctx carrying userID, as AuthMiddleware would set it.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}
