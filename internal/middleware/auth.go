package middleware

import (
	"context"
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// UserIDKey is the context key for the authenticated user ID
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for the authenticated user's email
	EmailKey contextKey = "email"
)

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate returns an Echo middleware that validates JWT tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				return unauthorizedError(c, "invalid authorization header format")
			}

			identity, err := m.verifier.Verify(c.Request().Context(), parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "invalid token")
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), identity)))

			return next(c)
		}
	}
}

// WithIdentity stores the caller identity in ctx
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, identity.UserID)
	ctx = context.WithValue(ctx, EmailKey, identity.Email)
	if identity.Claims != nil {
		ctx = context.WithValue(ctx, ClaimsKey, identity.Claims)
	}
	return ctx
}

// GetUserID extracts the authenticated user ID from the context
func GetUserID(c echo.Context) uuid.UUID {
	if id, ok := c.Request().Context().Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetEmail extracts the authenticated user's email from the context
func GetEmail(c echo.Context) string {
	if email, ok := c.Request().Context().Value(EmailKey).(string); ok {
		return email
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}
