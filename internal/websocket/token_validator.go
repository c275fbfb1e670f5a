package websocket

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/spendly/spendly-backend/internal/auth"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// IdentityVerifier verifies access tokens
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// JWTValidator validates access tokens passed on the websocket query string
type JWTValidator struct {
	verifier IdentityVerifier
}

// NewJWTValidator creates a new JWTValidator
func NewJWTValidator(verifier IdentityVerifier) *JWTValidator {
	return &JWTValidator{verifier: verifier}
}

// ValidateToken validates a JWT token and returns the user it belongs to
func (v *JWTValidator) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	identity, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return identity.UserID, nil
}
