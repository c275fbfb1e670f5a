package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/spendly/spendly-backend/internal/auth"
	"github.com/stretchr/testify/assert"
)

type mockVerifier struct {
	identity *auth.Identity
	err      error
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	return m.identity, m.err
}

func TestJWTValidator_ValidateToken(t *testing.T) {
	userID := uuid.New()
	v := NewJWTValidator(&mockVerifier{identity: &auth.Identity{UserID: userID}})

	got, err := v.ValidateToken(context.Background(), "token")
	assert.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTValidator_InvalidToken(t *testing.T) {
	v := NewJWTValidator(&mockVerifier{err: errors.New("expired")})

	got, err := v.ValidateToken(context.Background(), "token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, uuid.Nil, got)
}
