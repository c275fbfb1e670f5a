package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spendly/spendly-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:   "0123456789abcdef0123456789abcdef",
		Issuer:   "spendly",
		Audience: "spendly-mobile",
		TTL:      time.Hour,
	}
}

func TestIssueAndVerify(t *testing.T) {
	cfg := testJWTConfig()
	issuer := NewTokenIssuer(cfg)
	verifier, err := NewVerifier(cfg)
	require.NoError(t, err)

	userID := uuid.New()
	token, expiresAt, err := issuer.Issue(userID, "ana@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	identity, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "ana@example.com", identity.Email)
	assert.Equal(t, "spendly", identity.Claims.RegisteredClaims.Issuer)
}

func TestVerify_Rejects(t *testing.T) {
	cfg := testJWTConfig()
	verifier, err := NewVerifier(cfg)
	require.NoError(t, err)

	expired := NewTokenIssuer(cfg)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	otherSecret := cfg
	otherSecret.Secret = "ffffffffffffffffffffffffffffffff"

	otherAudience := cfg
	otherAudience.Audience = "someone-else"

	tests := []struct {
		name   string
		issuer *TokenIssuer
	}{
		{"expired", expired},
		{"wrong secret", NewTokenIssuer(otherSecret)},
		{"wrong audience", NewTokenIssuer(otherAudience)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := tt.issuer.Issue(uuid.New(), "a@b.co")
			require.NoError(t, err)

			_, err = verifier.Verify(context.Background(), token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify(context.Background(), "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHashing(t *testing.T) {
	HashCost = bcrypt.MinCost
	defer func() { HashCost = bcrypt.DefaultCost }()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}

func TestGenerateResetCode(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateResetCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}
