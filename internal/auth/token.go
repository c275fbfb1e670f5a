package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spendly/spendly-backend/internal/config"
)

// ErrInvalidToken is returned when a bearer token fails validation
var ErrInvalidToken = errors.New("invalid token")

// Claims is the application-specific part of an access token
type Claims struct {
	Email string `json:"email"`
}

// Validate implements validator.CustomClaims
func (c *Claims) Validate(ctx context.Context) error {
	return nil
}

// Identity is the authenticated caller extracted from a token
type Identity struct {
	UserID uuid.UUID
	Email  string
	Claims *validator.ValidatedClaims
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access tokens
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates a TokenIssuer from JWT configuration
func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
	}
}

// Issue returns a signed token for the user and its expiry time
func (i *TokenIssuer) Issue(userID uuid.UUID, email string) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)

	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verifier validates access tokens for both REST and websocket requests
type Verifier struct {
	validator *validator.Validator
}

// NewVerifier creates a Verifier sharing the issuer's secret, issuer and audience
func NewVerifier(cfg config.JWTConfig) (*Verifier, error) {
	secret := []byte(cfg.Secret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}

	v, err := validator.New(
		keyFunc,
		validator.HS256,
		cfg.Issuer,
		[]string{cfg.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &Claims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}
	return &Verifier{validator: v}, nil
}

// Verify validates the token and returns the caller identity
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	raw, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := raw.(*validator.ValidatedClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.RegisteredClaims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	identity := &Identity{UserID: userID, Claims: claims}
	if custom, ok := claims.CustomClaims.(*Claims); ok {
		identity.Email = custom.Email
	}
	return identity, nil
}
