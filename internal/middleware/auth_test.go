package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spendly/spendly-backend/internal/auth"
)

type stubVerifier struct {
	identity *auth.Identity
	err      error
	gotToken string
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	s.gotToken = token
	return s.identity, s.err
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	userID := uuid.New()

	tests := []struct {
		name     string
		setup    func(c echo.Context)
		expected uuid.UUID
	}{
		{
			name: "returns user id when present",
			setup: func(c echo.Context) {
				ctx := context.WithValue(c.Request().Context(), UserIDKey, userID)
				c.SetRequest(c.Request().WithContext(ctx))
			},
			expected: userID,
		},
		{
			name:     "returns nil uuid when not present",
			setup:    func(c echo.Context) {},
			expected: uuid.Nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			tt.setup(c)

			if result := GetUserID(c); result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestGetClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "user-1"},
		}
		ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		result := GetClaims(c)
		if result == nil {
			t.Fatal("Expected claims, got nil")
		}
		if result.RegisteredClaims.Subject != "user-1" {
			t.Errorf("Expected subject 'user-1', got %q", result.RegisteredClaims.Subject)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())

		if GetClaims(c) != nil {
			t.Error("Expected nil, got claims")
		}
	})
}

func TestAuthMiddleware_MissingAuthorizationHeader(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(&stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handlerCalled := false
	err := m.Authenticate()(func(c echo.Context) error {
		handlerCalled = true
		return nil
	})(c)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if handlerCalled {
		t.Error("Handler should not be called")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing authorization header") {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestAuthMiddleware_InvalidAuthorizationHeaderFormat(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(&stubVerifier{})

	for _, header := range []string{"Basic abc", "Bearer", "Bearer ", "token"} {
		t.Run(header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			_ = m.Authenticate()(func(c echo.Context) error {
				t.Error("Handler should not be called")
				return nil
			})(c)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	e := echo.New()
	verifier := &stubVerifier{err: errors.New("bad signature")}
	m := NewAuthMiddleware(verifier)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = m.Authenticate()(func(c echo.Context) error {
		t.Error("Handler should not be called")
		return nil
	})(c)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
	if verifier.gotToken != "abc.def.ghi" {
		t.Errorf("Expected token to be passed to verifier, got %q", verifier.gotToken)
	}
}

func TestAuthMiddleware_InjectsIdentity(t *testing.T) {
	e := echo.New()
	userID := uuid.New()
	claims := &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: userID.String()}}
	m := NewAuthMiddleware(&stubVerifier{identity: &auth.Identity{UserID: userID, Email: "ana@example.com", Claims: claims}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	req.Header.Set("Authorization", "bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUserID uuid.UUID
	var gotEmail string
	var gotClaims *validator.ValidatedClaims
	err := m.Authenticate()(func(c echo.Context) error {
		gotUserID = GetUserID(c)
		gotEmail = GetEmail(c)
		gotClaims = GetClaims(c)
		return c.NoContent(http.StatusOK)
	})(c)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if gotUserID != userID {
		t.Errorf("Expected user id %s, got %s", userID, gotUserID)
	}
	if gotEmail != "ana@example.com" {
		t.Errorf("Expected email, got %q", gotEmail)
	}
	if gotClaims != claims {
		t.Error("Expected claims to be injected")
	}
}
