package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spendly/spendly-backend/internal/auth"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/mail"
	"github.com/spendly/spendly-backend/internal/testutil"
)

type fakeIssuer struct {
	issued []uuid.UUID
}

func (f *fakeIssuer) Issue(userID uuid.UUID, email string) (string, time.Time, error) {
	f.issued = append(f.issued, userID)
	return "token-" + email, fixedNow.Add(time.Hour), nil
}

type authFixture struct {
	service *AuthService
	users   *testutil.MockUserRepository
	resets  *testutil.MockPasswordResetRepository
	mail    *testutil.MockMailQueue
	issuer  *fakeIssuer
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  testutil.NewMockUserRepository(),
		resets: testutil.NewMockPasswordResetRepository(),
		mail:   testutil.NewMockMailQueue(),
		issuer: &fakeIssuer{},
	}
	f.service = NewAuthService(f.users, f.resets, f.issuer, f.mail, 15*time.Minute)
	f.service.now = clock
	return f
}

func (f *authFixture) register(t *testing.T) *AuthResult {
	t.Helper()
	result, err := f.service.Register(context.Background(), RegisterInput{
		Email:    "Ana@Example.com ",
		Password: "correct horse",
		Name:     "Ana",
		Currency: "eur",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return result
}

var resetCodePattern = regexp.MustCompile(`code is (\d{6})`)

func (f *authFixture) lastResetCode(t *testing.T) string {
	t.Helper()
	msgs := f.mail.ByKind(mail.KindPasswordReset)
	if len(msgs) == 0 {
		t.Fatal("Expected a password reset email")
	}
	m := resetCodePattern.FindStringSubmatch(msgs[len(msgs)-1].Body)
	if m == nil {
		t.Fatalf("No reset code in %q", msgs[len(msgs)-1].Body)
	}
	return m[1]
}

func TestRegister(t *testing.T) {
	f := newAuthFixture()

	result := f.register(t)

	if result.User.Email != "ana@example.com" {
		t.Errorf("Expected normalized email, got %s", result.User.Email)
	}
	if result.User.Currency != "EUR" {
		t.Errorf("Expected currency EUR, got %s", result.User.Currency)
	}
	if result.Token != "token-ana@example.com" {
		t.Errorf("Unexpected token %s", result.Token)
	}
	if result.User.PasswordHash == "correct horse" || !auth.CheckPassword(result.User.PasswordHash, "correct horse") {
		t.Error("Expected password to be stored as a bcrypt hash")
	}
	if len(f.mail.ByKind(mail.KindWelcome)) != 1 {
		t.Error("Expected a welcome email")
	}
}

func TestRegister_DefaultCurrency(t *testing.T) {
	f := newAuthFixture()
	result, err := f.service.Register(context.Background(), RegisterInput{Email: "bo@example.com", Password: "12345678", Name: "Bo"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.User.Currency != domain.DefaultCurrency {
		t.Errorf("Expected default currency, got %s", result.User.Currency)
	}
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture()
	f.register(t)

	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "12345678", Name: "X"}, domain.ErrInvalidEmail},
		{"display name email", RegisterInput{Email: "X <x@example.com>", Password: "12345678", Name: "X"}, domain.ErrInvalidEmail},
		{"short password", RegisterInput{Email: "x@example.com", Password: "1234567", Name: "X"}, domain.ErrPasswordTooShort},
		{"blank name", RegisterInput{Email: "x@example.com", Password: "12345678", Name: "  "}, domain.ErrNameRequired},
		{"bad currency", RegisterInput{Email: "x@example.com", Password: "12345678", Name: "X", Currency: "euro"}, domain.ErrInvalidCurrency},
		{"taken email", RegisterInput{Email: "ANA@example.com", Password: "12345678", Name: "X"}, domain.ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Register(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	registered := f.register(t)

	result, err := f.service.Login(context.Background(), " ANA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.User.ID != registered.User.ID {
		t.Errorf("Expected user %s, got %s", registered.User.ID, result.User.ID)
	}

	if _, err := f.service.Login(context.Background(), "ana@example.com", "wrong horse"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := f.service.Login(context.Background(), "nobody@example.com", "correct horse"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture()
	userID := f.register(t).User.ID
	ctx := context.Background()

	if err := f.service.ChangePassword(ctx, userID, "wrong", "new password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
	if err := f.service.ChangePassword(ctx, userID, "correct horse", "short"); !errors.Is(err, domain.ErrPasswordTooShort) {
		t.Errorf("Expected ErrPasswordTooShort, got %v", err)
	}
	if err := f.service.ChangePassword(ctx, userID, "correct horse", "new password"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := f.service.Login(ctx, "ana@example.com", "new password"); err != nil {
		t.Errorf("Expected login with new password, got %v", err)
	}
}

func TestForgotPassword_UnknownAndInvalid(t *testing.T) {
	f := newAuthFixture()

	if err := f.service.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Errorf("Expected unknown email to succeed silently, got %v", err)
	}
	if len(f.mail.Messages) != 0 {
		t.Errorf("Expected no email, got %d", len(f.mail.Messages))
	}
	if err := f.service.ForgotPassword(context.Background(), "nope"); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Errorf("Expected ErrInvalidEmail, got %v", err)
	}
}

func TestResetPassword_Flow(t *testing.T) {
	f := newAuthFixture()
	f.register(t)
	ctx := context.Background()

	if err := f.service.ForgotPassword(ctx, "ana@example.com"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	code := f.lastResetCode(t)

	if err := f.service.ResetPassword(ctx, "ana@example.com", code, "brand new pass"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := f.service.Login(ctx, "ana@example.com", "brand new pass"); err != nil {
		t.Errorf("Expected login with reset password, got %v", err)
	}

	// Codes are single use
	if err := f.service.ResetPassword(ctx, "ana@example.com", code, "another pass"); !errors.Is(err, domain.ErrInvalidResetCode) {
		t.Errorf("Expected ErrInvalidResetCode on reuse, got %v", err)
	}
}

func TestResetPassword_NewCodeReplacesOld(t *testing.T) {
	f := newAuthFixture()
	f.register(t)
	ctx := context.Background()

	_ = f.service.ForgotPassword(ctx, "ana@example.com")
	first := f.lastResetCode(t)
	_ = f.service.ForgotPassword(ctx, "ana@example.com")
	second := f.lastResetCode(t)

	if first != second {
		if err := f.service.ResetPassword(ctx, "ana@example.com", first, "brand new pass"); !errors.Is(err, domain.ErrInvalidResetCode) {
			t.Errorf("Expected old code to be rejected, got %v", err)
		}
	}
	if err := f.service.ResetPassword(ctx, "ana@example.com", second, "brand new pass"); err != nil {
		t.Errorf("Expected newest code to work, got %v", err)
	}
}

func TestResetPassword_AttemptLimit(t *testing.T) {
	f := newAuthFixture()
	f.register(t)
	ctx := context.Background()

	_ = f.service.ForgotPassword(ctx, "ana@example.com")
	code := f.lastResetCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < domain.MaxResetAttempts; i++ {
		if err := f.service.ResetPassword(ctx, "ana@example.com", wrong, "brand new pass"); !errors.Is(err, domain.ErrInvalidResetCode) {
			t.Fatalf("Expected ErrInvalidResetCode on attempt %d, got %v", i+1, err)
		}
	}

	if err := f.service.ResetPassword(ctx, "ana@example.com", code, "brand new pass"); !errors.Is(err, domain.ErrInvalidResetCode) {
		t.Errorf("Expected correct code to be locked out, got %v", err)
	}
}

func TestResetPassword_ConcurrentGuessesShareAttemptLimit(t *testing.T) {
	f := newAuthFixture()
	user := f.register(t)
	ctx := context.Background()

	_ = f.service.ForgotPassword(ctx, "ana@example.com")
	code := f.lastResetCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	reset, err := f.resets.GetLatest(ctx, user.User.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	const guesses = 20
	errs := make(chan error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.service.ResetPassword(ctx, "ana@example.com", wrong, "brand new pass")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, domain.ErrInvalidResetCode) {
			t.Errorf("Expected ErrInvalidResetCode, got %v", err)
		}
	}
	if got := f.resets.Attempts(reset.ID); got != domain.MaxResetAttempts {
		t.Errorf("Expected %d attempts recorded, got %d", domain.MaxResetAttempts, got)
	}
	if err := f.service.ResetPassword(ctx, "ana@example.com", code, "brand new pass"); !errors.Is(err, domain.ErrInvalidResetCode) {
		t.Errorf("Expected correct code to be locked out, got %v", err)
	}
}

func TestResetPassword_Expired(t *testing.T) {
	f := newAuthFixture()
	f.register(t)
	ctx := context.Background()

	_ = f.service.ForgotPassword(ctx, "ana@example.com")
	code := f.lastResetCode(t)

	f.service.now = func() time.Time { return fixedNow.Add(16 * time.Minute) }
	if err := f.service.ResetPassword(ctx, "ana@example.com", code, "brand new pass"); !errors.Is(err, domain.ErrInvalidResetCode) {
		t.Errorf("Expected ErrInvalidResetCode after expiry, got %v", err)
	}
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	f := newAuthFixture()
	if err := f.service.ResetPassword(context.Background(), "nobody@example.com", "123456", "brand new pass"); !errors.Is(err, domain.ErrInvalidResetCode) {
		t.Errorf("Expected ErrInvalidResetCode, got %v", err)
	}
}
