package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/auth"
	"github.com/spendly/spendly-backend/internal/domain"
	spendlymail "github.com/spendly/spendly-backend/internal/mail"
)

// TokenIssuer signs access tokens for a user
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, time.Time, error)
}

// AuthResult is returned by register and login
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// RegisterInput holds the input for creating an account
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Currency string
}

// AuthService handles registration, login and password management
type AuthService struct {
	userRepo  domain.UserRepository
	resetRepo domain.PasswordResetRepository
	tokens    TokenIssuer
	mailQueue spendlymail.Queue
	resetTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo domain.UserRepository,
	resetRepo domain.PasswordResetRepository,
	tokens TokenIssuer,
	mailQueue spendlymail.Queue,
	resetTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		resetRepo: resetRepo,
		tokens:    tokens,
		mailQueue: mailQueue,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// normalizeEmail trims and lower-cases an email and checks it is a bare address
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}
	if len(password) > domain.MaxPasswordLength {
		return domain.ErrPasswordTooLong
	}
	return nil
}

func validateUserName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxUserNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

// Register creates an account and returns a signed token
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	name, err := validateUserName(input.Name)
	if err != nil {
		return nil, err
	}
	currency, err := domain.NormalizeCurrency(input.Currency, domain.DefaultCurrency)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Currency:     currency,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User registered")
	s.enqueue(ctx, user.ID, spendlymail.WelcomeMessage(user.Email, user.Name))

	return s.issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Me returns the authenticated user
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return domain.ErrInvalidCredentials
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	if err := s.setPassword(ctx, userID, next); err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Msg("Password changed")
	return nil
}

// ForgotPassword emails a one-time reset code when the address belongs to an
// account. Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	code, err := auth.GenerateResetCode()
	if err != nil {
		return err
	}
	codeHash, err := auth.HashPassword(code)
	if err != nil {
		return err
	}

	if err := s.resetRepo.InvalidateAll(ctx, user.ID); err != nil {
		return err
	}
	if _, err := s.resetRepo.Create(ctx, &domain.PasswordReset{
		UserID:    user.ID,
		CodeHash:  codeHash,
		ExpiresAt: s.now().Add(s.resetTTL),
	}); err != nil {
		return err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("Password reset requested")
	s.enqueue(ctx, user.ID, spendlymail.PasswordResetMessage(user.Email, user.Name, code, s.resetTTL))
	return nil
}

// ResetPassword sets a new password using the newest reset code.
// Each guess claims one attempt of that code before it is compared.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetCode
		}
		return err
	}

	reset, err := s.resetRepo.GetLatest(ctx, user.ID)
	if err != nil {
		return err
	}
	if !reset.IsUsable(s.now()) {
		return domain.ErrInvalidResetCode
	}

	if err := s.resetRepo.ClaimAttempt(ctx, reset.ID, domain.MaxResetAttempts); err != nil {
		return err
	}
	if !auth.CheckPassword(reset.CodeHash, strings.TrimSpace(code)) {
		return domain.ErrInvalidResetCode
	}

	if err := s.resetRepo.MarkUsed(ctx, reset.ID); err != nil {
		return err
	}
	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	log.Info().Str("user_id", user.ID.String()).Msg("Password reset completed")
	return nil
}

// setPassword stores a new hash and burns outstanding reset codes
func (s *AuthService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.resetRepo.InvalidateAll(ctx, userID)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// enqueue hands an email to the queue. Failures are logged only.
func (s *AuthService) enqueue(ctx context.Context, userID uuid.UUID, msg *spendlymail.Message) {
	if s.mailQueue == nil {
		return
	}
	if err := s.mailQueue.Enqueue(ctx, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Str("kind", string(msg.Kind)).Msg("Failed to enqueue email")
		return
	}
	log.Debug().Str("user_id", userID.String()).Str("kind", string(msg.Kind)).Msg("Email enqueued")
}
