package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Validation constants
const (
	MaxUserNameLength = 255
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	MaxPasswordLength = 72
	DefaultCurrency   = "USD"
	MaxResetAttempts  = 5
)

// User represents a registered account holder
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	AvatarPath   *string   `json:"-"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, currency string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarPath *string) (*User, error)
}

// PasswordReset is a one-time code issued by the forgot-password flow.
// Only the bcrypt hash of the code is stored.
type PasswordReset struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	CodeHash  string     `json:"-"`
	Attempts  int        `json:"attempts"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IsUsable reports whether the code may still be tried at the given time
func (p *PasswordReset) IsUsable(now time.Time) bool {
	return p.UsedAt == nil && now.Before(p.ExpiresAt) && p.Attempts < MaxResetAttempts
}

// PasswordResetRepository stores password reset codes
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *PasswordReset) (*PasswordReset, error)
	// GetLatest returns the newest unused reset for the user
	GetLatest(ctx context.Context, userID uuid.UUID) (*PasswordReset, error)
	// ClaimAttempt counts one verification attempt against a live code.
	// It returns ErrInvalidResetCode once the code is used, expired or
	// has no attempts left.
	ClaimAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) error
	// MarkUsed consumes the code, or returns ErrInvalidResetCode if it
	// was already consumed.
	MarkUsed(ctx context.Context, id uuid.UUID) error
	InvalidateAll(ctx context.Context, userID uuid.UUID) error
}
