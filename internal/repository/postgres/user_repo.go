package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendly/spendly-backend/internal/domain"
)

const userColumns = `id, email, password_hash, name, avatar_path, currency, created_at, updated_at`

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user; a duplicate email yields domain.ErrEmailTaken
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		user.Email, user.PasswordHash, user.Name, user.Currency,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a user by their UUID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, pgUUID(id))
	return scanUserOrNotFound(row)
}

// GetByEmail retrieves a user by normalized email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUserOrNotFound(row)
}

// UpdateProfile updates the user's display name and default currency
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, currency string) (*domain.User, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE users SET name = $2, currency = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		pgUUID(id), name, currency,
	)
	return scanUserOrNotFound(row)
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		pgUUID(id), passwordHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateAvatar sets or clears the avatar object path
func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarPath *string) (*domain.User, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE users SET avatar_path = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		pgUUID(id), avatarPath,
	)
	return scanUserOrNotFound(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u  domain.User
		id pgtype.UUID
	)
	if err := row.Scan(&id, &u.Email, &u.PasswordHash, &u.Name, &u.AvatarPath, &u.Currency, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = uuid.UUID(id.Bytes)
	return &u, nil
}

func scanUserOrNotFound(row pgx.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgUUID(*id)
}
