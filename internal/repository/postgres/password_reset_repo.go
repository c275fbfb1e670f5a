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

const passwordResetColumns = `id, user_id, code_hash, attempts, expires_at, used_at, created_at`

// PasswordResetRepository implements domain.PasswordResetRepository using PostgreSQL
type PasswordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository creates a new PasswordResetRepository
func NewPasswordResetRepository(pool *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{pool: pool}
}

// Create stores a new reset code hash
func (r *PasswordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) (*domain.PasswordReset, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO password_resets (user_id, code_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING `+passwordResetColumns,
		pgUUID(reset.UserID), reset.CodeHash, reset.ExpiresAt,
	)
	return scanPasswordReset(row)
}

// GetLatest returns the newest unused reset code for a user
func (r *PasswordResetRepository) GetLatest(ctx context.Context, userID uuid.UUID) (*domain.PasswordReset, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT `+passwordResetColumns+`
		FROM password_resets
		WHERE user_id = $1 AND used_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`,
		pgUUID(userID),
	)
	reset, err := scanPasswordReset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidResetCode
		}
		return nil, err
	}
	return reset, nil
}

// ClaimAttempt takes one attempt from a live code in a single statement,
// so concurrent guesses cannot exceed maxAttempts
func (r *PasswordResetRepository) ClaimAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	var attempts int
	err := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE password_resets SET attempts = attempts + 1
		WHERE id = $1 AND attempts < $2 AND used_at IS NULL AND expires_at > NOW()
		RETURNING attempts`,
		pgUUID(id), maxAttempts,
	).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInvalidResetCode
		}
		return err
	}
	return nil
}

// MarkUsed consumes a reset code unless another request already did
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE password_resets SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`,
		pgUUID(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidResetCode
	}
	return nil
}

// InvalidateAll consumes every outstanding code of a user
func (r *PasswordResetRepository) InvalidateAll(ctx context.Context, userID uuid.UUID) error {
	_, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE password_resets SET used_at = NOW() WHERE user_id = $1 AND used_at IS NULL`,
		pgUUID(userID),
	)
	return err
}

func scanPasswordReset(row pgx.Row) (*domain.PasswordReset, error) {
	var (
		p      domain.PasswordReset
		id     pgtype.UUID
		userID pgtype.UUID
	)
	if err := row.Scan(&id, &userID, &p.CodeHash, &p.Attempts, &p.ExpiresAt, &p.UsedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = uuid.UUID(id.Bytes)
	p.UserID = uuid.UUID(userID.Bytes)
	return &p, nil
}
