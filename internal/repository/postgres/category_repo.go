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

const categoryColumns = `id, user_id, name, type, icon, color, created_at, updated_at`

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create creates a user-owned category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO categories (user_id, name, type, icon, color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		pgUUIDPtr(category.UserID), category.Name, string(category.Type), category.Icon, category.Color,
	)
	created, err := scanCategory(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrCategoryExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a category visible to the user (system default or own)
func (r *CategoryRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Category, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE id = $2 AND (user_id IS NULL OR user_id = $1)`,
		pgUUID(userID), id,
	)
	return scanCategoryOrNotFound(row)
}

// GetByName finds a user-owned category by case-insensitive name and type
func (r *CategoryRepository) GetByName(ctx context.Context, userID uuid.UUID, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE user_id = $1 AND LOWER(name) = LOWER($2) AND type = $3`,
		pgUUID(userID), name, string(categoryType),
	)
	return scanCategoryOrNotFound(row)
}

// GetAllForUser lists system defaults followed by the user's own categories
func (r *CategoryRepository) GetAllForUser(ctx context.Context, userID uuid.UUID, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	var typeFilter pgtype.Text
	if categoryType != nil {
		typeFilter = pgtype.Text{String: string(*categoryType), Valid: true}
	}

	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE (user_id IS NULL OR user_id = $1)
		  AND ($2::text IS NULL OR type = $2)
		ORDER BY (user_id IS NOT NULL), type, LOWER(name)`,
		pgUUID(userID), typeFilter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Update updates a user-owned category
func (r *CategoryRepository) Update(ctx context.Context, userID uuid.UUID, id int32, name, icon, color string) (*domain.Category, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE categories SET name = $3, icon = $4, color = $5, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING `+categoryColumns,
		pgUUID(userID), id, name, icon, color,
	)
	updated, err := scanCategoryOrNotFound(row)
	if err != nil && isUniqueViolation(err) {
		return nil, domain.ErrCategoryExists
	}
	return updated, err
}

// Delete removes a user-owned category. Soft-deleted transactions still hold
// the foreign key, so they are detached from it first.
func (r *CategoryRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	return NewTxManager(r.pool).WithTx(ctx, func(ctx context.Context) error {
		if _, err := db(ctx, r.pool).Exec(ctx, `
			UPDATE transactions SET category_id = NULL
			WHERE user_id = $1 AND category_id = $2 AND deleted_at IS NOT NULL`,
			pgUUID(userID), id,
		); err != nil {
			return err
		}

		tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND id = $2`, pgUUID(userID), id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrCategoryInUse
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrCategoryNotFound
		}
		return nil
	})
}

// IsInUse reports whether a live transaction or any budget references the category
func (r *CategoryRepository) IsInUse(ctx context.Context, userID uuid.UUID, id int32) (bool, error) {
	var inUse bool
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE user_id = $1 AND category_id = $2 AND deleted_at IS NULL)
		    OR EXISTS (SELECT 1 FROM budgets WHERE user_id = $1 AND $2 = ANY(category_ids))`,
		pgUUID(userID), id,
	).Scan(&inUse)
	return inUse, err
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c            domain.Category
		userID       pgtype.UUID
		categoryType string
	)
	if err := row.Scan(&c.ID, &userID, &c.Name, &categoryType, &c.Icon, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := uuid.UUID(userID.Bytes)
		c.UserID = &id
	}
	c.Type = domain.CategoryType(categoryType)
	return &c, nil
}

func scanCategoryOrNotFound(row pgx.Row) (*domain.Category, error) {
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}
