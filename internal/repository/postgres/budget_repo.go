package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendly/spendly-backend/internal/domain"
)

const budgetColumns = `id, user_id, name, amount, current_amount, category_ids, wallet_id, start_date, end_date, alert_threshold, alert_level, created_at, updated_at`

// budgetSpentSQL sums the live expenses counted towards budget row b
const budgetSpentSQL = `COALESCE((
	SELECT SUM(t.amount) FROM transactions t
	WHERE t.user_id = b.user_id
	  AND t.deleted_at IS NULL
	  AND t.type = 'expense'
	  AND t.category_id = ANY(b.category_ids)
	  AND t.date BETWEEN b.start_date AND b.end_date
	  AND (b.wallet_id IS NULL OR t.wallet_id = b.wallet_id)
), 0)`

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

// Create creates a new budget with current_amount computed from existing transactions
func (r *BudgetRepository) Create(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var id int32
	if err := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO budgets (user_id, name, amount, category_ids, wallet_id, start_date, end_date, alert_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		pgUUID(budget.UserID), budget.Name, amount, budget.CategoryIDs, budget.WalletID,
		pgDate(budget.StartDate), pgDate(budget.EndDate), budget.AlertThreshold,
	).Scan(&id); err != nil {
		return nil, err
	}
	return r.RecomputeByID(ctx, budget.UserID, id)
}

// GetByID retrieves a budget of the user
func (r *BudgetRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Budget, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND id = $2`,
		pgUUID(userID), id,
	)
	return scanBudgetOrNotFound(row)
}

// GetAllByUser lists budgets, optionally only those active on the given day
func (r *BudgetRepository) GetAllByUser(ctx context.Context, userID uuid.UUID, activeOn *time.Time) ([]*domain.Budget, error) {
	var day pgtype.Date
	if activeOn != nil {
		day = pgDate(*activeOn)
	}

	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = $1 AND ($2::date IS NULL OR $2::date BETWEEN start_date AND end_date)
		ORDER BY start_date DESC, id DESC`,
		pgUUID(userID), day,
	)
	if err != nil {
		return nil, err
	}
	return collectBudgets(rows)
}

// Update overwrites the editable fields and refreshes current_amount
func (r *BudgetRepository) Update(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	if _, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE budgets
		SET name = $3, amount = $4, category_ids = $5, wallet_id = $6,
		    start_date = $7, end_date = $8, alert_threshold = $9, updated_at = NOW()
		WHERE user_id = $1 AND id = $2`,
		pgUUID(budget.UserID), budget.ID, budget.Name, amount, budget.CategoryIDs, budget.WalletID,
		pgDate(budget.StartDate), pgDate(budget.EndDate), budget.AlertThreshold,
	); err != nil {
		return nil, err
	}
	return r.RecomputeByID(ctx, budget.UserID, budget.ID)
}

// Delete removes a budget
func (r *BudgetRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND id = $2`, pgUUID(userID), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

// Recompute refreshes every budget a transaction with the given key counts towards
func (r *BudgetRepository) Recompute(ctx context.Context, userID uuid.UUID, key domain.BudgetKey) ([]*domain.Budget, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		UPDATE budgets b SET current_amount = `+budgetSpentSQL+`, updated_at = NOW()
		WHERE b.user_id = $1
		  AND $2 = ANY(b.category_ids)
		  AND $4 BETWEEN b.start_date AND b.end_date
		  AND (b.wallet_id IS NULL OR b.wallet_id = $3)
		RETURNING `+qualified("b", budgetColumns),
		pgUUID(userID), key.CategoryID, key.WalletID, pgDate(key.Date),
	)
	if err != nil {
		return nil, err
	}
	return collectBudgets(rows)
}

// RecomputeByID refreshes a single budget
func (r *BudgetRepository) RecomputeByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Budget, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE budgets b SET current_amount = `+budgetSpentSQL+`, updated_at = NOW()
		WHERE b.user_id = $1 AND b.id = $2
		RETURNING `+qualified("b", budgetColumns),
		pgUUID(userID), id,
	)
	return scanBudgetOrNotFound(row)
}

// RecomputeAll refreshes every budget of the user
func (r *BudgetRepository) RecomputeAll(ctx context.Context, userID uuid.UUID) ([]*domain.Budget, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		UPDATE budgets b SET current_amount = `+budgetSpentSQL+`, updated_at = NOW()
		WHERE b.user_id = $1
		RETURNING `+qualified("b", budgetColumns),
		pgUUID(userID),
	)
	if err != nil {
		return nil, err
	}
	return collectBudgets(rows)
}

// SetAlertLevel stores the last notified alert level if it is still from
func (r *BudgetRepository) SetAlertLevel(ctx context.Context, userID uuid.UUID, id int32, from, to domain.AlertLevel) (bool, error) {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE budgets SET alert_level = $3
		WHERE user_id = $1 AND id = $2 AND alert_level = $4`,
		pgUUID(userID), id, string(to), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func collectBudgets(rows pgx.Rows) ([]*domain.Budget, error) {
	defer rows.Close()
	result := make([]*domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var (
		b         domain.Budget
		userID    pgtype.UUID
		amount    pgtype.Numeric
		current   pgtype.Numeric
		startDate pgtype.Date
		endDate   pgtype.Date
		level     string
	)
	if err := row.Scan(&b.ID, &userID, &b.Name, &amount, &current, &b.CategoryIDs, &b.WalletID,
		&startDate, &endDate, &b.AlertThreshold, &level, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.UserID = uuid.UUID(userID.Bytes)
	b.Amount = pgNumericToDecimal(amount)
	b.CurrentAmount = pgNumericToDecimal(current)
	b.StartDate = startDate.Time
	b.EndDate = endDate.Time
	b.AlertLevel = domain.AlertLevel(level)
	return &b, nil
}

func scanBudgetOrNotFound(row pgx.Row) (*domain.Budget, error) {
	b, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	return b, nil
}
