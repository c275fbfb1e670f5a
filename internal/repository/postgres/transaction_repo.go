package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendly/spendly-backend/internal/domain"
)

const transactionColumns = `id, user_id, wallet_id, to_wallet_id, category_id, type, amount, note, date, created_at, updated_at, deleted_at`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO transactions (user_id, wallet_id, to_wallet_id, category_id, type, amount, note, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+transactionColumns,
		pgUUID(transaction.UserID), transaction.WalletID, transaction.ToWalletID, transaction.CategoryID,
		string(transaction.Type), amount, transaction.Note, pgDate(transaction.Date),
	)
	return scanTransaction(row)
}

// GetByID retrieves a live transaction of the user
func (r *TransactionRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		pgUUID(userID), id,
	)
	return scanTransactionOrNotFound(row)
}

// GetForUpdate is GetByID with a row lock inside a transaction
func (r *TransactionRepository) GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	return scanTransactionOrNotFound(db(ctx, r.pool).QueryRow(ctx, query, pgUUID(userID), id))
}

// GetByUser retrieves transactions with optional filters and pagination
func (r *TransactionRepository) GetByUser(ctx context.Context, userID uuid.UUID, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters == nil {
		filters = &domain.TransactionFilters{}
	}
	page := domain.NormalizePage(filters.Page, filters.PageSize)

	where := []string{"user_id = $1", "deleted_at IS NULL"}
	args := []any{pgUUID(userID)}
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filters.WalletID != nil {
		add("(wallet_id = $%[1]d OR to_wallet_id = $%[1]d)", *filters.WalletID)
	}
	if filters.CategoryID != nil {
		add("category_id = $%d", *filters.CategoryID)
	}
	if filters.Type != nil {
		add("type = $%d", string(*filters.Type))
	}
	if filters.StartDate != nil {
		add("date >= $%d", pgDate(*filters.StartDate))
	}
	if filters.EndDate != nil {
		add("date <= $%d", pgDate(*filters.EndDate))
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		add("note ILIKE $%d", "%"+escapeLike(search)+"%")
	}

	whereSQL := strings.Join(where, " AND ")
	return r.paginate(ctx, whereSQL, args, page)
}

// GetByWallet lists every live transaction moving money in or out of the wallet
func (r *TransactionRepository) GetByWallet(ctx context.Context, userID uuid.UUID, walletID int32) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = $1 AND deleted_at IS NULL AND (wallet_id = $2 OR to_wallet_id = $2)
		ORDER BY id`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	rows, err := db(ctx, r.pool).Query(ctx, query, pgUUID(userID), walletID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// GetByBudget lists the transactions counted towards a budget
func (r *TransactionRepository) GetByBudget(ctx context.Context, budget *domain.Budget, page domain.Page) (*domain.PaginatedTransactions, error) {
	where := `user_id = $1 AND deleted_at IS NULL AND type = 'expense'
		AND category_id = ANY($2) AND date BETWEEN $3 AND $4
		AND ($5::int IS NULL OR wallet_id = $5)`
	args := []any{pgUUID(budget.UserID), budget.CategoryIDs, pgDate(budget.StartDate), pgDate(budget.EndDate), budget.WalletID}
	return r.paginate(ctx, where, args, page)
}

// Update overwrites the mutable fields of a live transaction
func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE transactions
		SET wallet_id = $3, to_wallet_id = $4, category_id = $5, type = $6, amount = $7,
		    note = $8, date = $9, updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+transactionColumns,
		pgUUID(transaction.UserID), transaction.ID, transaction.WalletID, transaction.ToWalletID, transaction.CategoryID,
		string(transaction.Type), amount, transaction.Note, pgDate(transaction.Date),
	)
	return scanTransactionOrNotFound(row)
}

// SoftDelete marks a transaction as deleted
func (r *TransactionRepository) SoftDelete(ctx context.Context, userID uuid.UUID, id int32) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE transactions SET deleted_at = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		pgUUID(userID), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// CountByWallet counts live transactions touching the wallet
func (r *TransactionRepository) CountByWallet(ctx context.Context, userID uuid.UUID, walletID int32) (int64, error) {
	var count int64
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = $1 AND deleted_at IS NULL AND (wallet_id = $2 OR to_wallet_id = $2)`,
		pgUUID(userID), walletID,
	).Scan(&count)
	return count, err
}

func (r *TransactionRepository) paginate(ctx context.Context, where string, args []any, page domain.Page) (*domain.PaginatedTransactions, error) {
	q := db(ctx, r.pool)

	var totalItems int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	pageArgs := append(append([]any{}, args...), page.PageSize, page.Offset())
	rows, err := q.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE %s
		ORDER BY date DESC, id DESC
		LIMIT $%d OFFSET $%d`, transactionColumns, where, len(args)+1, len(args)+2),
		pageArgs...,
	)
	if err != nil {
		return nil, err
	}
	data, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	return &domain.PaginatedTransactions{
		Data:       data,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: totalItems,
		TotalPages: page.TotalPages(totalItems),
	}, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()
	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		userID pgtype.UUID
		txType string
		amount pgtype.Numeric
		txDate pgtype.Date
	)
	if err := row.Scan(&t.ID, &userID, &t.WalletID, &t.ToWalletID, &t.CategoryID, &txType, &amount, &t.Note, &txDate, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt); err != nil {
		return nil, err
	}
	t.UserID = uuid.UUID(userID.Bytes)
	t.Type = domain.TransactionType(txType)
	t.Amount = pgNumericToDecimal(amount)
	t.Date = txDate.Time
	return &t, nil
}

func scanTransactionOrNotFound(row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
