package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
)

const walletColumns = `id, user_id, name, currency, balance, icon, exclude_from_total, created_at, updated_at, deleted_at`

// WalletRepository implements domain.WalletRepository using PostgreSQL
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create creates a new wallet
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) (*domain.Wallet, error) {
	balance, err := decimalToPgNumeric(wallet.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	row := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO wallets (user_id, name, currency, balance, icon, exclude_from_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+walletColumns,
		pgUUID(wallet.UserID), wallet.Name, wallet.Currency, balance, wallet.Icon, wallet.ExcludeFromTotal,
	)
	return scanWallet(row)
}

// GetByID retrieves a live wallet owned by the user
func (r *WalletRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Wallet, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT `+walletColumns+` FROM wallets
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		pgUUID(userID), id,
	)
	return scanWalletOrNotFound(row)
}

// GetForUpdate is GetByID with a row lock inside a transaction
func (r *WalletRepository) GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	return scanWalletOrNotFound(db(ctx, r.pool).QueryRow(ctx, query, pgUUID(userID), id))
}

// GetAllByUser retrieves all live wallets of a user ordered by creation
func (r *WalletRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Wallet, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT `+walletColumns+` FROM wallets
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id`,
		pgUUID(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wallets := make([]*domain.Wallet, 0)
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// Update updates the mutable wallet fields
func (r *WalletRepository) Update(ctx context.Context, userID uuid.UUID, id int32, data *domain.UpdateWalletData) (*domain.Wallet, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE wallets
		SET name = $3, currency = $4, icon = $5, exclude_from_total = $6, updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+walletColumns,
		pgUUID(userID), id, data.Name, data.Currency, data.Icon, data.ExcludeFromTotal,
	)
	return scanWalletOrNotFound(row)
}

// AddToBalance atomically adds delta to the wallet balance
func (r *WalletRepository) AddToBalance(ctx context.Context, userID uuid.UUID, id int32, delta decimal.Decimal) (*domain.Wallet, error) {
	amount, err := decimalToPgNumeric(delta)
	if err != nil {
		return nil, fmt.Errorf("invalid delta: %w", err)
	}

	row := db(ctx, r.pool).QueryRow(ctx, `
		UPDATE wallets SET balance = balance + $3, updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+walletColumns,
		pgUUID(userID), id, amount,
	)
	w, err := scanWalletOrNotFound(row)
	if err != nil && isNumericOverflow(err) {
		return nil, domain.ErrAmountTooLarge
	}
	return w, err
}

// SoftDelete marks a wallet as deleted
func (r *WalletRepository) SoftDelete(ctx context.Context, userID uuid.UUID, id int32) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE wallets SET deleted_at = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND deleted_at IS NULL`,
		pgUUID(userID), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

// GetTotalsByCurrency sums balances of wallets counted in the total, per currency
func (r *WalletRepository) GetTotalsByCurrency(ctx context.Context, userID uuid.UUID) ([]*domain.CurrencyTotal, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT currency, COALESCE(SUM(balance), 0)
		FROM wallets
		WHERE user_id = $1 AND deleted_at IS NULL AND NOT exclude_from_total
		GROUP BY currency
		ORDER BY currency`,
		pgUUID(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]*domain.CurrencyTotal, 0)
	for rows.Next() {
		var (
			currency string
			total    pgtype.Numeric
		)
		if err := rows.Scan(&currency, &total); err != nil {
			return nil, err
		}
		totals = append(totals, &domain.CurrencyTotal{Currency: currency, Total: pgNumericToDecimal(total)})
	}
	return totals, rows.Err()
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		w       domain.Wallet
		userID  pgtype.UUID
		balance pgtype.Numeric
	)
	if err := row.Scan(&w.ID, &userID, &w.Name, &w.Currency, &balance, &w.Icon, &w.ExcludeFromTotal, &w.CreatedAt, &w.UpdatedAt, &w.DeletedAt); err != nil {
		return nil, err
	}
	w.UserID = uuid.UUID(userID.Bytes)
	w.Balance = pgNumericToDecimal(balance)
	return &w, nil
}

func scanWalletOrNotFound(row pgx.Row) (*domain.Wallet, error) {
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}
