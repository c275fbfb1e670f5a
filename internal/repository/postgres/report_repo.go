package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spendly/spendly-backend/internal/domain"
)

// reportWhere is shared by every report query; args come from reportArgs
const reportWhere = `t.user_id = $1
	AND t.deleted_at IS NULL
	AND t.date BETWEEN $2 AND $3
	AND ($4::text = '' OR w.currency = $4::text)
	AND ($5::int IS NULL OR t.wallet_id = $5 OR t.to_wallet_id = $5)`

// ReportRepository runs the aggregation queries behind reports
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func reportArgs(userID uuid.UUID, f domain.ReportFilter) []any {
	return []any{pgUUID(userID), pgDate(f.StartDate), pgDate(f.EndDate), f.Currency, f.WalletID}
}

// SumByType totals income and expense in the range. Transfers are not counted.
func (r *ReportRepository) SumByType(ctx context.Context, userID uuid.UUID, filter domain.ReportFilter) (*domain.TypeTotals, error) {
	var income, expense pgtype.Numeric
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'income'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'expense'), 0)
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE `+reportWhere,
		reportArgs(userID, filter)...,
	).Scan(&income, &expense)
	if err != nil {
		return nil, err
	}
	return &domain.TypeTotals{
		Income:  pgNumericToDecimal(income),
		Expense: pgNumericToDecimal(expense),
	}, nil
}

// CategoryBreakdown groups categorized income and expense by category, largest first.
// Transfers and uncategorized adjustments are left out.
func (r *ReportRepository) CategoryBreakdown(ctx context.Context, userID uuid.UUID, filter domain.ReportFilter) ([]*domain.CategoryTotal, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT c.id, c.name, c.icon, c.color, t.type, SUM(t.amount), COUNT(*)
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		JOIN categories c ON c.id = t.category_id
		WHERE `+reportWhere+` AND t.type <> 'transfer'
		GROUP BY c.id, c.name, c.icon, c.color, t.type
		ORDER BY t.type, SUM(t.amount) DESC, c.name`,
		reportArgs(userID, filter)...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.CategoryTotal, 0)
	for rows.Next() {
		var (
			ct     domain.CategoryTotal
			txType string
			amount pgtype.Numeric
		)
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &ct.Icon, &ct.Color, &txType, &amount, &ct.Count); err != nil {
			return nil, err
		}
		ct.Type = domain.TransactionType(txType)
		ct.Amount = pgNumericToDecimal(amount)
		result = append(result, &ct)
	}
	return result, rows.Err()
}

// Series returns income and expense per bucket. Empty buckets are omitted.
func (r *ReportRepository) Series(ctx context.Context, userID uuid.UUID, filter domain.ReportFilter, bucket domain.BucketSize) ([]*domain.SeriesPoint, error) {
	args := append(reportArgs(userID, filter), string(bucket))
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT
			date_trunc($6::text, t.date::timestamp)::date AS bucket,
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'income'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'expense'), 0)
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE `+reportWhere+` AND t.type <> 'transfer'
		GROUP BY bucket
		ORDER BY bucket`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.SeriesPoint, 0)
	for rows.Next() {
		var (
			b               pgtype.Date
			income, expense pgtype.Numeric
		)
		if err := rows.Scan(&b, &income, &expense); err != nil {
			return nil, err
		}
		result = append(result, &domain.SeriesPoint{
			Bucket:  b.Time,
			Income:  pgNumericToDecimal(income),
			Expense: pgNumericToDecimal(expense),
		})
	}
	return result, rows.Err()
}

// StatementLines lists transactions in chronological order for exports
func (r *ReportRepository) StatementLines(ctx context.Context, userID uuid.UUID, filter domain.ReportFilter, limit int32) ([]*domain.StatementLine, error) {
	args := append(reportArgs(userID, filter), limit)
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT
			t.date,
			t.type,
			w.name,
			COALESCE(c.name, 'To ' || tw.name, ''),
			COALESCE(t.note, ''),
			t.amount
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		LEFT JOIN wallets tw ON tw.id = t.to_wallet_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE `+reportWhere+`
		ORDER BY t.date, t.id
		LIMIT $6`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.StatementLine, 0)
	for rows.Next() {
		var (
			line   domain.StatementLine
			day    pgtype.Date
			txType string
			amount pgtype.Numeric
		)
		if err := rows.Scan(&day, &txType, &line.WalletName, &line.CategoryName, &line.Note, &amount); err != nil {
			return nil, err
		}
		line.Date = day.Time
		line.Type = domain.TransactionType(txType)
		line.Amount = pgNumericToDecimal(amount)
		result = append(result, &line)
	}
	return result, rows.Err()
}
