package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReportPeriod string

const (
	PeriodWeek  ReportPeriod = "week"
	PeriodMonth ReportPeriod = "month"
	PeriodYear  ReportPeriod = "year"
)

// BucketSize is the granularity of a report time series
type BucketSize string

const (
	BucketDay   BucketSize = "day"
	BucketMonth BucketSize = "month"
)

const MaxTrendMonths = 24

// ReportFilter narrows report aggregation to a date range and wallet set
type ReportFilter struct {
	StartDate time.Time
	EndDate   time.Time
	Currency  string
	WalletID  *int32
}

// TypeTotals holds summed income and expense for a range
type TypeTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CategoryTotal is one row of the category breakdown
type CategoryTotal struct {
	CategoryID   int32           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Icon         string          `json:"icon"`
	Color        string          `json:"color"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Count        int64           `json:"count"`
}

// SeriesPoint is the income/expense of one bucket
type SeriesPoint struct {
	Bucket  time.Time       `json:"bucket"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// StatementLine is a transaction row enriched with names for exports
type StatementLine struct {
	Date         time.Time
	Type         TransactionType
	WalletName   string
	CategoryName string
	Note         string
	Amount       decimal.Decimal
}

type ReportRepository interface {
	SumByType(ctx context.Context, userID uuid.UUID, filter ReportFilter) (*TypeTotals, error)
	CategoryBreakdown(ctx context.Context, userID uuid.UUID, filter ReportFilter) ([]*CategoryTotal, error)
	Series(ctx context.Context, userID uuid.UUID, filter ReportFilter, bucket BucketSize) ([]*SeriesPoint, error)
	StatementLines(ctx context.Context, userID uuid.UUID, filter ReportFilter, limit int32) ([]*StatementLine, error)
}
