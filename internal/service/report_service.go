package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/util"
)

// MaxStatementLines caps the rows printed in a PDF statement
const MaxStatementLines = 1000

var hundred = decimal.NewFromInt(100)

// ReportService aggregates transactions into period summaries and trends
type ReportService struct {
	reportRepo domain.ReportRepository
	userRepo   domain.UserRepository
	now        func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(reportRepo domain.ReportRepository, userRepo domain.UserRepository) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

// SummaryInput selects the period and wallets of a summary
type SummaryInput struct {
	Period   domain.ReportPeriod
	Date     *time.Time
	Currency string
	WalletID *int32
}

// ReportTotals holds the totals of a period
type ReportTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryShare is a breakdown row with its share of the categorized type total
type CategoryShare struct {
	*domain.CategoryTotal
	Share decimal.Decimal `json:"share"`
}

// ReportSummary is the totals, breakdown and time series of one period
type ReportSummary struct {
	Period    domain.ReportPeriod   `json:"period"`
	StartDate time.Time             `json:"startDate"`
	EndDate   time.Time             `json:"endDate"`
	Currency  string                `json:"currency"`
	Bucket    domain.BucketSize     `json:"bucket"`
	Totals    ReportTotals          `json:"totals"`
	Income    []*CategoryShare      `json:"income"`
	Expense   []*CategoryShare      `json:"expense"`
	Series    []*domain.SeriesPoint `json:"series"`
}

// Trend is income and expense per month over the last months
type Trend struct {
	Months   int                   `json:"months"`
	Currency string                `json:"currency"`
	Series   []*domain.SeriesPoint `json:"series"`
}

// PeriodBounds returns the first and last day of the period containing date
func PeriodBounds(period domain.ReportPeriod, date time.Time) (time.Time, time.Time, domain.BucketSize, error) {
	switch period {
	case domain.PeriodWeek:
		start, end := util.WeekBounds(date)
		return start, end, domain.BucketDay, nil
	case domain.PeriodMonth:
		start, end := util.MonthBounds(date)
		return start, end, domain.BucketDay, nil
	case domain.PeriodYear:
		start, end := util.YearBounds(date)
		return start, end, domain.BucketMonth, nil
	}
	return time.Time{}, time.Time{}, "", domain.ErrInvalidPeriod
}

// resolveCurrency defaults to the user's currency
func (s *ReportService) resolveCurrency(ctx context.Context, userID uuid.UUID, currency string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return domain.NormalizeCurrency(currency, user.Currency)
}

// Summary builds the report of the week, month or year containing the date
func (s *ReportService) Summary(ctx context.Context, userID uuid.UUID, input SummaryInput) (*ReportSummary, error) {
	date := s.now().UTC()
	if input.Date != nil {
		date = *input.Date
	}
	start, end, bucket, err := PeriodBounds(input.Period, date)
	if err != nil {
		return nil, err
	}

	currency, err := s.resolveCurrency(ctx, userID, input.Currency)
	if err != nil {
		return nil, err
	}

	filter := domain.ReportFilter{
		StartDate: start,
		EndDate:   end,
		Currency:  currency,
		WalletID:  input.WalletID,
	}

	totals, err := s.reportRepo.SumByType(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.reportRepo.CategoryBreakdown(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	points, err := s.reportRepo.Series(ctx, userID, filter, bucket)
	if err != nil {
		return nil, err
	}

	income, expense := splitShares(breakdown)
	return &ReportSummary{
		Period:    input.Period,
		StartDate: start,
		EndDate:   end,
		Currency:  currency,
		Bucket:    bucket,
		Totals: ReportTotals{
			Income:  totals.Income,
			Expense: totals.Expense,
			Net:     totals.Income.Sub(totals.Expense),
		},
		Income:  income,
		Expense: expense,
		Series:  zeroFill(points, start, end, bucket),
	}, nil
}

// Trend returns income and expense for each of the last months, ending with the current one
func (s *ReportService) Trend(ctx context.Context, userID uuid.UUID, months int, currency string) (*Trend, error) {
	if months < 1 || months > domain.MaxTrendMonths {
		return nil, domain.ErrInvalidInput
	}

	currency, err := s.resolveCurrency(ctx, userID, currency)
	if err != nil {
		return nil, err
	}

	_, end := util.MonthBounds(s.now().UTC())
	start := time.Date(end.Year(), end.Month()-time.Month(months-1), 1, 0, 0, 0, 0, time.UTC)

	points, err := s.reportRepo.Series(ctx, userID, domain.ReportFilter{
		StartDate: start,
		EndDate:   end,
		Currency:  currency,
	}, domain.BucketMonth)
	if err != nil {
		return nil, err
	}

	return &Trend{
		Months:   months,
		Currency: currency,
		Series:   zeroFill(points, start, end, domain.BucketMonth),
	}, nil
}

// splitShares separates the breakdown by type and computes each row's share
func splitShares(rows []*domain.CategoryTotal) ([]*CategoryShare, []*CategoryShare) {
	incomeTotal, expenseTotal := decimal.Zero, decimal.Zero
	for _, r := range rows {
		switch r.Type {
		case domain.TransactionTypeIncome:
			incomeTotal = incomeTotal.Add(r.Amount)
		case domain.TransactionTypeExpense:
			expenseTotal = expenseTotal.Add(r.Amount)
		}
	}

	income := make([]*CategoryShare, 0)
	expense := make([]*CategoryShare, 0)
	for _, r := range rows {
		switch r.Type {
		case domain.TransactionTypeIncome:
			income = append(income, &CategoryShare{CategoryTotal: r, Share: percentOf(r.Amount, incomeTotal)})
		case domain.TransactionTypeExpense:
			expense = append(expense, &CategoryShare{CategoryTotal: r, Share: percentOf(r.Amount, expenseTotal)})
		}
	}
	return income, expense
}

func percentOf(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}

// zeroFill returns one point per bucket between start and end, filling gaps with zeros
func zeroFill(points []*domain.SeriesPoint, start, end time.Time, bucket domain.BucketSize) []*domain.SeriesPoint {
	byBucket := make(map[time.Time]*domain.SeriesPoint, len(points))
	for _, p := range points {
		byBucket[util.Day(p.Bucket)] = p
	}

	var buckets []time.Time
	if bucket == domain.BucketMonth {
		buckets = util.MonthsBetween(start, end)
	} else {
		buckets = util.DaysBetween(start, end)
	}

	series := make([]*domain.SeriesPoint, len(buckets))
	for i, b := range buckets {
		if p, ok := byBucket[b]; ok {
			series[i] = &domain.SeriesPoint{Bucket: b, Income: p.Income, Expense: p.Expense}
			continue
		}
		series[i] = &domain.SeriesPoint{Bucket: b, Income: decimal.Zero, Expense: decimal.Zero}
	}
	return series
}
