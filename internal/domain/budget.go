package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AlertLevel string

const (
	AlertLevelNone     AlertLevel = "none"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelExceeded AlertLevel = "exceeded"
)

const (
	MaxBudgetNameLength   = 100
	DefaultAlertThreshold = 80
)

// rank orders alert levels so that rises can be detected
func (l AlertLevel) rank() int {
	switch l {
	case AlertLevelWarning:
		return 1
	case AlertLevelExceeded:
		return 2
	}
	return 0
}

// IsHigherThan reports whether l is more severe than other
func (l AlertLevel) IsHigherThan(other AlertLevel) bool {
	return l.rank() > other.rank()
}

// Budget is a spending cap over a set of categories and a date range
type Budget struct {
	ID             int32           `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	CurrentAmount  decimal.Decimal `json:"currentAmount"`
	CategoryIDs    []int32         `json:"categoryIds"`
	WalletID       *int32          `json:"walletId,omitempty"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	AlertThreshold int32           `json:"alertThreshold"`
	AlertLevel     AlertLevel      `json:"alertLevel"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IsActiveOn reports whether day falls inside the budget range (inclusive)
func (b *Budget) IsActiveOn(day time.Time) bool {
	d := truncateDay(day)
	return !d.Before(truncateDay(b.StartDate)) && !d.After(truncateDay(b.EndDate))
}

// ComputeAlertLevel returns the level implied by the current spending
func (b *Budget) ComputeAlertLevel() AlertLevel {
	if b.CurrentAmount.GreaterThan(b.Amount) {
		return AlertLevelExceeded
	}
	limit := b.Amount.Mul(decimal.NewFromInt32(b.AlertThreshold)).Div(decimal.NewFromInt(100))
	if b.CurrentAmount.GreaterThanOrEqual(limit) && b.CurrentAmount.IsPositive() {
		return AlertLevelWarning
	}
	return AlertLevelNone
}

// BudgetProgress is the derived view of a budget on a given day
type BudgetProgress struct {
	Remaining      decimal.Decimal `json:"remaining"`
	PercentUsed    decimal.Decimal `json:"percentUsed"`
	DaysLeft       int             `json:"daysLeft"`
	DailyAllowance decimal.Decimal `json:"dailyAllowance"`
}

// Progress computes remaining amount, usage and daily allowance as of today
func (b *Budget) Progress(today time.Time) BudgetProgress {
	remaining := b.Amount.Sub(b.CurrentAmount)

	percent := decimal.Zero
	if b.Amount.IsPositive() {
		percent = b.CurrentAmount.Div(b.Amount).Mul(decimal.NewFromInt(100)).Round(2)
	}

	start := truncateDay(b.StartDate)
	end := truncateDay(b.EndDate)
	day := truncateDay(today)
	if day.Before(start) {
		day = start
	}
	daysLeft := 0
	if !day.After(end) {
		daysLeft = int(end.Sub(day).Hours()/24) + 1
	}

	allowance := decimal.Zero
	if daysLeft > 0 && remaining.IsPositive() {
		allowance = remaining.Div(decimal.NewFromInt(int64(daysLeft))).Round(2)
	}

	return BudgetProgress{
		Remaining:      remaining,
		PercentUsed:    percent,
		DaysLeft:       daysLeft,
		DailyAllowance: allowance,
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type BudgetRepository interface {
	Create(ctx context.Context, budget *Budget) (*Budget, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int32) (*Budget, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID, activeOn *time.Time) ([]*Budget, error)
	Update(ctx context.Context, budget *Budget) (*Budget, error)
	Delete(ctx context.Context, userID uuid.UUID, id int32) error
	// Recompute refreshes current_amount of the budgets matched by key from
	// the live transactions and returns them
	Recompute(ctx context.Context, userID uuid.UUID, key BudgetKey) ([]*Budget, error)
	RecomputeByID(ctx context.Context, userID uuid.UUID, id int32) (*Budget, error)
	RecomputeAll(ctx context.Context, userID uuid.UUID) ([]*Budget, error)
	// SetAlertLevel moves the stored level from one value to another. It
	// reports false when the stored level no longer equals from.
	SetAlertLevel(ctx context.Context, userID uuid.UUID, id int32, from, to AlertLevel) (bool, error)
}
