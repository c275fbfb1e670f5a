package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func octoberBudget(amount, current string) *Budget {
	return &Budget{
		Amount:         decimal.RequireFromString(amount),
		CurrentAmount:  decimal.RequireFromString(current),
		StartDate:      day(2026, time.October, 1),
		EndDate:        day(2026, time.October, 31),
		AlertThreshold: DefaultAlertThreshold,
	}
}

func TestComputeAlertLevel(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		expected AlertLevel
	}{
		{"nothing spent", "0", AlertLevelNone},
		{"below threshold", "79.99", AlertLevelNone},
		{"at threshold", "80", AlertLevelWarning},
		{"exactly the cap", "100", AlertLevelWarning},
		{"over the cap", "100.01", AlertLevelExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := octoberBudget("100", tt.current).ComputeAlertLevel(); got != tt.expected {
				t.Errorf("ComputeAlertLevel() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestAlertLevelIsHigherThan(t *testing.T) {
	if !AlertLevelExceeded.IsHigherThan(AlertLevelWarning) {
		t.Error("Expected exceeded > warning")
	}
	if !AlertLevelWarning.IsHigherThan(AlertLevelNone) {
		t.Error("Expected warning > none")
	}
	if AlertLevelNone.IsHigherThan(AlertLevelWarning) {
		t.Error("Expected none not > warning")
	}
	if AlertLevelWarning.IsHigherThan(AlertLevelWarning) {
		t.Error("Expected a level not to be higher than itself")
	}
}

func TestIsActiveOn(t *testing.T) {
	b := octoberBudget("100", "0")

	tests := []struct {
		date     time.Time
		expected bool
	}{
		{day(2026, time.September, 30), false},
		{day(2026, time.October, 1), true},
		{time.Date(2026, time.October, 31, 23, 59, 0, 0, time.UTC), true},
		{day(2026, time.November, 1), false},
	}

	for _, tt := range tests {
		if got := b.IsActiveOn(tt.date); got != tt.expected {
			t.Errorf("IsActiveOn(%s) = %v, want %v", tt.date.Format(time.DateOnly), got, tt.expected)
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name           string
		current        string
		today          time.Time
		remaining      string
		percentUsed    string
		daysLeft       int
		dailyAllowance string
	}{
		{"mid range", "85", day(2026, time.October, 14), "15", "85", 18, "0.83"},
		{"last day", "40", day(2026, time.October, 31), "60", "40", 1, "60"},
		{"before start counts the full range", "0", day(2026, time.September, 1), "100", "0", 31, "3.23"},
		{"after end", "50", day(2026, time.November, 2), "50", "50", 0, "0"},
		{"overspent", "120", day(2026, time.October, 14), "-20", "120", 18, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := octoberBudget("100", tt.current).Progress(tt.today)
			if p.Remaining.String() != tt.remaining {
				t.Errorf("Remaining = %s, want %s", p.Remaining, tt.remaining)
			}
			if p.PercentUsed.String() != tt.percentUsed {
				t.Errorf("PercentUsed = %s, want %s", p.PercentUsed, tt.percentUsed)
			}
			if p.DaysLeft != tt.daysLeft {
				t.Errorf("DaysLeft = %d, want %d", p.DaysLeft, tt.daysLeft)
			}
			if p.DailyAllowance.String() != tt.dailyAllowance {
				t.Errorf("DailyAllowance = %s, want %s", p.DailyAllowance, tt.dailyAllowance)
			}
		})
	}
}
