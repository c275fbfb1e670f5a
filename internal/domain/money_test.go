package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		code     string
		fallback string
		expected string
		err      error
	}{
		{"eur", "USD", "EUR", nil},
		{"  gbp ", "USD", "GBP", nil},
		{"", "USD", "USD", nil},
		{"EURO", "USD", "", ErrInvalidCurrency},
		{"E1R", "USD", "", ErrInvalidCurrency},
		{"", "", "", ErrInvalidCurrency},
	}

	for _, tt := range tests {
		got, err := NormalizeCurrency(tt.code, tt.fallback)
		if !errors.Is(err, tt.err) {
			t.Errorf("NormalizeCurrency(%q) error = %v, want %v", tt.code, err, tt.err)
		}
		if got != tt.expected {
			t.Errorf("NormalizeCurrency(%q) = %q, want %q", tt.code, got, tt.expected)
		}
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, pageSize int32
		expected       Page
		offset         int64
	}{
		{0, 0, Page{Page: 1, PageSize: DefaultPageSize}, 0},
		{3, 10, Page{Page: 3, PageSize: 10}, 20},
		{2, 500, Page{Page: 2, PageSize: MaxPageSize}, MaxPageSize},
		{-1, -5, Page{Page: 1, PageSize: DefaultPageSize}, 0},
		{math.MaxInt32, 100, Page{Page: math.MaxInt32, PageSize: 100}, (math.MaxInt32 - 1) * 100},
	}

	for _, tt := range tests {
		p := NormalizePage(tt.page, tt.pageSize)
		if p != tt.expected {
			t.Errorf("NormalizePage(%d, %d) = %+v, want %+v", tt.page, tt.pageSize, p, tt.expected)
		}
		if p.Offset() != tt.offset {
			t.Errorf("Offset() = %d, want %d", p.Offset(), tt.offset)
		}
	}
}

func TestTotalPages(t *testing.T) {
	p := Page{Page: 1, PageSize: 20}
	tests := map[int64]int32{0: 0, 1: 1, 20: 1, 21: 2, 100: 5}
	for total, want := range tests {
		if got := p.TotalPages(total); got != want {
			t.Errorf("TotalPages(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestWithinAmountRange(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"0", true},
		{"999999999999.99", true},
		{"-999999999999.99", true},
		{"1000000000000", false},
		{"-1000000000000", false},
		{"1e15", false},
	}

	for _, tt := range tests {
		if got := WithinAmountRange(decimal.RequireFromString(tt.amount)); got != tt.want {
			t.Errorf("WithinAmountRange(%s) = %v, want %v", tt.amount, got, tt.want)
		}
	}
}
