package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedReport records one salary and one grocery purchase today
func (a *api) seedReport() {
	a.t.Helper()
	w := a.wallet("Cash", "EUR", "0.00")
	for _, body := range []string{
		fmt.Sprintf(`{"walletId": %d, "categoryId": %d, "type": "income", "amount": "100"}`, w.ID, a.salary.ID),
		fmt.Sprintf(`{"walletId": %d, "categoryId": %d, "type": "expense", "amount": "30"}`, w.ID, a.food.ID),
	} {
		expectStatus(a.t, a.do(http.MethodPost, "/api/v1/transactions", body), http.StatusCreated)
	}
}

func TestGetSummary(t *testing.T) {
	a := newAPI(t)
	a.seedReport()

	rec := a.do(http.MethodGet, "/api/v1/reports/summary", "")
	expectStatus(t, rec, http.StatusOK)

	summary := decode[ReportSummaryResponse](t, rec)
	assert.Equal(t, "month", summary.Period)
	assert.Equal(t, "EUR", summary.Currency)
	assert.Equal(t, "day", summary.Bucket)
	assert.Equal(t, "100.00", summary.Totals.Income)
	assert.Equal(t, "30.00", summary.Totals.Expense)
	assert.Equal(t, "70.00", summary.Totals.Net)

	require.Len(t, summary.Expense, 1)
	assert.Equal(t, "Food", summary.Expense[0].CategoryName)
	assert.Equal(t, "100.00", summary.Expense[0].Share)
	require.Len(t, summary.Income, 1)
	assert.Equal(t, "Salary", summary.Income[0].CategoryName)

	assert.NotEmpty(t, summary.Series)
	assert.Equal(t, summary.StartDate, summary.Series[0].Date)
}

func TestGetSummary_OtherCurrencyIsEmpty(t *testing.T) {
	a := newAPI(t)
	a.seedReport()

	rec := a.do(http.MethodGet, "/api/v1/reports/summary?currency=usd", "")
	expectStatus(t, rec, http.StatusOK)

	summary := decode[ReportSummaryResponse](t, rec)
	assert.Equal(t, "USD", summary.Currency)
	assert.Equal(t, "0.00", summary.Totals.Income)
	assert.Empty(t, summary.Expense)
}

func TestGetSummary_Validation(t *testing.T) {
	a := newAPI(t)

	tests := []struct {
		query string
		field string
	}{
		{"period=decade", "period"},
		{"date=yesterday", "date"},
		{"currency=EURO", "currency"},
		{"walletId=abc", "walletId"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			expectFieldError(t, a.do(http.MethodGet, "/api/v1/reports/summary?"+tt.query, ""), tt.field)
		})
	}
}

func TestGetTrend(t *testing.T) {
	a := newAPI(t)
	a.seedReport()

	rec := a.do(http.MethodGet, "/api/v1/reports/trend", "")
	expectStatus(t, rec, http.StatusOK)

	trend := decode[TrendResponse](t, rec)
	assert.Equal(t, defaultTrendMonths, trend.Months)
	require.Len(t, trend.Series, defaultTrendMonths)
	last := trend.Series[len(trend.Series)-1]
	assert.Equal(t, "100.00", last.Income)
	assert.Equal(t, "30.00", last.Expense)

	rec = a.do(http.MethodGet, "/api/v1/reports/trend?months=12", "")
	expectStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[TrendResponse](t, rec).Series, 12)

	expectFieldError(t, a.do(http.MethodGet, "/api/v1/reports/trend?months=0", ""), "months")
	expectFieldError(t, a.do(http.MethodGet, "/api/v1/reports/trend?months=25", ""), "months")
	expectFieldError(t, a.do(http.MethodGet, "/api/v1/reports/trend?months=six", ""), "months")
}

func TestExportPDF(t *testing.T) {
	a := newAPI(t)
	a.seedReport()

	rec := a.do(http.MethodGet, "/api/v1/reports/export.pdf?period=year", "")
	expectStatus(t, rec, http.StatusOK)

	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="spendly-year-`), disposition)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")), "expected a PDF document")

	expectFieldError(t, a.do(http.MethodGet, "/api/v1/reports/export.pdf?period=daily", ""), "period")
}

func TestReports_RequireAuth(t *testing.T) {
	a := newAPI(t)
	expectStatus(t, a.send(http.MethodGet, "/api/v1/reports/summary", "", ""), http.StatusUnauthorized)
}
