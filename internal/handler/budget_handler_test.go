package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// currentMonth returns the first and last day of the running month
func currentMonth() (string, string) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start.Format(dateLayout), start.AddDate(0, 1, -1).Format(dateLayout)
}

func (a *api) createBudget(amount string) BudgetResponse {
	a.t.Helper()
	start, end := currentMonth()
	body := fmt.Sprintf(`{"name": "Groceries", "amount": %q, "categoryIds": [%d], "startDate": %q, "endDate": %q}`,
		amount, a.food.ID, start, end)
	rec := a.do(http.MethodPost, "/api/v1/budgets", body)
	expectStatus(a.t, rec, http.StatusCreated)
	return decode[BudgetResponse](a.t, rec)
}

func TestCreateBudget(t *testing.T) {
	a := newAPI(t)

	budget := a.createBudget("200")
	assert.Equal(t, "Groceries", budget.Name)
	assert.Equal(t, "200.00", budget.Amount)
	assert.Equal(t, "0.00", budget.CurrentAmount)
	assert.Equal(t, int32(80), budget.AlertThreshold)
	assert.Equal(t, "none", budget.AlertLevel)
	assert.Equal(t, "200.00", budget.Progress.Remaining)
	assert.Positive(t, budget.Progress.DaysLeft)
}

func TestCreateBudget_Validation(t *testing.T) {
	a := newAPI(t)
	start, end := currentMonth()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"blank name", fmt.Sprintf(`{"name": " ", "amount": "10", "categoryIds": [%d], "startDate": %q, "endDate": %q}`, a.food.ID, start, end), "name"},
		{"bad amount", fmt.Sprintf(`{"name": "B", "amount": "x", "categoryIds": [%d], "startDate": %q, "endDate": %q}`, a.food.ID, start, end), "amount"},
		{"amount too large", fmt.Sprintf(`{"name": "B", "amount": "1000000000000", "categoryIds": [%d], "startDate": %q, "endDate": %q}`, a.food.ID, start, end), "amount"},
		{"no categories", fmt.Sprintf(`{"name": "B", "amount": "10", "categoryIds": [], "startDate": %q, "endDate": %q}`, start, end), "categoryIds"},
		{"income category", fmt.Sprintf(`{"name": "B", "amount": "10", "categoryIds": [%d], "startDate": %q, "endDate": %q}`, a.salary.ID, start, end), "categoryIds"},
		{"missing start", fmt.Sprintf(`{"name": "B", "amount": "10", "categoryIds": [%d], "endDate": %q}`, a.food.ID, end), "startDate"},
		{"reversed range", fmt.Sprintf(`{"name": "B", "amount": "10", "categoryIds": [%d], "startDate": %q, "endDate": %q}`, a.food.ID, end, start), "endDate"},
		{"threshold too high", fmt.Sprintf(`{"name": "B", "amount": "10", "categoryIds": [%d], "startDate": %q, "endDate": %q, "alertThreshold": 150}`, a.food.ID, start, end), "alertThreshold"},
		{"unknown wallet", fmt.Sprintf(`{"name": "B", "amount": "10", "categoryIds": [%d], "walletId": 999, "startDate": %q, "endDate": %q}`, a.food.ID, start, end), "walletId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectFieldError(t, a.do(http.MethodPost, "/api/v1/budgets", tt.body), tt.field)
		})
	}
}

func TestBudget_TracksSpendingAndAlerts(t *testing.T) {
	a := newAPI(t)
	w := a.wallet("Cash", "EUR", "500.00")
	budget := a.createBudget("100")

	body := fmt.Sprintf(`{"walletId": %d, "categoryId": %d, "type": "expense", "amount": "85"}`, w.ID, a.food.ID)
	expectStatus(t, a.do(http.MethodPost, "/api/v1/transactions", body), http.StatusCreated)

	path := fmt.Sprintf("/api/v1/budgets/%d", budget.ID)
	rec := a.do(http.MethodGet, path, "")
	expectStatus(t, rec, http.StatusOK)

	got := decode[BudgetResponse](t, rec)
	assert.Equal(t, "85.00", got.CurrentAmount)
	assert.Equal(t, "warning", got.AlertLevel)
	assert.Equal(t, "15.00", got.Progress.Remaining)
	assert.Equal(t, "85.00", got.Progress.PercentUsed)

	rec = a.do(http.MethodGet, "/api/v1/notifications/unread-count", "")
	expectStatus(t, rec, http.StatusOK)
	assert.Equal(t, int64(1), decode[UnreadCountResponse](t, rec).Count)

	rec = a.do(http.MethodGet, path+"/transactions", "")
	expectStatus(t, rec, http.StatusOK)
	page := decode[PaginatedTransactionsResponse](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "85.00", page.Data[0].Amount)
}

func TestUpdateBudget_ReplacesFields(t *testing.T) {
	a := newAPI(t)
	budget := a.createBudget("100")
	start, end := currentMonth()

	body := fmt.Sprintf(`{"name": "Fun", "amount": "60", "categoryIds": [%d, %d], "startDate": %q, "endDate": %q, "alertThreshold": 50}`,
		a.food.ID, a.misc.ID, start, end)
	rec := a.do(http.MethodPut, fmt.Sprintf("/api/v1/budgets/%d", budget.ID), body)
	expectStatus(t, rec, http.StatusOK)

	updated := decode[BudgetResponse](t, rec)
	assert.Equal(t, "Fun", updated.Name)
	assert.Equal(t, "60.00", updated.Amount)
	assert.ElementsMatch(t, []int32{a.food.ID, a.misc.ID}, updated.CategoryIDs)
	assert.Equal(t, int32(50), updated.AlertThreshold)

	expectStatus(t, a.do(http.MethodPut, "/api/v1/budgets/999", body), http.StatusNotFound)
}

func TestGetBudgets_ActiveFilter(t *testing.T) {
	a := newAPI(t)
	a.createBudget("100")

	old := fmt.Sprintf(`{"name": "Old", "amount": "10", "categoryIds": [%d], "startDate": "2020-01-01", "endDate": "2020-01-31"}`, a.food.ID)
	expectStatus(t, a.do(http.MethodPost, "/api/v1/budgets", old), http.StatusCreated)

	rec := a.do(http.MethodGet, "/api/v1/budgets", "")
	expectStatus(t, rec, http.StatusOK)
	assert.Len(t, decode[[]BudgetResponse](t, rec), 2)

	rec = a.do(http.MethodGet, "/api/v1/budgets?active=true", "")
	expectStatus(t, rec, http.StatusOK)
	active := decode[[]BudgetResponse](t, rec)
	require.Len(t, active, 1)
	assert.Equal(t, "Groceries", active[0].Name)
}

func TestDeleteBudget(t *testing.T) {
	a := newAPI(t)
	budget := a.createBudget("100")
	path := fmt.Sprintf("/api/v1/budgets/%d", budget.ID)

	expectStatus(t, a.do(http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, a.do(http.MethodGet, path, ""), http.StatusNotFound)
	expectStatus(t, a.do(http.MethodDelete, path, ""), http.StatusNotFound)
}
