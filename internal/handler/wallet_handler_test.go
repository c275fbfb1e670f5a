package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWallet(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/v1/wallets", `{"name": " Checking ", "initialBalance": "1000.5"}`)
	expectStatus(t, rec, http.StatusCreated)

	wallet := decode[WalletResponse](t, rec)
	assert.Equal(t, "Checking", wallet.Name)
	assert.Equal(t, "EUR", wallet.Currency, "currency defaults to the profile currency")
	assert.Equal(t, "1000.50", wallet.Balance)
}

func TestCreateWallet_Validation(t *testing.T) {
	a := newAPI(t)

	expectFieldError(t, a.do(http.MethodPost, "/api/v1/wallets", `{"name": ""}`), "name")
	expectFieldError(t, a.do(http.MethodPost, "/api/v1/wallets", `{"name": "Cash", "currency": "euros"}`), "currency")
	expectFieldError(t, a.do(http.MethodPost, "/api/v1/wallets", `{"name": "Cash", "initialBalance": "lots"}`), "initialBalance")
	expectFieldError(t, a.do(http.MethodPost, "/api/v1/wallets", `{"name": "Cash", "initialBalance": "-1000000000000"}`), "initialBalance")
}

func TestGetWallets_TotalsPerCurrency(t *testing.T) {
	a := newAPI(t)
	a.wallet("Checking", "EUR", "100.00")
	a.wallet("Savings", "EUR", "50.25")
	a.wallet("Travel", "USD", "20.00")

	rec := a.do(http.MethodGet, "/api/v1/wallets", "")
	expectStatus(t, rec, http.StatusOK)

	list := decode[WalletListResponse](t, rec)
	assert.Len(t, list.Wallets, 3)

	totals := make(map[string]string)
	for _, total := range list.Totals {
		totals[total.Currency] = total.Total
	}
	assert.Equal(t, "150.25", totals["EUR"])
	assert.Equal(t, "20.00", totals["USD"])
}

func TestGetWallet_NotFound(t *testing.T) {
	a := newAPI(t)

	expectStatus(t, a.do(http.MethodGet, "/api/v1/wallets/999", ""), http.StatusNotFound)
	expectStatus(t, a.do(http.MethodGet, "/api/v1/wallets/abc", ""), http.StatusBadRequest)
}

func TestUpdateWallet_CurrencyLockedByTransactions(t *testing.T) {
	a := newAPI(t)
	w := a.wallet("Checking", "EUR", "100.00")
	path := fmt.Sprintf("/api/v1/wallets/%d", w.ID)

	rec := a.do(http.MethodPut, path, `{"currency": "usd", "name": "Main"}`)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[WalletResponse](t, rec)
	assert.Equal(t, "USD", updated.Currency)
	assert.Equal(t, "Main", updated.Name)

	body := fmt.Sprintf(`{"walletId": %d, "categoryId": %d, "type": "expense", "amount": "10"}`, w.ID, a.food.ID)
	expectStatus(t, a.do(http.MethodPost, "/api/v1/transactions", body), http.StatusCreated)

	expectStatus(t, a.do(http.MethodPut, path, `{"currency": "eur"}`), http.StatusConflict)
}

func TestAdjustWallet(t *testing.T) {
	a := newAPI(t)
	w := a.wallet("Cash", "EUR", "80.00")
	path := fmt.Sprintf("/api/v1/wallets/%d/adjust", w.ID)

	rec := a.do(http.MethodPost, path, `{"newBalance": "100.00"}`)
	expectStatus(t, rec, http.StatusOK)

	result := decode[AdjustWalletResponse](t, rec)
	assert.Equal(t, "100.00", result.Wallet.Balance)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, "income", result.Transaction.Type)
	assert.Equal(t, "20.00", result.Transaction.Amount)

	// Adjusting to the current balance records nothing
	rec = a.do(http.MethodPost, path, `{"newBalance": "100"}`)
	expectStatus(t, rec, http.StatusOK)
	assert.Nil(t, decode[AdjustWalletResponse](t, rec).Transaction)

	expectFieldError(t, a.do(http.MethodPost, path, `{"newBalance": "much"}`), "newBalance")
	expectFieldError(t, a.do(http.MethodPost, path, `{"newBalance": "1000000000000"}`), "newBalance")
	assert.Equal(t, "100.00", a.wallets.Wallets[w.ID].Balance.StringFixed(2))
}

func TestDeleteWallet_RemovesTransactions(t *testing.T) {
	a := newAPI(t)
	w := a.wallet("Cash", "EUR", "80.00")

	body := fmt.Sprintf(`{"walletId": %d, "categoryId": %d, "type": "expense", "amount": "10"}`, w.ID, a.food.ID)
	expectStatus(t, a.do(http.MethodPost, "/api/v1/transactions", body), http.StatusCreated)

	expectStatus(t, a.do(http.MethodDelete, fmt.Sprintf("/api/v1/wallets/%d", w.ID), ""), http.StatusNoContent)
	expectStatus(t, a.do(http.MethodGet, fmt.Sprintf("/api/v1/wallets/%d", w.ID), ""), http.StatusNotFound)

	rec := a.do(http.MethodGet, "/api/v1/transactions", "")
	expectStatus(t, rec, http.StatusOK)
	assert.Empty(t, decode[PaginatedTransactionsResponse](t, rec).Data)
}
