package service

import (
	"errors"
	"testing"

	"github.com/spendly/spendly-backend/internal/domain"
)

func TestCreateWallet_DefaultsToUserCurrency(t *testing.T) {
	e := newEnv(t)

	w, err := e.walletService.CreateWallet(e.ctx, e.userID, CreateWalletInput{
		Name:           "  Credit card ",
		InitialBalance: dec("-120.456"),
		Icon:           ptr(""),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if w.Name != "Credit card" {
		t.Errorf("Expected trimmed name, got %q", w.Name)
	}
	if w.Currency != "EUR" {
		t.Errorf("Expected user currency EUR, got %s", w.Currency)
	}
	if !w.Balance.Equal(dec("-120.46")) {
		t.Errorf("Expected negative balance rounded to -120.46, got %s", w.Balance)
	}
	if w.Icon != nil {
		t.Errorf("Expected empty icon to be nil, got %q", *w.Icon)
	}
}

func TestCreateWallet_Validation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name    string
		input   CreateWalletInput
		wantErr error
	}{
		{"blank name", CreateWalletInput{Name: " "}, domain.ErrNameRequired},
		{"long name", CreateWalletInput{Name: string(make([]byte, domain.MaxWalletNameLength+1))}, domain.ErrNameTooLong},
		{"bad currency", CreateWalletInput{Name: "Cash", Currency: "EURO"}, domain.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.walletService.CreateWallet(e.ctx, e.userID, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestListWallets_TotalsSkipExcluded(t *testing.T) {
	e := newEnv(t)
	e.wallet("Cash", "EUR", "10")
	e.wallet("Bank", "EUR", "90")
	e.wallet("Dollars", "USD", "5")
	hidden := e.wallet("Loan", "EUR", "-1000")
	hidden.ExcludeFromTotal = true

	list, err := e.walletService.ListWallets(e.ctx, e.userID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(list.Wallets) != 4 {
		t.Errorf("Expected 4 wallets, got %d", len(list.Wallets))
	}
	if len(list.Totals) != 2 {
		t.Fatalf("Expected 2 currency totals, got %d", len(list.Totals))
	}
	if list.Totals[0].Currency != "EUR" || !list.Totals[0].Total.Equal(dec("100")) {
		t.Errorf("Expected EUR total 100, got %s %s", list.Totals[0].Currency, list.Totals[0].Total)
	}
	if list.Totals[1].Currency != "USD" || !list.Totals[1].Total.Equal(dec("5")) {
		t.Errorf("Expected USD total 5, got %s %s", list.Totals[1].Currency, list.Totals[1].Total)
	}
}

func TestUpdateWallet_PartialFields(t *testing.T) {
	e := newEnv(t)
	w := e.wallet("Cash", "EUR", "10")

	updated, err := e.walletService.UpdateWallet(e.ctx, e.userID, w.ID, UpdateWalletInput{
		ExcludeFromTotal: ptr(true),
		Icon:             ptr("wallet"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if updated.Name != "Cash" {
		t.Errorf("Expected name unchanged, got %s", updated.Name)
	}
	if !updated.ExcludeFromTotal {
		t.Error("Expected wallet excluded from total")
	}
	if updated.Icon == nil || *updated.Icon != "wallet" {
		t.Errorf("Expected icon wallet, got %v", updated.Icon)
	}
	if e.events.Count("wallet.updated") != 1 {
		t.Errorf("Expected a wallet.updated event, got %v", e.events.Types())
	}
}

func TestUpdateWallet_CurrencyLockedOnceUsed(t *testing.T) {
	e := newEnv(t)
	fresh := e.wallet("Fresh", "EUR", "0")
	used := e.wallet("Used", "EUR", "0")
	e.income(t, used.ID, "5", day(2026, 10, 1))

	updated, err := e.walletService.UpdateWallet(e.ctx, e.userID, fresh.ID, UpdateWalletInput{Currency: ptr("usd")})
	if err != nil {
		t.Fatalf("Expected currency change on empty wallet, got %v", err)
	}
	if updated.Currency != "USD" {
		t.Errorf("Expected USD, got %s", updated.Currency)
	}

	_, err = e.walletService.UpdateWallet(e.ctx, e.userID, used.ID, UpdateWalletInput{Currency: ptr("USD")})
	if !errors.Is(err, domain.ErrCurrencyLocked) {
		t.Errorf("Expected ErrCurrencyLocked, got %v", err)
	}

	// Same currency is not a change
	if _, err := e.walletService.UpdateWallet(e.ctx, e.userID, used.ID, UpdateWalletInput{Currency: ptr("eur")}); err != nil {
		t.Errorf("Expected unchanged currency to pass, got %v", err)
	}
}

func TestDeleteWallet_CascadesAndRevertsOtherSide(t *testing.T) {
	e := newEnv(t)
	doomed := e.wallet("Old card", "EUR", "100")
	keeper := e.wallet("Bank", "EUR", "500")
	b := e.foodBudget(t, "500", nil)

	e.expense(t, doomed.ID, "30", day(2026, 10, 2))
	kept := e.expense(t, keeper.ID, "15", day(2026, 10, 2))
	// keeper -> doomed: reverting credits keeper back
	_, err := e.transactionService.CreateTransaction(e.ctx, e.userID, TransactionInput{
		WalletID: keeper.ID, ToWalletID: &doomed.ID, Type: domain.TransactionTypeTransfer, Amount: dec("100"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// doomed -> keeper: reverting debits keeper
	_, err = e.transactionService.CreateTransaction(e.ctx, e.userID, TransactionInput{
		WalletID: doomed.ID, ToWalletID: &keeper.ID, Type: domain.TransactionTypeTransfer, Amount: dec("40"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := e.balance(t, keeper.ID); !got.Equal(dec("425")) {
		t.Fatalf("Expected keeper at 425 before delete, got %s", got)
	}

	e.events.Events = nil
	e.wallets.Locked = nil
	if err := e.walletService.DeleteWallet(e.ctx, e.userID, doomed.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(e.wallets.Locked) != 2 || e.wallets.Locked[0] != doomed.ID || e.wallets.Locked[1] != keeper.ID {
		t.Errorf("Expected locks on [%d %d], got %v", doomed.ID, keeper.ID, e.wallets.Locked)
	}

	if _, err := e.walletService.GetWallet(e.ctx, e.userID, doomed.ID); !errors.Is(err, domain.ErrWalletNotFound) {
		t.Errorf("Expected deleted wallet to be hidden, got %v", err)
	}
	if got := e.balance(t, keeper.ID); !got.Equal(dec("485")) {
		t.Errorf("Expected keeper at 485 after cascade, got %s", got)
	}
	live := e.transactions.Live(e.userID)
	if len(live) != 1 || live[0].ID != kept.ID {
		t.Errorf("Expected only the keeper expense to survive, got %d live", len(live))
	}
	if got := e.budgets.Budgets[b.ID].CurrentAmount; !got.Equal(dec("15")) {
		t.Errorf("Expected budget recomputed to 15, got %s", got)
	}
	assertBalanceInvariant(t, e, keeper.ID, "500")

	if e.events.Count("wallet.deleted") != 1 {
		t.Errorf("Expected wallet.deleted, got %v", e.events.Types())
	}
	if e.events.Count("transaction.deleted") != 3 {
		t.Errorf("Expected 3 transaction.deleted events, got %d", e.events.Count("transaction.deleted"))
	}
}

func TestDeleteWallet_NotFound(t *testing.T) {
	e := newEnv(t)
	if err := e.walletService.DeleteWallet(e.ctx, e.userID, 12); !errors.Is(err, domain.ErrWalletNotFound) {
		t.Errorf("Expected ErrWalletNotFound, got %v", err)
	}
}

func TestAdjustBalance(t *testing.T) {
	e := newEnv(t)
	w := e.wallet("Cash", "EUR", "100")

	tx, wallet, err := e.walletService.AdjustBalance(e.ctx, e.userID, w.ID, dec("80.25"), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tx == nil {
		t.Fatal("Expected an adjustment transaction")
	}
	if tx.Type != domain.TransactionTypeExpense || !tx.Amount.Equal(dec("19.75")) {
		t.Errorf("Expected expense of 19.75, got %s %s", tx.Type, tx.Amount)
	}
	if tx.CategoryID != nil {
		t.Error("Expected adjustment without category")
	}
	if tx.Note == nil || *tx.Note != AdjustmentNote {
		t.Errorf("Expected default note, got %v", tx.Note)
	}
	if !wallet.Balance.Equal(dec("80.25")) {
		t.Errorf("Expected balance 80.25, got %s", wallet.Balance)
	}

	tx, _, err = e.walletService.AdjustBalance(e.ctx, e.userID, w.ID, dec("200"), ptr("Found cash"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tx.Type != domain.TransactionTypeIncome || !tx.Amount.Equal(dec("119.75")) {
		t.Errorf("Expected income of 119.75, got %s %s", tx.Type, tx.Amount)
	}
	assertBalanceInvariant(t, e, w.ID, "100")
}

func TestAdjustBalance_NoDifferenceIsNoop(t *testing.T) {
	e := newEnv(t)
	w := e.wallet("Cash", "EUR", "100")

	tx, wallet, err := e.walletService.AdjustBalance(e.ctx, e.userID, w.ID, dec("100.00"), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tx != nil {
		t.Errorf("Expected no transaction, got %+v", tx)
	}
	if !wallet.Balance.Equal(dec("100")) {
		t.Errorf("Expected balance 100, got %s", wallet.Balance)
	}
	if len(e.transactions.Transactions) != 0 || len(e.events.Events) != 0 {
		t.Error("Expected nothing recorded or published")
	}
}
