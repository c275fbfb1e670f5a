package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func int32Ptr(v int32) *int32 { return &v }

func TestTransactionTypeValuesMatchDatabaseConstraints(t *testing.T) {
	// CHECK (type IN ('income', 'expense', 'transfer'))
	for _, v := range []string{"income", "expense", "transfer"} {
		if !TransactionType(v).IsValid() {
			t.Errorf("Database constraint value %q not accepted by TransactionType", v)
		}
	}
	if TransactionType("refund").IsValid() {
		t.Error("Expected unknown transaction type to be invalid")
	}
}

func TestBalanceDeltas(t *testing.T) {
	amount := decimal.RequireFromString("25.50")

	tests := []struct {
		name     string
		tx       Transaction
		expected map[int32]string
	}{
		{
			name:     "income credits the wallet",
			tx:       Transaction{WalletID: 1, Type: TransactionTypeIncome, Amount: amount},
			expected: map[int32]string{1: "25.5"},
		},
		{
			name:     "expense debits the wallet",
			tx:       Transaction{WalletID: 1, Type: TransactionTypeExpense, Amount: amount},
			expected: map[int32]string{1: "-25.5"},
		},
		{
			name:     "transfer moves between wallets",
			tx:       Transaction{WalletID: 1, ToWalletID: int32Ptr(2), Type: TransactionTypeTransfer, Amount: amount},
			expected: map[int32]string{1: "-25.5", 2: "25.5"},
		},
		{
			name:     "unknown type changes nothing",
			tx:       Transaction{WalletID: 1, Type: "refund", Amount: amount},
			expected: map[int32]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deltas := tt.tx.BalanceDeltas()
			if len(deltas) != len(tt.expected) {
				t.Fatalf("Expected %d deltas, got %d", len(tt.expected), len(deltas))
			}
			for _, d := range deltas {
				want, ok := tt.expected[d.WalletID]
				if !ok {
					t.Errorf("Unexpected delta for wallet %d", d.WalletID)
					continue
				}
				if d.Amount.String() != want {
					t.Errorf("Wallet %d delta = %s, want %s", d.WalletID, d.Amount, want)
				}
			}
		})
	}
}

func TestRevertDeltasUndoBalanceDeltas(t *testing.T) {
	tx := Transaction{WalletID: 1, ToWalletID: int32Ptr(2), Type: TransactionTypeTransfer, Amount: decimal.NewFromInt(40)}

	applied := tx.BalanceDeltas()
	reverted := tx.RevertDeltas()
	if len(applied) != len(reverted) {
		t.Fatalf("Expected %d reverted deltas, got %d", len(applied), len(reverted))
	}
	for i := range applied {
		if applied[i].WalletID != reverted[i].WalletID {
			t.Errorf("Delta %d wallet = %d, want %d", i, reverted[i].WalletID, applied[i].WalletID)
		}
		if !applied[i].Amount.Add(reverted[i].Amount).IsZero() {
			t.Errorf("Delta %d does not cancel out: %s + %s", i, applied[i].Amount, reverted[i].Amount)
		}
	}
}

func TestTouches(t *testing.T) {
	transfer := Transaction{WalletID: 1, ToWalletID: int32Ptr(2), Type: TransactionTypeTransfer}
	expense := Transaction{WalletID: 1, Type: TransactionTypeExpense}

	if !transfer.Touches(1) || !transfer.Touches(2) {
		t.Error("Expected transfer to touch both wallets")
	}
	if transfer.Touches(3) {
		t.Error("Expected transfer not to touch an unrelated wallet")
	}
	if expense.Touches(2) {
		t.Error("Expected expense to touch only its own wallet")
	}
}

func TestBudgetKey(t *testing.T) {
	date := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	expense := Transaction{WalletID: 3, CategoryID: int32Ptr(7), Type: TransactionTypeExpense, Date: date}
	key := expense.BudgetKey()
	if key == nil {
		t.Fatal("Expected a budget key for a categorized expense")
	}
	if key.CategoryID != 7 || key.WalletID != 3 || !key.Date.Equal(date) {
		t.Errorf("Unexpected budget key %+v", key)
	}

	tests := []struct {
		name string
		tx   Transaction
	}{
		{"income", Transaction{WalletID: 3, CategoryID: int32Ptr(7), Type: TransactionTypeIncome}},
		{"transfer", Transaction{WalletID: 3, ToWalletID: int32Ptr(4), Type: TransactionTypeTransfer}},
		{"uncategorized expense", Transaction{WalletID: 3, Type: TransactionTypeExpense}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tx.BudgetKey() != nil {
				t.Error("Expected no budget key")
			}
		})
	}
}
