package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestCategoryTypeValuesMatchDatabaseConstraints(t *testing.T) {
	// CHECK (type IN ('income', 'expense', 'debt_loan'))
	for _, v := range []string{"income", "expense", "debt_loan"} {
		if !CategoryType(v).IsValid() {
			t.Errorf("Database constraint value %q not accepted by CategoryType", v)
		}
	}
	if CategoryType("transfer").IsValid() {
		t.Error("Expected transfer not to be a category type")
	}
}

func TestAcceptsTransaction(t *testing.T) {
	tests := []struct {
		category CategoryType
		txType   TransactionType
		expected bool
	}{
		{CategoryTypeIncome, TransactionTypeIncome, true},
		{CategoryTypeIncome, TransactionTypeExpense, false},
		{CategoryTypeExpense, TransactionTypeExpense, true},
		{CategoryTypeExpense, TransactionTypeIncome, false},
		{CategoryTypeDebtLoan, TransactionTypeIncome, true},
		{CategoryTypeDebtLoan, TransactionTypeExpense, true},
		{CategoryTypeExpense, TransactionTypeTransfer, false},
	}

	for _, tt := range tests {
		c := &Category{Type: tt.category}
		if got := c.AcceptsTransaction(tt.txType); got != tt.expected {
			t.Errorf("%s category accepts %s = %v, want %v", tt.category, tt.txType, got, tt.expected)
		}
	}
}

func TestIsSystem(t *testing.T) {
	owner := uuid.New()
	if !(&Category{}).IsSystem() {
		t.Error("Expected a category without owner to be a system category")
	}
	if (&Category{UserID: &owner}).IsSystem() {
		t.Error("Expected an owned category not to be a system category")
	}
}
