package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

const MaxTransactionNoteLength = 500

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

type Transaction struct {
	ID         int32           `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	WalletID   int32           `json:"walletId"`
	ToWalletID *int32          `json:"toWalletId,omitempty"`
	CategoryID *int32          `json:"categoryId,omitempty"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Note       *string         `json:"note,omitempty"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	DeletedAt  *time.Time      `json:"deletedAt,omitempty"`
}

// WalletDelta is a signed balance change applied to one wallet
type WalletDelta struct {
	WalletID int32
	Amount   decimal.Decimal
}

// BalanceDeltas returns the balance changes this transaction applies.
// Income credits the wallet, expense debits it, and a transfer debits the
// source and credits the target.
func (t *Transaction) BalanceDeltas() []WalletDelta {
	switch t.Type {
	case TransactionTypeIncome:
		return []WalletDelta{{WalletID: t.WalletID, Amount: t.Amount}}
	case TransactionTypeExpense:
		return []WalletDelta{{WalletID: t.WalletID, Amount: t.Amount.Neg()}}
	case TransactionTypeTransfer:
		deltas := []WalletDelta{{WalletID: t.WalletID, Amount: t.Amount.Neg()}}
		if t.ToWalletID != nil {
			deltas = append(deltas, WalletDelta{WalletID: *t.ToWalletID, Amount: t.Amount})
		}
		return deltas
	}
	return nil
}

// RevertDeltas returns the changes that undo BalanceDeltas
func (t *Transaction) RevertDeltas() []WalletDelta {
	deltas := t.BalanceDeltas()
	for i := range deltas {
		deltas[i].Amount = deltas[i].Amount.Neg()
	}
	return deltas
}

// Touches reports whether the transaction moves money in or out of walletID
func (t *Transaction) Touches(walletID int32) bool {
	if t.WalletID == walletID {
		return true
	}
	return t.ToWalletID != nil && *t.ToWalletID == walletID
}

// BudgetKey identifies the budgets a transaction can count towards
type BudgetKey struct {
	CategoryID int32
	WalletID   int32
	Date       time.Time
}

// BudgetKey returns the key used to find affected budgets, or nil when the
// transaction cannot count towards any budget (income, transfers, uncategorized).
func (t *Transaction) BudgetKey() *BudgetKey {
	if t.Type != TransactionTypeExpense || t.CategoryID == nil {
		return nil
	}
	return &BudgetKey{CategoryID: *t.CategoryID, WalletID: t.WalletID, Date: t.Date}
}

type TransactionFilters struct {
	WalletID   *int32
	CategoryID *int32
	Type       *TransactionType
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
	Page       int32
	PageSize   int32
}

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int32) (*Transaction, error)
	// GetForUpdate loads the transaction with a row lock when ctx carries a transaction
	GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*Transaction, error)
	GetByUser(ctx context.Context, userID uuid.UUID, filters *TransactionFilters) (*PaginatedTransactions, error)
	GetByWallet(ctx context.Context, userID uuid.UUID, walletID int32) ([]*Transaction, error)
	GetByBudget(ctx context.Context, budget *Budget, page Page) (*PaginatedTransactions, error)
	Update(ctx context.Context, transaction *Transaction) (*Transaction, error)
	SoftDelete(ctx context.Context, userID uuid.UUID, id int32) error
	CountByWallet(ctx context.Context, userID uuid.UUID, walletID int32) (int64, error)
}
