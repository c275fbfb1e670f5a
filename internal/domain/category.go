package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CategoryType string

const (
	CategoryTypeIncome   CategoryType = "income"
	CategoryTypeExpense  CategoryType = "expense"
	CategoryTypeDebtLoan CategoryType = "debt_loan"
)

const MaxCategoryNameLength = 50

// IsValid reports whether t is a known category type
func (t CategoryType) IsValid() bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeDebtLoan:
		return true
	}
	return false
}

// Category labels transactions and budgets. A nil UserID marks a system default.
type Category struct {
	ID        int32        `json:"id"`
	UserID    *uuid.UUID   `json:"userId,omitempty"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// IsSystem reports whether the category is a read-only default
func (c *Category) IsSystem() bool {
	return c.UserID == nil
}

// AcceptsTransaction reports whether a transaction of txType may use this category.
// Debt/loan categories are valid for both directions (borrowing is income, lending is expense).
func (c *Category) AcceptsTransaction(txType TransactionType) bool {
	switch txType {
	case TransactionTypeIncome:
		return c.Type == CategoryTypeIncome || c.Type == CategoryTypeDebtLoan
	case TransactionTypeExpense:
		return c.Type == CategoryTypeExpense || c.Type == CategoryTypeDebtLoan
	}
	return false
}

// CategoryRepository defines the persistence operations for categories
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	// GetByID returns the category if it is a system default or owned by userID
	GetByID(ctx context.Context, userID uuid.UUID, id int32) (*Category, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string, categoryType CategoryType) (*Category, error)
	GetAllForUser(ctx context.Context, userID uuid.UUID, categoryType *CategoryType) ([]*Category, error)
	Update(ctx context.Context, userID uuid.UUID, id int32, name, icon, color string) (*Category, error)
	Delete(ctx context.Context, userID uuid.UUID, id int32) error
	IsInUse(ctx context.Context, userID uuid.UUID, id int32) (bool, error)
}
