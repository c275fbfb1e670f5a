package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxWalletNameLength = 100

// Wallet is a named money container owned by a user
type Wallet struct {
	ID               int32           `json:"id"`
	UserID           uuid.UUID       `json:"userId"`
	Name             string          `json:"name"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	Icon             *string         `json:"icon,omitempty"`
	ExcludeFromTotal bool            `json:"excludeFromTotal"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	DeletedAt        *time.Time      `json:"deletedAt,omitempty"`
}

// CurrencyTotal is the summed balance of a user's wallets in one currency
type CurrencyTotal struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
}

// UpdateWalletData holds the mutable wallet fields
type UpdateWalletData struct {
	Name             string
	Currency         string
	Icon             *string
	ExcludeFromTotal bool
}

// WalletRepository defines the persistence operations for wallets
type WalletRepository interface {
	Create(ctx context.Context, wallet *Wallet) (*Wallet, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int32) (*Wallet, error)
	// GetForUpdate loads the wallet with a row lock when ctx carries a transaction
	GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*Wallet, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*Wallet, error)
	Update(ctx context.Context, userID uuid.UUID, id int32, data *UpdateWalletData) (*Wallet, error)
	// AddToBalance adds delta (possibly negative) to the wallet balance
	AddToBalance(ctx context.Context, userID uuid.UUID, id int32, delta decimal.Decimal) (*Wallet, error)
	SoftDelete(ctx context.Context, userID uuid.UUID, id int32) error
	GetTotalsByCurrency(ctx context.Context, userID uuid.UUID) ([]*CurrencyTotal, error)
}
