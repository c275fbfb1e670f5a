package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/websocket"
)

// WalletService handles wallet-related business logic
type WalletService struct {
	txManager       domain.TxManager
	walletRepo      domain.WalletRepository
	transactionRepo domain.TransactionRepository
	budgetRepo      domain.BudgetRepository
	userRepo        domain.UserRepository
	transactions    *TransactionService
	budgets         *BudgetService
	eventPublisher  websocket.EventPublisher
}

// NewWalletService creates a new WalletService
func NewWalletService(
	txManager domain.TxManager,
	walletRepo domain.WalletRepository,
	transactionRepo domain.TransactionRepository,
	budgetRepo domain.BudgetRepository,
	userRepo domain.UserRepository,
	transactions *TransactionService,
	budgets *BudgetService,
) *WalletService {
	return &WalletService{
		txManager:       txManager,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
		userRepo:        userRepo,
		transactions:    transactions,
		budgets:         budgets,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *WalletService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *WalletService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateWalletInput holds the input for creating a wallet
type CreateWalletInput struct {
	Name             string
	Currency         string
	InitialBalance   decimal.Decimal
	Icon             *string
	ExcludeFromTotal bool
}

// UpdateWalletInput holds the optional fields of a wallet update
type UpdateWalletInput struct {
	Name             *string
	Currency         *string
	Icon             *string
	ExcludeFromTotal *bool
}

// WalletList is every live wallet of a user with per-currency totals
type WalletList struct {
	Wallets []*domain.Wallet        `json:"wallets"`
	Totals  []*domain.CurrencyTotal `json:"totals"`
}

func validateWalletName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxWalletNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

func normalizeIcon(icon *string) *string {
	if icon == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*icon)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// CreateWallet creates a wallet. The currency defaults to the user's currency.
// A negative initial balance is allowed for overdrafts and credit lines.
func (s *WalletService) CreateWallet(ctx context.Context, userID uuid.UUID, input CreateWalletInput) (*domain.Wallet, error) {
	name, err := validateWalletName(input.Name)
	if err != nil {
		return nil, err
	}

	fallback := domain.DefaultCurrency
	if strings.TrimSpace(input.Currency) == "" {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		fallback = user.Currency
	}
	currency, err := domain.NormalizeCurrency(input.Currency, fallback)
	if err != nil {
		return nil, err
	}

	balance := input.InitialBalance.Round(2)
	if !domain.WithinAmountRange(balance) {
		return nil, domain.ErrAmountTooLarge
	}

	return s.walletRepo.Create(ctx, &domain.Wallet{
		UserID:           userID,
		Name:             name,
		Currency:         currency,
		Balance:          balance,
		Icon:             normalizeIcon(input.Icon),
		ExcludeFromTotal: input.ExcludeFromTotal,
	})
}

// ListWallets returns the user's wallets and the totals of the included ones
func (s *WalletService) ListWallets(ctx context.Context, userID uuid.UUID) (*WalletList, error) {
	wallets, err := s.walletRepo.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	totals, err := s.walletRepo.GetTotalsByCurrency(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WalletList{Wallets: wallets, Totals: totals}, nil
}

// GetWallet retrieves a live wallet
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID, id int32) (*domain.Wallet, error) {
	return s.walletRepo.GetByID(ctx, userID, id)
}

// UpdateWallet applies the provided fields. The currency cannot change once
// the wallet has transactions.
func (s *WalletService) UpdateWallet(ctx context.Context, userID uuid.UUID, id int32, input UpdateWalletInput) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	data := &domain.UpdateWalletData{
		Name:             wallet.Name,
		Currency:         wallet.Currency,
		Icon:             wallet.Icon,
		ExcludeFromTotal: wallet.ExcludeFromTotal,
	}

	if input.Name != nil {
		if data.Name, err = validateWalletName(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.Icon != nil {
		data.Icon = normalizeIcon(input.Icon)
	}
	if input.ExcludeFromTotal != nil {
		data.ExcludeFromTotal = *input.ExcludeFromTotal
	}
	if input.Currency != nil {
		currency, err := domain.NormalizeCurrency(*input.Currency, wallet.Currency)
		if err != nil {
			return nil, err
		}
		if currency != wallet.Currency {
			count, err := s.transactionRepo.CountByWallet(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, domain.ErrCurrencyLocked
			}
		}
		data.Currency = currency
	}

	updated, err := s.walletRepo.Update(ctx, userID, id, data)
	if err != nil {
		return nil, err
	}
	s.publishEvent(userID, websocket.WalletUpdated(updated))
	return updated, nil
}

// DeleteWallet soft-deletes a wallet together with every transaction touching it.
// Transfers are reverted on the other wallet so its balance stays consistent,
// and every budget of the user is recomputed.
func (s *WalletService) DeleteWallet(ctx context.Context, userID uuid.UUID, id int32) error {
	var (
		removed  []*domain.Transaction
		affected []*domain.Wallet
		budgets  []*domain.Budget
	)

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		removed, err = s.transactionRepo.GetByWallet(ctx, userID, id)
		if err != nil {
			return err
		}

		// Lock the wallet with its transfer counterparts in id order, then
		// reload what touches it now that no new transfer can reach it
		lock := []int32{id}
		for _, t := range removed {
			for _, d := range t.BalanceDeltas() {
				lock = append(lock, d.WalletID)
			}
		}
		if _, err := lockWallets(ctx, s.walletRepo, userID, lock); err != nil {
			return err
		}
		removed, err = s.transactionRepo.GetByWallet(ctx, userID, id)
		if err != nil {
			return err
		}

		others := make(map[int32]decimal.Decimal)
		for _, t := range removed {
			for _, d := range t.RevertDeltas() {
				if d.WalletID != id {
					others[d.WalletID] = others[d.WalletID].Add(d.Amount)
				}
			}
			if err := s.transactionRepo.SoftDelete(ctx, userID, t.ID); err != nil {
				return err
			}
		}

		ids := make([]int32, 0, len(others))
		for walletID := range others {
			ids = append(ids, walletID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, walletID := range ids {
			w, err := s.walletRepo.AddToBalance(ctx, userID, walletID, others[walletID])
			if err != nil {
				return err
			}
			affected = append(affected, w)
		}

		if err := s.walletRepo.SoftDelete(ctx, userID, id); err != nil {
			return err
		}

		budgets, err = s.budgetRepo.RecomputeAll(ctx, userID)
		return err
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("wallet_id", id).
		Int("transactions", len(removed)).
		Msg("Wallet deleted")

	s.publishEvent(userID, websocket.WalletDeleted(map[string]int32{"id": id}))
	for _, t := range removed {
		s.publishEvent(userID, websocket.TransactionDeleted(t))
	}
	for _, w := range affected {
		s.publishEvent(userID, websocket.WalletUpdated(w))
	}
	if s.budgets != nil {
		s.budgets.EvaluateAlerts(ctx, userID, budgets)
		for _, b := range budgets {
			s.publishEvent(userID, websocket.BudgetUpdated(s.budgets.view(b)))
		}
	}
	return nil
}

// AdjustBalance records the difference between newBalance and the current
// balance as a transaction. The returned transaction is nil when nothing changed.
func (s *WalletService) AdjustBalance(ctx context.Context, userID uuid.UUID, id int32, newBalance decimal.Decimal, note *string) (*domain.Transaction, *domain.Wallet, error) {
	return s.transactions.RecordAdjustment(ctx, userID, id, newBalance, note)
}
