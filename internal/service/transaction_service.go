package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/util"
	"github.com/spendly/spendly-backend/internal/websocket"
)

// AdjustmentNote is the default note of a balance adjustment transaction
const AdjustmentNote = "Balance adjustment"

// TransactionService keeps wallet balances and budget spending consistent
// with the transaction history. Every mutation runs in one database transaction.
type TransactionService struct {
	txManager       domain.TxManager
	transactionRepo domain.TransactionRepository
	walletRepo      domain.WalletRepository
	categoryRepo    domain.CategoryRepository
	budgetRepo      domain.BudgetRepository
	budgets         *BudgetService
	eventPublisher  websocket.EventPublisher
	now             func() time.Time
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	txManager domain.TxManager,
	transactionRepo domain.TransactionRepository,
	walletRepo domain.WalletRepository,
	categoryRepo domain.CategoryRepository,
	budgetRepo domain.BudgetRepository,
	budgets *BudgetService,
) *TransactionService {
	return &TransactionService{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		walletRepo:      walletRepo,
		categoryRepo:    categoryRepo,
		budgetRepo:      budgetRepo,
		budgets:         budgets,
		now:             time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TransactionService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// TransactionInput holds the fields of a transaction on create and update
type TransactionInput struct {
	WalletID   int32
	ToWalletID *int32
	CategoryID *int32
	Type       domain.TransactionType
	Amount     decimal.Decimal
	Note       *string
	Date       *time.Time
}

// mutation collects what a committed write changed so it can be published
type mutation struct {
	wallets []*domain.Wallet
	budgets []*domain.Budget
}

// build validates input against the user's wallets and categories.
// Wallets are loaded with a row lock when ctx carries a transaction, together
// with alsoLock, in ascending id order.
func (s *TransactionService) build(ctx context.Context, userID uuid.UUID, input TransactionInput, alsoLock ...int32) (*domain.Transaction, error) {
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}

	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.WithinAmountRange(amount) {
		return nil, domain.ErrAmountTooLarge
	}

	note, err := normalizeNote(input.Note)
	if err != nil {
		return nil, err
	}

	date := util.Day(s.now().UTC())
	if input.Date != nil {
		date = util.Day(*input.Date)
	}

	ids := append([]int32{input.WalletID}, alsoLock...)
	if input.Type == domain.TransactionTypeTransfer {
		if input.ToWalletID == nil {
			return nil, domain.ErrTransferTargetEmpty
		}
		if *input.ToWalletID == input.WalletID {
			return nil, domain.ErrSameWalletTransfer
		}
		ids = append(ids, *input.ToWalletID)
	}

	wallets, err := lockWallets(ctx, s.walletRepo, userID, ids)
	if err != nil {
		return nil, err
	}
	wallet := wallets[input.WalletID]

	t := &domain.Transaction{
		UserID:   userID,
		WalletID: wallet.ID,
		Type:     input.Type,
		Amount:   amount,
		Note:     note,
		Date:     date,
	}

	if input.Type == domain.TransactionTypeTransfer {
		target := wallets[*input.ToWalletID]
		if target.Currency != wallet.Currency {
			return nil, domain.ErrCurrencyMismatch
		}
		t.ToWalletID = &target.ID
		return t, nil
	}

	if input.CategoryID == nil {
		return nil, domain.ErrCategoryRequired
	}
	category, err := s.categoryRepo.GetByID(ctx, userID, *input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !category.AcceptsTransaction(input.Type) {
		return nil, domain.ErrCategoryTypeMismatch
	}
	t.CategoryID = &category.ID
	return t, nil
}

func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if len([]rune(trimmed)) > domain.MaxTransactionNoteLength {
		return nil, domain.ErrNoteTooLong
	}
	return &trimmed, nil
}

// lockWallets loads every wallet in ids once, in ascending id order, so
// concurrent writes over the same wallets take their row locks in the same order
func lockWallets(ctx context.Context, repo domain.WalletRepository, userID uuid.UUID, ids []int32) (map[int32]*domain.Wallet, error) {
	sorted := make([]int32, 0, len(ids))
	seen := make(map[int32]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	wallets := make(map[int32]*domain.Wallet, len(sorted))
	for _, id := range sorted {
		w, err := repo.GetForUpdate(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		wallets[id] = w
	}
	return wallets, nil
}

// applyDeltas sums deltas per wallet and updates balances in wallet id order
func (s *TransactionService) applyDeltas(ctx context.Context, userID uuid.UUID, deltas []domain.WalletDelta) ([]*domain.Wallet, error) {
	sums := make(map[int32]decimal.Decimal)
	for _, d := range deltas {
		sums[d.WalletID] = sums[d.WalletID].Add(d.Amount)
	}

	ids := make([]int32, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	wallets := make([]*domain.Wallet, 0, len(ids))
	for _, id := range ids {
		if sums[id].IsZero() {
			continue
		}
		wallet, err := s.walletRepo.AddToBalance(ctx, userID, id, sums[id])
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	return wallets, nil
}

// recomputeBudgets refreshes the budgets matched by any of keys
func (s *TransactionService) recomputeBudgets(ctx context.Context, userID uuid.UUID, keys ...*domain.BudgetKey) ([]*domain.Budget, error) {
	byID := make(map[int32]*domain.Budget)
	seen := make(map[domain.BudgetKey]struct{})
	for _, key := range keys {
		if key == nil {
			continue
		}
		if _, ok := seen[*key]; ok {
			continue
		}
		seen[*key] = struct{}{}

		budgets, err := s.budgetRepo.Recompute(ctx, userID, *key)
		if err != nil {
			return nil, err
		}
		for _, b := range budgets {
			byID[b.ID] = b
		}
	}

	result := make([]*domain.Budget, 0, len(byID))
	for _, b := range byID {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// afterCommit publishes the changes of a committed write and evaluates budget alerts
func (s *TransactionService) afterCommit(ctx context.Context, userID uuid.UUID, event websocket.Event, m mutation) {
	s.publishEvent(userID, event)
	for _, w := range m.wallets {
		s.publishEvent(userID, websocket.WalletUpdated(w))
	}
	if s.budgets != nil {
		s.budgets.EvaluateAlerts(ctx, userID, m.budgets)
		for _, b := range m.budgets {
			s.publishEvent(userID, websocket.BudgetUpdated(s.budgets.view(b)))
		}
	}
}

// CreateTransaction records a transaction, moves wallet balances and refreshes budgets
func (s *TransactionService) CreateTransaction(ctx context.Context, userID uuid.UUID, input TransactionInput) (*domain.Transaction, error) {
	var (
		created *domain.Transaction
		m       mutation
	)

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.build(ctx, userID, input)
		if err != nil {
			return err
		}

		created, err = s.transactionRepo.Create(ctx, t)
		if err != nil {
			return err
		}

		m.wallets, err = s.applyDeltas(ctx, userID, created.BalanceDeltas())
		if err != nil {
			return err
		}

		m.budgets, err = s.recomputeBudgets(ctx, userID, created.BudgetKey())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, websocket.TransactionCreated(created), m)
	return created, nil
}

// GetTransaction retrieves one live transaction
func (s *TransactionService) GetTransaction(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, userID, id)
}

// ListTransactions returns a filtered page of transactions, newest first
func (s *TransactionService) ListTransactions(ctx context.Context, userID uuid.UUID, filters domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, domain.ErrInvalidDateRange
	}
	page := domain.NormalizePage(filters.Page, filters.PageSize)
	filters.Page = page.Page
	filters.PageSize = page.PageSize
	filters.Search = strings.TrimSpace(filters.Search)
	return s.transactionRepo.GetByUser(ctx, userID, &filters)
}

// UpdateTransaction reverts the stored transaction, applies the new values and
// refreshes the budgets matched by both the old and the new version
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID uuid.UUID, id int32, input TransactionInput) (*domain.Transaction, error) {
	var (
		updated *domain.Transaction
		m       mutation
	)

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		old, err := s.transactionRepo.GetForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}
		oldKey := old.BudgetKey()
		revert := old.RevertDeltas()
		held := make([]int32, 0, len(revert))
		for _, d := range revert {
			held = append(held, d.WalletID)
		}

		next, err := s.build(ctx, userID, input, held...)
		if err != nil {
			return err
		}
		next.ID = old.ID

		updated, err = s.transactionRepo.Update(ctx, next)
		if err != nil {
			return err
		}

		m.wallets, err = s.applyDeltas(ctx, userID, append(revert, updated.BalanceDeltas()...))
		if err != nil {
			return err
		}

		m.budgets, err = s.recomputeBudgets(ctx, userID, oldKey, updated.BudgetKey())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, websocket.TransactionUpdated(updated), m)
	return updated, nil
}

// DeleteTransaction soft-deletes a transaction and reverts its balance changes
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID uuid.UUID, id int32) error {
	var (
		deleted *domain.Transaction
		m       mutation
	)

	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.transactionRepo.GetForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}

		if err := s.transactionRepo.SoftDelete(ctx, userID, id); err != nil {
			return err
		}

		m.wallets, err = s.applyDeltas(ctx, userID, deleted.RevertDeltas())
		if err != nil {
			return err
		}

		m.budgets, err = s.recomputeBudgets(ctx, userID, deleted.BudgetKey())
		return err
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, userID, websocket.TransactionDeleted(deleted), m)
	return nil
}

// RecordAdjustment sets the wallet balance to target by recording an
// uncategorized income or expense for the difference. A zero difference
// records nothing and returns a nil transaction.
func (s *TransactionService) RecordAdjustment(ctx context.Context, userID uuid.UUID, walletID int32, target decimal.Decimal, note *string) (*domain.Transaction, *domain.Wallet, error) {
	var (
		created *domain.Transaction
		wallet  *domain.Wallet
		m       mutation
	)

	if !domain.WithinAmountRange(target.Round(2)) {
		return nil, nil, domain.ErrAmountTooLarge
	}
	adjustmentNote, err := normalizeNote(note)
	if err != nil {
		return nil, nil, err
	}
	if adjustmentNote == nil {
		defaultNote := AdjustmentNote
		adjustmentNote = &defaultNote
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		wallet, err = s.walletRepo.GetForUpdate(ctx, userID, walletID)
		if err != nil {
			return err
		}

		diff := target.Round(2).Sub(wallet.Balance)
		if diff.IsZero() {
			return nil
		}
		if !domain.WithinAmountRange(diff) {
			return domain.ErrAmountTooLarge
		}

		t := &domain.Transaction{
			UserID:   userID,
			WalletID: wallet.ID,
			Type:     domain.TransactionTypeIncome,
			Amount:   diff.Abs(),
			Note:     adjustmentNote,
			Date:     util.Day(s.now().UTC()),
		}
		if diff.IsNegative() {
			t.Type = domain.TransactionTypeExpense
		}

		created, err = s.transactionRepo.Create(ctx, t)
		if err != nil {
			return err
		}

		m.wallets, err = s.applyDeltas(ctx, userID, created.BalanceDeltas())
		if err != nil {
			return err
		}
		wallet = m.wallets[0]
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if created == nil {
		return nil, wallet, nil
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("wallet_id", walletID).
		Str("type", string(created.Type)).
		Str("amount", created.Amount.StringFixed(2)).
		Msg("Wallet balance adjusted")

	s.afterCommit(ctx, userID, websocket.TransactionCreated(created), m)
	return created, wallet, nil
}
