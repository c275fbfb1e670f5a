package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/mail"
	"github.com/spendly/spendly-backend/internal/util"
	"github.com/spendly/spendly-backend/internal/websocket"
)

// BudgetService handles budget CRUD and spending alerts
type BudgetService struct {
	budgetRepo      domain.BudgetRepository
	categoryRepo    domain.CategoryRepository
	walletRepo      domain.WalletRepository
	transactionRepo domain.TransactionRepository
	userRepo        domain.UserRepository
	notifications   *NotificationService
	mailQueue       mail.Queue
	eventPublisher  websocket.EventPublisher
	now             func() time.Time
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	budgetRepo domain.BudgetRepository,
	categoryRepo domain.CategoryRepository,
	walletRepo domain.WalletRepository,
	transactionRepo domain.TransactionRepository,
	userRepo domain.UserRepository,
	notifications *NotificationService,
	mailQueue mail.Queue,
) *BudgetService {
	return &BudgetService{
		budgetRepo:      budgetRepo,
		categoryRepo:    categoryRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		notifications:   notifications,
		mailQueue:       mailQueue,
		now:             time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BudgetService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *BudgetService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// BudgetView is a budget together with its progress as of today
type BudgetView struct {
	*domain.Budget
	Progress domain.BudgetProgress `json:"progress"`
}

func (s *BudgetService) view(b *domain.Budget) *BudgetView {
	return &BudgetView{Budget: b, Progress: b.Progress(util.Day(s.now().UTC()))}
}

// BudgetInput holds the fields of a budget on create and update
type BudgetInput struct {
	Name           string
	Amount         decimal.Decimal
	CategoryIDs    []int32
	WalletID       *int32
	StartDate      time.Time
	EndDate        time.Time
	AlertThreshold *int32
}

// validate normalizes input into a budget owned by userID
func (s *BudgetService) validate(ctx context.Context, userID uuid.UUID, input BudgetInput) (*domain.Budget, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxBudgetNameLength {
		return nil, domain.ErrNameTooLong
	}

	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !domain.WithinAmountRange(amount) {
		return nil, domain.ErrAmountTooLarge
	}

	categoryIDs := uniqueIDs(input.CategoryIDs)
	if len(categoryIDs) == 0 {
		return nil, domain.ErrBudgetCategoriesMiss
	}
	for _, id := range categoryIDs {
		category, err := s.categoryRepo.GetByID(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if !category.AcceptsTransaction(domain.TransactionTypeExpense) {
			return nil, domain.ErrCategoryTypeMismatch
		}
	}

	if input.WalletID != nil {
		if _, err := s.walletRepo.GetByID(ctx, userID, *input.WalletID); err != nil {
			return nil, err
		}
	}

	start := util.Day(input.StartDate)
	end := util.Day(input.EndDate)
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}

	threshold := int32(domain.DefaultAlertThreshold)
	if input.AlertThreshold != nil {
		threshold = *input.AlertThreshold
	}
	if threshold < 1 || threshold > 100 {
		return nil, domain.ErrInvalidThreshold
	}

	return &domain.Budget{
		UserID:         userID,
		Name:           name,
		Amount:         amount,
		CategoryIDs:    categoryIDs,
		WalletID:       input.WalletID,
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: threshold,
	}, nil
}

// CreateBudget creates a budget and computes its current spending
func (s *BudgetService) CreateBudget(ctx context.Context, userID uuid.UUID, input BudgetInput) (*BudgetView, error) {
	budget, err := s.validate(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	created, err := s.budgetRepo.Create(ctx, budget)
	if err != nil {
		return nil, err
	}

	s.EvaluateAlerts(ctx, userID, []*domain.Budget{created})
	s.publishEvent(userID, websocket.BudgetUpdated(s.view(created)))
	return s.view(created), nil
}

// GetBudget returns one budget with progress
func (s *BudgetService) GetBudget(ctx context.Context, userID uuid.UUID, id int32) (*BudgetView, error) {
	budget, err := s.budgetRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.view(budget), nil
}

// ListBudgets returns the user's budgets, only those running today when activeOnly is set
func (s *BudgetService) ListBudgets(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*BudgetView, error) {
	var activeOn *time.Time
	if activeOnly {
		today := util.Day(s.now().UTC())
		activeOn = &today
	}

	budgets, err := s.budgetRepo.GetAllByUser(ctx, userID, activeOn)
	if err != nil {
		return nil, err
	}

	views := make([]*BudgetView, len(budgets))
	for i, b := range budgets {
		views[i] = s.view(b)
	}
	return views, nil
}

// UpdateBudget replaces the budget fields and recomputes its spending
func (s *BudgetService) UpdateBudget(ctx context.Context, userID uuid.UUID, id int32, input BudgetInput) (*BudgetView, error) {
	if _, err := s.budgetRepo.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}

	budget, err := s.validate(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	budget.ID = id

	updated, err := s.budgetRepo.Update(ctx, budget)
	if err != nil {
		return nil, err
	}

	s.EvaluateAlerts(ctx, userID, []*domain.Budget{updated})
	s.publishEvent(userID, websocket.BudgetUpdated(s.view(updated)))
	return s.view(updated), nil
}

// DeleteBudget removes a budget
func (s *BudgetService) DeleteBudget(ctx context.Context, userID uuid.UUID, id int32) error {
	return s.budgetRepo.Delete(ctx, userID, id)
}

// GetBudgetTransactions lists the transactions that count towards the budget
func (s *BudgetService) GetBudgetTransactions(ctx context.Context, userID uuid.UUID, id int32, page, pageSize int32) (*domain.PaginatedTransactions, error) {
	budget, err := s.budgetRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.transactionRepo.GetByBudget(ctx, budget, domain.NormalizePage(page, pageSize))
}

// EvaluateAlerts stores the alert level implied by each budget's spending.
// A rise to warning or exceeded creates a notification, and exceeded also sends an email.
// Only the write that moves the stored level raises the alert.
// Failures are logged so that a committed write is never reported as failed.
func (s *BudgetService) EvaluateAlerts(ctx context.Context, userID uuid.UUID, budgets []*domain.Budget) {
	for _, b := range budgets {
		previous := b.AlertLevel
		level := b.ComputeAlertLevel()
		if level == previous {
			continue
		}

		changed, err := s.budgetRepo.SetAlertLevel(ctx, userID, b.ID, previous, level)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Int32("budget_id", b.ID).Msg("Failed to store budget alert level")
			continue
		}
		if !changed {
			// A concurrent write already moved the level and owns its alert
			continue
		}
		b.AlertLevel = level

		if !level.IsHigherThan(previous) {
			continue
		}

		log.Info().
			Str("user_id", userID.String()).
			Int32("budget_id", b.ID).
			Str("level", string(level)).
			Msg("Budget alert raised")

		s.notifyAlert(ctx, userID, b, level)
		if level == domain.AlertLevelExceeded {
			s.sendExceededEmail(ctx, userID, b)
		}
	}
}

func (s *BudgetService) notifyAlert(ctx context.Context, userID uuid.UUID, b *domain.Budget, level domain.AlertLevel) {
	if s.notifications == nil {
		return
	}

	input := NotifyInput{BudgetID: &b.ID}
	spent := b.CurrentAmount.StringFixed(2)
	limit := b.Amount.StringFixed(2)
	if level == domain.AlertLevelExceeded {
		input.Type = domain.NotificationBudgetExceeded
		input.Title = "Budget exceeded"
		input.Message = fmt.Sprintf("You have spent %s of %s in %q.", spent, limit, b.Name)
	} else {
		input.Type = domain.NotificationBudgetWarning
		input.Title = "Budget almost reached"
		input.Message = fmt.Sprintf("You have used %d%% of %q (%s of %s).", b.AlertThreshold, b.Name, spent, limit)
	}

	// Notify logs its own failures
	_, _ = s.notifications.Notify(ctx, userID, input)
}

func (s *BudgetService) sendExceededEmail(ctx context.Context, userID uuid.UUID, b *domain.Budget) {
	if s.mailQueue == nil || s.userRepo == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to load user for budget email")
		return
	}

	msg := mail.BudgetExceededMessage(user.Email, user.Name, b.Name, b.CurrentAmount, b.Amount)
	if err := s.mailQueue.Enqueue(ctx, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Int32("budget_id", b.ID).Msg("Failed to enqueue budget email")
		return
	}
	log.Info().Str("user_id", userID.String()).Int32("budget_id", b.ID).Msg("Budget exceeded email enqueued")
}

// uniqueIDs drops duplicates and sorts ids
func uniqueIDs(ids []int32) []int32 {
	seen := make(map[int32]struct{}, len(ids))
	result := make([]int32, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
