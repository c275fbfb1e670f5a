package testutil

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
)

// MockTxManager runs fn directly. Err, when set, is returned instead of calling fn.
type MockTxManager struct {
	Calls int
	Err   error
}

// NewMockTxManager creates a new MockTxManager
func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx calls fn with ctx unchanged
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	ByID     map[uuid.UUID]*domain.User
	ByEmail  map[string]*domain.User
	CreateFn func(user *domain.User) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		ByID:    make(map[uuid.UUID]*domain.User),
		ByEmail: make(map[string]*domain.User),
	}
}

// AddUser seeds a user
func (m *MockUserRepository) AddUser(user *domain.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.ByID[user.ID] = user
	m.ByEmail[user.Email] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(user)
	}
	if _, exists := m.ByEmail[user.Email]; exists {
		return nil, domain.ErrEmailTaken
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.AddUser(user)
	return user, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := m.ByEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, currency string) (*domain.User, error) {
	user, ok := m.ByID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = name
	user.Currency = currency
	user.UpdatedAt = time.Now()
	return user, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	user, ok := m.ByID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *MockUserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarPath *string) (*domain.User, error) {
	user, ok := m.ByID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.AvatarPath = avatarPath
	return user, nil
}

// MockPasswordResetRepository is a mock implementation of domain.PasswordResetRepository.
// It is safe for concurrent use.
type MockPasswordResetRepository struct {
	mu     sync.Mutex
	Resets map[uuid.UUID]*domain.PasswordReset
	order  []uuid.UUID
}

// NewMockPasswordResetRepository creates a new MockPasswordResetRepository
func NewMockPasswordResetRepository() *MockPasswordResetRepository {
	return &MockPasswordResetRepository{Resets: make(map[uuid.UUID]*domain.PasswordReset)}
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) (*domain.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reset.ID = uuid.New()
	reset.CreatedAt = time.Now()
	m.Resets[reset.ID] = reset
	m.order = append(m.order, reset.ID)
	cp := *reset
	return &cp, nil
}

func (m *MockPasswordResetRepository) GetLatest(ctx context.Context, userID uuid.UUID) (*domain.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		r := m.Resets[m.order[i]]
		if r.UserID == userID && r.UsedAt == nil {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrInvalidResetCode
}

// ClaimAttempt leaves expiry to the caller's clock
func (m *MockPasswordResetRepository) ClaimAttempt(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Resets[id]
	if !ok || r.UsedAt != nil || r.Attempts >= maxAttempts {
		return domain.ErrInvalidResetCode
	}
	r.Attempts++
	return nil
}

func (m *MockPasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Resets[id]
	if !ok || r.UsedAt != nil {
		return domain.ErrInvalidResetCode
	}
	now := time.Now()
	r.UsedAt = &now
	return nil
}

func (m *MockPasswordResetRepository) InvalidateAll(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, r := range m.Resets {
		if r.UserID == userID && r.UsedAt == nil {
			r.UsedAt = &now
		}
	}
	return nil
}

// Attempts returns the attempt count recorded for a reset code
func (m *MockPasswordResetRepository) Attempts(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Resets[id]; ok {
		return r.Attempts
	}
	return 0
}

// MockWalletRepository is a mock implementation of domain.WalletRepository
type MockWalletRepository struct {
	Wallets        map[int32]*domain.Wallet
	nextID         int32
	AddToBalanceFn func(id int32, delta decimal.Decimal) (*domain.Wallet, error)
	// Locked records the ids passed to GetForUpdate in call order
	Locked []int32
}

// NewMockWalletRepository creates a new MockWalletRepository
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		Wallets: make(map[int32]*domain.Wallet),
		nextID:  1,
	}
}

// AddWallet seeds a wallet and returns it
func (m *MockWalletRepository) AddWallet(wallet *domain.Wallet) *domain.Wallet {
	if wallet.ID == 0 {
		wallet.ID = m.nextID
	}
	if wallet.ID >= m.nextID {
		m.nextID = wallet.ID + 1
	}
	m.Wallets[wallet.ID] = wallet
	return wallet
}

func (m *MockWalletRepository) live(userID uuid.UUID, id int32) (*domain.Wallet, error) {
	w, ok := m.Wallets[id]
	if !ok || w.UserID != userID || w.DeletedAt != nil {
		return nil, domain.ErrWalletNotFound
	}
	return w, nil
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) (*domain.Wallet, error) {
	wallet.ID = 0
	wallet.CreatedAt = time.Now()
	wallet.UpdatedAt = wallet.CreatedAt
	return m.AddWallet(wallet), nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Wallet, error) {
	return m.live(userID, id)
}

func (m *MockWalletRepository) GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*domain.Wallet, error) {
	m.Locked = append(m.Locked, id)
	return m.live(userID, id)
}

func (m *MockWalletRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Wallet, error) {
	result := make([]*domain.Wallet, 0)
	for _, w := range m.Wallets {
		if w.UserID == userID && w.DeletedAt == nil {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockWalletRepository) Update(ctx context.Context, userID uuid.UUID, id int32, data *domain.UpdateWalletData) (*domain.Wallet, error) {
	w, err := m.live(userID, id)
	if err != nil {
		return nil, err
	}
	w.Name = data.Name
	w.Currency = data.Currency
	w.Icon = data.Icon
	w.ExcludeFromTotal = data.ExcludeFromTotal
	w.UpdatedAt = time.Now()
	return w, nil
}

func (m *MockWalletRepository) AddToBalance(ctx context.Context, userID uuid.UUID, id int32, delta decimal.Decimal) (*domain.Wallet, error) {
	if m.AddToBalanceFn != nil {
		return m.AddToBalanceFn(id, delta)
	}
	w, err := m.live(userID, id)
	if err != nil {
		return nil, err
	}
	w.Balance = w.Balance.Add(delta)
	return w, nil
}

func (m *MockWalletRepository) SoftDelete(ctx context.Context, userID uuid.UUID, id int32) error {
	w, err := m.live(userID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	w.DeletedAt = &now
	return nil
}

func (m *MockWalletRepository) GetTotalsByCurrency(ctx context.Context, userID uuid.UUID) ([]*domain.CurrencyTotal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, w := range m.Wallets {
		if w.UserID == userID && w.DeletedAt == nil && !w.ExcludeFromTotal {
			totals[w.Currency] = totals[w.Currency].Add(w.Balance)
		}
	}
	result := make([]*domain.CurrencyTotal, 0, len(totals))
	for currency, total := range totals {
		result = append(result, &domain.CurrencyTotal{Currency: currency, Total: total})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Currency < result[j].Currency })
	return result, nil
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[int32]*domain.Category
	// InUse forces IsInUse to true for a category id
	InUse map[int32]bool
	// Transactions and Budgets, when set, are checked for references
	Transactions *MockTransactionRepository
	Budgets      *MockBudgetRepository
	nextID       int32
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		InUse:      make(map[int32]bool),
		nextID:     1,
	}
}

// AddCategory seeds a category and returns it
func (m *MockCategoryRepository) AddCategory(category *domain.Category) *domain.Category {
	if category.ID == 0 {
		category.ID = m.nextID
	}
	if category.ID >= m.nextID {
		m.nextID = category.ID + 1
	}
	m.Categories[category.ID] = category
	return category
}

func visibleTo(c *domain.Category, userID uuid.UUID) bool {
	return c.UserID == nil || *c.UserID == userID
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	for _, c := range m.Categories {
		if c.UserID != nil && category.UserID != nil && *c.UserID == *category.UserID &&
			c.Type == category.Type && strings.EqualFold(c.Name, category.Name) {
			return nil, domain.ErrCategoryExists
		}
	}
	category.ID = 0
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	return m.AddCategory(category), nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Category, error) {
	c, ok := m.Categories[id]
	if !ok || !visibleTo(c, userID) {
		return nil, domain.ErrCategoryNotFound
	}
	return c, nil
}

func (m *MockCategoryRepository) GetByName(ctx context.Context, userID uuid.UUID, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	for _, c := range m.Categories {
		if c.UserID != nil && *c.UserID == userID && c.Type == categoryType && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) GetAllForUser(ctx context.Context, userID uuid.UUID, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	result := make([]*domain.Category, 0)
	for _, c := range m.Categories {
		if !visibleTo(c, userID) {
			continue
		}
		if categoryType != nil && c.Type != *categoryType {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsSystem() != result[j].IsSystem() {
			return result[i].IsSystem()
		}
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, userID uuid.UUID, id int32, name, icon, color string) (*domain.Category, error) {
	c, ok := m.Categories[id]
	if !ok || c.UserID == nil || *c.UserID != userID {
		return nil, domain.ErrCategoryNotFound
	}
	c.Name = name
	c.Icon = icon
	c.Color = color
	c.UpdatedAt = time.Now()
	return c, nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	c, ok := m.Categories[id]
	if !ok || c.UserID == nil || *c.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	if m.Transactions != nil {
		for _, t := range m.Transactions.Transactions {
			if t.UserID == userID && t.DeletedAt != nil && t.CategoryID != nil && *t.CategoryID == id {
				t.CategoryID = nil
			}
		}
	}
	delete(m.Categories, id)
	return nil
}

func (m *MockCategoryRepository) IsInUse(ctx context.Context, userID uuid.UUID, id int32) (bool, error) {
	if m.InUse[id] {
		return true, nil
	}
	if m.Transactions != nil {
		for _, t := range m.Transactions.Live(userID) {
			if t.CategoryID != nil && *t.CategoryID == id {
				return true, nil
			}
		}
	}
	if m.Budgets != nil {
		for _, b := range m.Budgets.Budgets {
			if b.UserID == userID && slices.Contains(b.CategoryIDs, id) {
				return true, nil
			}
		}
	}
	return false, nil
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	nextID       int32
	CreateFn     func(transaction *domain.Transaction) (*domain.Transaction, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		nextID:       1,
	}
}

// AddTransaction seeds a transaction and returns it
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) *domain.Transaction {
	if transaction.ID == 0 {
		transaction.ID = m.nextID
	}
	if transaction.ID >= m.nextID {
		m.nextID = transaction.ID + 1
	}
	m.Transactions[transaction.ID] = transaction
	return transaction
}

// Live returns the live transactions of a user in id order
func (m *MockTransactionRepository) Live(userID uuid.UUID) []*domain.Transaction {
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions {
		if t.UserID == userID && t.DeletedAt == nil {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	stored := *transaction
	stored.ID = 0
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	return m.AddTransaction(&stored), nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	t, ok := m.Transactions[id]
	if !ok || t.UserID != userID || t.DeletedAt != nil {
		return nil, domain.ErrTransactionNotFound
	}
	return t, nil
}

func (m *MockTransactionRepository) GetForUpdate(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	t, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	copied := *t
	return &copied, nil
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID uuid.UUID, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters == nil {
		filters = &domain.TransactionFilters{}
	}
	matched := make([]*domain.Transaction, 0)
	for _, t := range m.Live(userID) {
		if filters.WalletID != nil && !t.Touches(*filters.WalletID) {
			continue
		}
		if filters.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filters.CategoryID) {
			continue
		}
		if filters.Type != nil && t.Type != *filters.Type {
			continue
		}
		if filters.StartDate != nil && t.Date.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && t.Date.After(*filters.EndDate) {
			continue
		}
		if filters.Search != "" && (t.Note == nil || !strings.Contains(strings.ToLower(*t.Note), strings.ToLower(filters.Search))) {
			continue
		}
		matched = append(matched, t)
	}
	return paginate(matched, domain.NormalizePage(filters.Page, filters.PageSize)), nil
}

func (m *MockTransactionRepository) GetByWallet(ctx context.Context, userID uuid.UUID, walletID int32) ([]*domain.Transaction, error) {
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Live(userID) {
		if t.Touches(walletID) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) GetByBudget(ctx context.Context, budget *domain.Budget, page domain.Page) (*domain.PaginatedTransactions, error) {
	matched := make([]*domain.Transaction, 0)
	for _, t := range m.Live(budget.UserID) {
		if CountsTowards(t, budget) {
			matched = append(matched, t)
		}
	}
	return paginate(matched, page), nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	existing, err := m.GetByID(ctx, transaction.UserID, transaction.ID)
	if err != nil {
		return nil, err
	}
	existing.WalletID = transaction.WalletID
	existing.ToWalletID = transaction.ToWalletID
	existing.CategoryID = transaction.CategoryID
	existing.Type = transaction.Type
	existing.Amount = transaction.Amount
	existing.Note = transaction.Note
	existing.Date = transaction.Date
	existing.UpdatedAt = time.Now()
	return existing, nil
}

func (m *MockTransactionRepository) SoftDelete(ctx context.Context, userID uuid.UUID, id int32) error {
	t, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	t.DeletedAt = &now
	return nil
}

func (m *MockTransactionRepository) CountByWallet(ctx context.Context, userID uuid.UUID, walletID int32) (int64, error) {
	txs, _ := m.GetByWallet(ctx, userID, walletID)
	return int64(len(txs)), nil
}

// CountsTowards mirrors the SQL that sums a budget's spending
func CountsTowards(t *domain.Transaction, b *domain.Budget) bool {
	if t.DeletedAt != nil || t.UserID != b.UserID || t.Type != domain.TransactionTypeExpense || t.CategoryID == nil {
		return false
	}
	if b.WalletID != nil && t.WalletID != *b.WalletID {
		return false
	}
	if !b.IsActiveOn(t.Date) {
		return false
	}
	for _, id := range b.CategoryIDs {
		if id == *t.CategoryID {
			return true
		}
	}
	return false
}

func paginate(all []*domain.Transaction, page domain.Page) *domain.PaginatedTransactions {
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID > all[j].ID
	})
	total := int64(len(all))
	start := int(page.Offset())
	if start > len(all) {
		start = len(all)
	}
	end := start + int(page.PageSize)
	if end > len(all) {
		end = len(all)
	}
	return &domain.PaginatedTransactions{
		Data:       all[start:end],
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: total,
		TotalPages: page.TotalPages(total),
	}
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository.
// Recompute sums the linked MockTransactionRepository the way the SQL does.
type MockBudgetRepository struct {
	Budgets      map[int32]*domain.Budget
	Transactions *MockTransactionRepository
	nextID       int32
}

// NewMockBudgetRepository creates a new MockBudgetRepository reading from txRepo
func NewMockBudgetRepository(txRepo *MockTransactionRepository) *MockBudgetRepository {
	if txRepo == nil {
		txRepo = NewMockTransactionRepository()
	}
	return &MockBudgetRepository{
		Budgets:      make(map[int32]*domain.Budget),
		Transactions: txRepo,
		nextID:       1,
	}
}

// AddBudget seeds a budget and returns it
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget) *domain.Budget {
	if budget.ID == 0 {
		budget.ID = m.nextID
	}
	if budget.ID >= m.nextID {
		m.nextID = budget.ID + 1
	}
	if budget.AlertLevel == "" {
		budget.AlertLevel = domain.AlertLevelNone
	}
	m.Budgets[budget.ID] = budget
	return budget
}

func (m *MockBudgetRepository) recompute(b *domain.Budget) {
	total := decimal.Zero
	for _, t := range m.Transactions.Live(b.UserID) {
		if CountsTowards(t, b) {
			total = total.Add(t.Amount)
		}
	}
	b.CurrentAmount = total
}

func (m *MockBudgetRepository) Create(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	budget.ID = 0
	budget.AlertLevel = domain.AlertLevelNone
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = budget.CreatedAt
	m.AddBudget(budget)
	m.recompute(budget)
	return budget, nil
}

func (m *MockBudgetRepository) GetByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Budget, error) {
	b, ok := m.Budgets[id]
	if !ok || b.UserID != userID {
		return nil, domain.ErrBudgetNotFound
	}
	return b, nil
}

func (m *MockBudgetRepository) GetAllByUser(ctx context.Context, userID uuid.UUID, activeOn *time.Time) ([]*domain.Budget, error) {
	result := make([]*domain.Budget, 0)
	for _, b := range m.Budgets {
		if b.UserID != userID {
			continue
		}
		if activeOn != nil && !b.IsActiveOn(*activeOn) {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.After(result[j].StartDate)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (m *MockBudgetRepository) Update(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	existing, err := m.GetByID(ctx, budget.UserID, budget.ID)
	if err != nil {
		return nil, err
	}
	existing.Name = budget.Name
	existing.Amount = budget.Amount
	existing.CategoryIDs = budget.CategoryIDs
	existing.WalletID = budget.WalletID
	existing.StartDate = budget.StartDate
	existing.EndDate = budget.EndDate
	existing.AlertThreshold = budget.AlertThreshold
	existing.UpdatedAt = time.Now()
	m.recompute(existing)
	return existing, nil
}

func (m *MockBudgetRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	if _, err := m.GetByID(ctx, userID, id); err != nil {
		return err
	}
	delete(m.Budgets, id)
	return nil
}

func (m *MockBudgetRepository) Recompute(ctx context.Context, userID uuid.UUID, key domain.BudgetKey) ([]*domain.Budget, error) {
	probe := &domain.Transaction{
		UserID:     userID,
		WalletID:   key.WalletID,
		CategoryID: &key.CategoryID,
		Type:       domain.TransactionTypeExpense,
		Date:       key.Date,
	}
	result := make([]*domain.Budget, 0)
	for _, b := range m.sorted(userID) {
		if CountsTowards(probe, b) {
			m.recompute(b)
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *MockBudgetRepository) RecomputeByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Budget, error) {
	b, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	m.recompute(b)
	return b, nil
}

func (m *MockBudgetRepository) RecomputeAll(ctx context.Context, userID uuid.UUID) ([]*domain.Budget, error) {
	result := m.sorted(userID)
	for _, b := range result {
		m.recompute(b)
	}
	return result, nil
}

func (m *MockBudgetRepository) SetAlertLevel(ctx context.Context, userID uuid.UUID, id int32, from, to domain.AlertLevel) (bool, error) {
	b, ok := m.Budgets[id]
	if !ok || b.UserID != userID || b.AlertLevel != from {
		return false, nil
	}
	b.AlertLevel = to
	return true, nil
}

func (m *MockBudgetRepository) sorted(userID uuid.UUID) []*domain.Budget {
	result := make([]*domain.Budget, 0)
	for _, b := range m.Budgets {
		if b.UserID == userID {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// MockNotificationRepository is a mock implementation of domain.NotificationRepository
type MockNotificationRepository struct {
	Notifications map[int32]*domain.Notification
	nextID        int32
}

// NewMockNotificationRepository creates a new MockNotificationRepository
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		Notifications: make(map[int32]*domain.Notification),
		nextID:        1,
	}
}

// ForUser returns the user's notifications newest first
func (m *MockNotificationRepository) ForUser(userID uuid.UUID) []*domain.Notification {
	result := make([]*domain.Notification, 0)
	for _, n := range m.Notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	n.ID = m.nextID
	m.nextID++
	n.CreatedAt = time.Now()
	m.Notifications[n.ID] = n
	return n, nil
}

func (m *MockNotificationRepository) GetByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page domain.Page) (*domain.PaginatedNotifications, error) {
	matched := make([]*domain.Notification, 0)
	for _, n := range m.ForUser(userID) {
		if unreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	total := int64(len(matched))
	start := int(page.Offset())
	if start > len(matched) {
		start = len(matched)
	}
	end := start + int(page.PageSize)
	if end > len(matched) {
		end = len(matched)
	}
	return &domain.PaginatedNotifications{
		Data:       matched[start:end],
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: total,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range m.ForUser(userID) {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID uuid.UUID, id int32) (*domain.Notification, error) {
	n, ok := m.Notifications[id]
	if !ok || n.UserID != userID {
		return nil, domain.ErrNotificationNotFound
	}
	n.IsRead = true
	return n, nil
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	var changed int64
	for _, n := range m.ForUser(userID) {
		if !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (m *MockNotificationRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	n, ok := m.Notifications[id]
	if !ok || n.UserID != userID {
		return domain.ErrNotificationNotFound
	}
	delete(m.Notifications, id)
	return nil
}
