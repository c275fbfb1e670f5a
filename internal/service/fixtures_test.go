package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/testutil"
)

// fixedNow is the clock of service tests: Wednesday 2026-10-14, noon UTC
var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// env wires every service to shared in-memory repositories
type env struct {
	ctx    context.Context
	userID uuid.UUID

	txManager     *testutil.MockTxManager
	users         *testutil.MockUserRepository
	resets        *testutil.MockPasswordResetRepository
	wallets       *testutil.MockWalletRepository
	categories    *testutil.MockCategoryRepository
	transactions  *testutil.MockTransactionRepository
	budgets       *testutil.MockBudgetRepository
	notifications *testutil.MockNotificationRepository
	reports       *testutil.MockReportRepository
	mail          *testutil.MockMailQueue
	events        *testutil.MockEventPublisher

	notificationService *NotificationService
	budgetService       *BudgetService
	transactionService  *TransactionService
	walletService       *WalletService
	categoryService     *CategoryService
	reportService       *ReportService

	food   *domain.Category
	salary *domain.Category
	loan   *domain.Category
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		ctx:           context.Background(),
		userID:        uuid.New(),
		txManager:     testutil.NewMockTxManager(),
		users:         testutil.NewMockUserRepository(),
		resets:        testutil.NewMockPasswordResetRepository(),
		wallets:       testutil.NewMockWalletRepository(),
		categories:    testutil.NewMockCategoryRepository(),
		transactions:  testutil.NewMockTransactionRepository(),
		notifications: testutil.NewMockNotificationRepository(),
		mail:          testutil.NewMockMailQueue(),
		events:        testutil.NewMockEventPublisher(),
	}
	e.budgets = testutil.NewMockBudgetRepository(e.transactions)
	e.categories.Transactions = e.transactions
	e.categories.Budgets = e.budgets
	e.reports = testutil.NewMockReportRepository(e.transactions, e.wallets, e.categories)

	e.users.AddUser(&domain.User{ID: e.userID, Email: "ana@example.com", Name: "Ana", Currency: "EUR"})

	e.food = e.categories.AddCategory(&domain.Category{Name: "Food", Type: domain.CategoryTypeExpense, Color: "#FF0000"})
	e.salary = e.categories.AddCategory(&domain.Category{Name: "Salary", Type: domain.CategoryTypeIncome, Color: "#00FF00"})
	e.loan = e.categories.AddCategory(&domain.Category{Name: "Loan", Type: domain.CategoryTypeDebtLoan, Color: "#0000FF"})

	e.notificationService = NewNotificationService(e.notifications)
	e.notificationService.SetEventPublisher(e.events)

	e.budgetService = NewBudgetService(e.budgets, e.categories, e.wallets, e.transactions, e.users, e.notificationService, e.mail)
	e.budgetService.now = clock
	e.budgetService.SetEventPublisher(e.events)

	e.transactionService = NewTransactionService(e.txManager, e.transactions, e.wallets, e.categories, e.budgets, e.budgetService)
	e.transactionService.now = clock
	e.transactionService.SetEventPublisher(e.events)

	e.walletService = NewWalletService(e.txManager, e.wallets, e.transactions, e.budgets, e.users, e.transactionService, e.budgetService)
	e.walletService.SetEventPublisher(e.events)

	e.categoryService = NewCategoryService(e.categories)

	e.reportService = NewReportService(e.reports, e.users)
	e.reportService.now = clock

	return e
}

func (e *env) wallet(name, currency, balance string) *domain.Wallet {
	return e.wallets.AddWallet(&domain.Wallet{
		UserID:   e.userID,
		Name:     name,
		Currency: currency,
		Balance:  dec(balance),
	})
}

func (e *env) expense(t *testing.T, walletID int32, amount string, date time.Time) *domain.Transaction {
	t.Helper()
	tx, err := e.transactionService.CreateTransaction(e.ctx, e.userID, TransactionInput{
		WalletID:   walletID,
		CategoryID: &e.food.ID,
		Type:       domain.TransactionTypeExpense,
		Amount:     dec(amount),
		Date:       &date,
	})
	if err != nil {
		t.Fatalf("Expected no error creating expense, got %v", err)
	}
	return tx
}

func (e *env) income(t *testing.T, walletID int32, amount string, date time.Time) *domain.Transaction {
	t.Helper()
	tx, err := e.transactionService.CreateTransaction(e.ctx, e.userID, TransactionInput{
		WalletID:   walletID,
		CategoryID: &e.salary.ID,
		Type:       domain.TransactionTypeIncome,
		Amount:     dec(amount),
		Date:       &date,
	})
	if err != nil {
		t.Fatalf("Expected no error creating income, got %v", err)
	}
	return tx
}

func (e *env) balance(t *testing.T, walletID int32) decimal.Decimal {
	t.Helper()
	w, ok := e.wallets.Wallets[walletID]
	if !ok {
		t.Fatalf("wallet %d not found", walletID)
	}
	return w.Balance
}

func (e *env) foodBudget(t *testing.T, amount string, walletID *int32) *BudgetView {
	t.Helper()
	b, err := e.budgetService.CreateBudget(e.ctx, e.userID, BudgetInput{
		Name:        "Groceries",
		Amount:      dec(amount),
		CategoryIDs: []int32{e.food.ID},
		WalletID:    walletID,
		StartDate:   day(2026, 10, 1),
		EndDate:     day(2026, 10, 31),
	})
	if err != nil {
		t.Fatalf("Expected no error creating budget, got %v", err)
	}
	return b
}

// assertBalanceInvariant checks balance == initial + effect of the live transactions
func assertBalanceInvariant(t *testing.T, e *env, walletID int32, initial string) {
	t.Helper()
	want := dec(initial)
	for _, tx := range e.transactions.Live(e.userID) {
		for _, d := range tx.BalanceDeltas() {
			if d.WalletID == walletID {
				want = want.Add(d.Amount)
			}
		}
	}
	if got := e.balance(t, walletID); !got.Equal(want) {
		t.Errorf("Expected wallet %d balance %s from history, got %s", walletID, want, got)
	}
}
