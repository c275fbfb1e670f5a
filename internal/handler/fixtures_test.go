package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/auth"
	"github.com/spendly/spendly-backend/internal/config"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/middleware"
	"github.com/spendly/spendly-backend/internal/service"
	"github.com/spendly/spendly-backend/internal/testutil"
	"github.com/spendly/spendly-backend/internal/websocket"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

var testJWT = config.JWTConfig{
	Secret:   "test-secret-that-is-at-least-32-bytes!",
	Issuer:   "spendly",
	Audience: "spendly-mobile",
	TTL:      time.Hour,
}

// api serves the full route table over in-memory repositories
type api struct {
	t      *testing.T
	echo   *echo.Echo
	userID uuid.UUID
	token  string

	users         *testutil.MockUserRepository
	wallets       *testutil.MockWalletRepository
	categories    *testutil.MockCategoryRepository
	transactions  *testutil.MockTransactionRepository
	budgets       *testutil.MockBudgetRepository
	notifications *testutil.MockNotificationRepository
	store         *testutil.MockObjectStore
	mail          *testutil.MockMailQueue

	notificationService *service.NotificationService

	food   *domain.Category
	salary *domain.Category
	misc   *domain.Category
}

func newAPI(t *testing.T) *api {
	t.Helper()

	a := &api{
		t:             t,
		users:         testutil.NewMockUserRepository(),
		wallets:       testutil.NewMockWalletRepository(),
		categories:    testutil.NewMockCategoryRepository(),
		transactions:  testutil.NewMockTransactionRepository(),
		notifications: testutil.NewMockNotificationRepository(),
		store:         testutil.NewMockObjectStore(),
		mail:          testutil.NewMockMailQueue(),
	}
	a.budgets = testutil.NewMockBudgetRepository(a.transactions)
	reports := testutil.NewMockReportRepository(a.transactions, a.wallets, a.categories)
	resets := testutil.NewMockPasswordResetRepository()
	txManager := testutil.NewMockTxManager()

	a.userID = uuid.New()
	a.users.AddUser(&domain.User{ID: a.userID, Email: "ana@example.com", Name: "Ana", Currency: "EUR", CreatedAt: time.Now()})

	a.food = a.categories.AddCategory(&domain.Category{Name: "Food", Type: domain.CategoryTypeExpense, Color: "#FF0000"})
	a.salary = a.categories.AddCategory(&domain.Category{Name: "Salary", Type: domain.CategoryTypeIncome, Color: "#00FF00"})
	owner := a.userID
	a.misc = a.categories.AddCategory(&domain.Category{UserID: &owner, Name: "Hobbies", Type: domain.CategoryTypeExpense, Color: "#123456"})

	issuer := auth.NewTokenIssuer(testJWT)
	verifier, err := auth.NewVerifier(testJWT)
	if err != nil {
		t.Fatalf("Failed to create verifier: %v", err)
	}
	a.token, _, err = issuer.Issue(a.userID, "ana@example.com")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	hub := websocket.NewHub()

	a.notificationService = service.NewNotificationService(a.notifications)
	a.notificationService.SetEventPublisher(hub)
	budgetService := service.NewBudgetService(a.budgets, a.categories, a.wallets, a.transactions, a.users, a.notificationService, a.mail)
	budgetService.SetEventPublisher(hub)
	transactionService := service.NewTransactionService(txManager, a.transactions, a.wallets, a.categories, a.budgets, budgetService)
	transactionService.SetEventPublisher(hub)
	walletService := service.NewWalletService(txManager, a.wallets, a.transactions, a.budgets, a.users, transactionService, budgetService)
	walletService.SetEventPublisher(hub)

	a.echo = echo.New()
	RegisterRoutes(a.echo, middleware.NewAuthMiddleware(verifier), middleware.NewRateLimiterWithConfig(600, 100), Handlers{
		Auth:         NewAuthHandler(service.NewAuthService(a.users, resets, issuer, a.mail, 15*time.Minute)),
		Profile:      NewProfileHandler(service.NewProfileService(a.users, a.store)),
		Wallet:       NewWalletHandler(walletService),
		Category:     NewCategoryHandler(service.NewCategoryService(a.categories)),
		Transaction:  NewTransactionHandler(transactionService),
		Budget:       NewBudgetHandler(budgetService),
		Notification: NewNotificationHandler(a.notificationService),
		Report:       NewReportHandler(service.NewReportService(reports, a.users)),
		WebSocket:    NewWebSocketHandler(hub, websocket.NewJWTValidator(verifier), []string{"http://localhost:8081"}),
	})

	return a
}

// do sends an authenticated JSON request through the router
func (a *api) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.send(method, path, body, a.token)
}

// send issues a request with an optional bearer token
func (a *api) send(method, path, body, token string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func (a *api) wallet(name, currency, balance string) *domain.Wallet {
	return a.wallets.AddWallet(&domain.Wallet{
		UserID:    a.userID,
		Name:      name,
		Currency:  currency,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to unmarshal response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// expectFieldError checks a 400 problem naming the field
func expectFieldError(t *testing.T, rec *httptest.ResponseRecorder, field string) {
	t.Helper()
	expectStatus(t, rec, http.StatusBadRequest)
	problem := decode[ProblemDetails](t, rec)
	for _, e := range problem.Errors {
		if e.Field == field {
			return
		}
	}
	t.Errorf("Expected a validation error on %q, got %+v", field, problem.Errors)
}

func today() string {
	return time.Now().UTC().Format(dateLayout)
}
