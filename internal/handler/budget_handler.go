package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/middleware"
	"github.com/spendly/spendly-backend/internal/service"
)

// BudgetHandler handles budget-related HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// BudgetRequest is the body of create and update. Update replaces every field.
type BudgetRequest struct {
	Name           string  `json:"name"`
	Amount         string  `json:"amount"`
	CategoryIDs    []int32 `json:"categoryIds"`
	WalletID       *int32  `json:"walletId,omitempty"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	AlertThreshold *int32  `json:"alertThreshold,omitempty"`
}

// BudgetProgressResponse is the derived progress of a budget as of today
type BudgetProgressResponse struct {
	Remaining      string `json:"remaining"`
	PercentUsed    string `json:"percentUsed"`
	DaysLeft       int    `json:"daysLeft"`
	DailyAllowance string `json:"dailyAllowance"`
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID             int32                  `json:"id"`
	Name           string                 `json:"name"`
	Amount         string                 `json:"amount"`
	CurrentAmount  string                 `json:"currentAmount"`
	CategoryIDs    []int32                `json:"categoryIds"`
	WalletID       *int32                 `json:"walletId"`
	StartDate      string                 `json:"startDate"`
	EndDate        string                 `json:"endDate"`
	AlertThreshold int32                  `json:"alertThreshold"`
	AlertLevel     string                 `json:"alertLevel"`
	Progress       BudgetProgressResponse `json:"progress"`
	CreatedAt      string                 `json:"createdAt"`
	UpdatedAt      string                 `json:"updatedAt"`
}

// CreateBudget godoc
// @Summary Create a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetRequest true "Budget creation request"
// @Success 201 {object} BudgetResponse
// @Failure 400 {object} ProblemDetails
// @Router /budgets [post]
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	input, invalid := bindBudgetInput(c)
	if invalid != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*invalid})
	}

	budget, err := h.budgetService.CreateBudget(c.Request().Context(), userID, *input)
	if err != nil {
		if p := budgetError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create budget")
		return NewInternalError(c, "Failed to create budget")
	}

	log.Info().Str("user_id", userID.String()).Int32("budget_id", budget.ID).Msg("Budget created")
	return c.JSON(http.StatusCreated, toBudgetResponse(budget))
}

// GetBudgets godoc
// @Summary List budgets
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only budgets whose range contains today"
// @Success 200 {array} BudgetResponse
// @Router /budgets [get]
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)

	activeOnly := c.QueryParam("active") == "true"

	budgets, err := h.budgetService.ListBudgets(c.Request().Context(), userID, activeOnly)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list budgets")
		return NewInternalError(c, "Failed to list budgets")
	}

	response := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		response[i] = toBudgetResponse(b)
	}
	return c.JSON(http.StatusOK, response)
}

// GetBudget godoc
// @Summary Get a budget
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Success 200 {object} BudgetResponse
// @Failure 404 {object} ProblemDetails
// @Router /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.GetBudget(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("budget_id", id).Msg("Failed to get budget")
		return NewInternalError(c, "Failed to get budget")
	}

	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// UpdateBudget godoc
// @Summary Replace a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Param request body BudgetRequest true "Budget"
// @Success 200 {object} BudgetResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	input, invalid := bindBudgetInput(c)
	if invalid != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*invalid})
	}

	budget, err := h.budgetService.UpdateBudget(c.Request().Context(), userID, id, *input)
	if err != nil {
		if p := budgetError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("budget_id", id).Msg("Failed to update budget")
		return NewInternalError(c, "Failed to update budget")
	}

	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// DeleteBudget godoc
// @Summary Delete a budget
// @Tags budgets
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("budget_id", id).Msg("Failed to delete budget")
		return NewInternalError(c, "Failed to delete budget")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetBudgetTransactions godoc
// @Summary List the transactions counted by a budget
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Success 200 {object} PaginatedTransactionsResponse
// @Failure 404 {object} ProblemDetails
// @Router /budgets/{id}/transactions [get]
func (h *BudgetHandler) GetBudgetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	page, pageSize, err := parsePage(c)
	if err != nil {
		return NewValidationError(c, "Invalid page or pageSize (must be positive integers)", nil)
	}

	result, err := h.budgetService.GetBudgetTransactions(c.Request().Context(), userID, id, page, pageSize)
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("budget_id", id).Msg("Failed to get budget transactions")
		return NewInternalError(c, "Failed to get budget transactions")
	}

	return c.JSON(http.StatusOK, toPaginatedTransactionsResponse(result))
}

// bindBudgetInput parses the body and reports the first malformed field
func bindBudgetInput(c echo.Context) (*service.BudgetInput, *ValidationError) {
	var req BudgetRequest
	if err := c.Bind(&req); err != nil {
		return nil, &ValidationError{Field: "body", Message: "Invalid request body"}
	}

	amount, err := parseDecimal(req.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Message: "Must be a valid decimal number"}
	}
	start, err := parseDate(req.StartDate)
	if err != nil || start == nil {
		return nil, &ValidationError{Field: "startDate", Message: "Must be in YYYY-MM-DD format"}
	}
	end, err := parseDate(req.EndDate)
	if err != nil || end == nil {
		return nil, &ValidationError{Field: "endDate", Message: "Must be in YYYY-MM-DD format"}
	}

	return &service.BudgetInput{
		Name:           req.Name,
		Amount:         amount,
		CategoryIDs:    req.CategoryIDs,
		WalletID:       req.WalletID,
		StartDate:      *start,
		EndDate:        *end,
		AlertThreshold: req.AlertThreshold,
	}, nil
}

// budgetError maps budget domain errors. Unexpected errors yield nil.
func budgetError(err error) *ProblemDetails {
	switch {
	case errors.Is(err, domain.ErrBudgetNotFound):
		return notFoundProblem("Budget not found")
	case errors.Is(err, domain.ErrNameRequired):
		return fieldProblem("name", "Name is required")
	case errors.Is(err, domain.ErrNameTooLong):
		return fieldProblem("name", "Name must be 100 characters or less")
	case errors.Is(err, domain.ErrInvalidAmount):
		return fieldProblem("amount", "Amount must be greater than zero")
	case errors.Is(err, domain.ErrAmountTooLarge):
		return fieldProblem("amount", "Amount must be less than 1000000000000")
	case errors.Is(err, domain.ErrBudgetCategoriesMiss):
		return fieldProblem("categoryIds", "At least one category is required")
	case errors.Is(err, domain.ErrCategoryNotFound):
		return fieldProblem("categoryIds", "Category not found")
	case errors.Is(err, domain.ErrCategoryTypeMismatch):
		return fieldProblem("categoryIds", "Budgets track expense or debt/loan categories only")
	case errors.Is(err, domain.ErrWalletNotFound):
		return fieldProblem("walletId", "Wallet not found")
	case errors.Is(err, domain.ErrInvalidDateRange):
		return fieldProblem("endDate", "End date must not be before start date")
	case errors.Is(err, domain.ErrInvalidThreshold):
		return fieldProblem("alertThreshold", "Alert threshold must be between 1 and 100")
	}
	return nil
}

func toBudgetResponse(b *service.BudgetView) BudgetResponse {
	return BudgetResponse{
		ID:             b.ID,
		Name:           b.Name,
		Amount:         b.Amount.StringFixed(2),
		CurrentAmount:  b.CurrentAmount.StringFixed(2),
		CategoryIDs:    b.CategoryIDs,
		WalletID:       b.WalletID,
		StartDate:      b.StartDate.Format(dateLayout),
		EndDate:        b.EndDate.Format(dateLayout),
		AlertThreshold: b.AlertThreshold,
		AlertLevel:     string(b.AlertLevel),
		Progress: BudgetProgressResponse{
			Remaining:      b.Progress.Remaining.StringFixed(2),
			PercentUsed:    b.Progress.PercentUsed.StringFixed(2),
			DaysLeft:       b.Progress.DaysLeft,
			DailyAllowance: b.Progress.DailyAllowance.StringFixed(2),
		},
		CreatedAt: formatTimestamp(b.CreatedAt),
		UpdatedAt: formatTimestamp(b.UpdatedAt),
	}
}
