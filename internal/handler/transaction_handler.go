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

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest is the body of create and update. Update replaces every field.
type TransactionRequest struct {
	WalletID   int32   `json:"walletId"`
	ToWalletID *int32  `json:"toWalletId,omitempty"`
	CategoryID *int32  `json:"categoryId,omitempty"`
	Type       string  `json:"type"`
	Amount     string  `json:"amount"`
	Note       *string `json:"note,omitempty"`
	Date       *string `json:"date,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID         int32   `json:"id"`
	WalletID   int32   `json:"walletId"`
	ToWalletID *int32  `json:"toWalletId"`
	CategoryID *int32  `json:"categoryId"`
	Type       string  `json:"type"`
	Amount     string  `json:"amount"`
	Note       *string `json:"note"`
	Date       string  `json:"date"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

// PaginatedTransactionsResponse represents paginated transactions in API responses
type PaginatedTransactionsResponse struct {
	Data       []TransactionResponse `json:"data"`
	Page       int32                 `json:"page"`
	PageSize   int32                 `json:"pageSize"`
	TotalItems int64                 `json:"totalItems"`
	TotalPages int32                 `json:"totalPages"`
}

// CreateTransaction godoc
// @Summary Create a transaction
// @Description Create an income, expense or transfer. Wallet balances and budgets are updated atomically.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "Transaction creation request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	input, invalid := bindTransactionInput(c)
	if invalid != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*invalid})
	}

	tx, err := h.transactionService.CreateTransaction(c.Request().Context(), userID, *input)
	if err != nil {
		if p := transactionError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

// GetTransactions godoc
// @Summary List transactions
// @Description Ordered by date then id, newest first
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param walletId query int false "Filter by wallet (source or transfer target)"
// @Param categoryId query int false "Filter by category"
// @Param type query string false "income, expense or transfer"
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Param search query string false "Note contains"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 20, max 100)"
// @Success 200 {object} PaginatedTransactionsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions [get]
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)

	filters := domain.TransactionFilters{Search: c.QueryParam("search")}

	var walletID, categoryID int32
	if ok, err := parseIntParam(c.QueryParam("walletId"), &walletID); err != nil {
		return NewValidationError(c, "Invalid walletId", nil)
	} else if ok {
		filters.WalletID = &walletID
	}
	if ok, err := parseIntParam(c.QueryParam("categoryId"), &categoryID); err != nil {
		return NewValidationError(c, "Invalid categoryId", nil)
	} else if ok {
		filters.CategoryID = &categoryID
	}

	if raw := c.QueryParam("type"); raw != "" {
		t := domain.TransactionType(raw)
		filters.Type = &t
	}

	var err error
	if filters.StartDate, err = parseDate(c.QueryParam("startDate")); err != nil {
		return NewValidationError(c, "Invalid startDate format (use YYYY-MM-DD)", nil)
	}
	if filters.EndDate, err = parseDate(c.QueryParam("endDate")); err != nil {
		return NewValidationError(c, "Invalid endDate format (use YYYY-MM-DD)", nil)
	}

	if filters.Page, filters.PageSize, err = parsePage(c); err != nil {
		return NewValidationError(c, "Invalid page or pageSize (must be positive integers)", nil)
	}

	result, err := h.transactionService.ListTransactions(c.Request().Context(), userID, filters)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransactionType) {
			return NewValidationError(c, "Invalid type (must be 'income', 'expense' or 'transfer')", nil)
		}
		if errors.Is(err, domain.ErrInvalidDateRange) {
			return NewValidationError(c, "endDate must not be before startDate", nil)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list transactions")
		return NewInternalError(c, "Failed to list transactions")
	}

	return c.JSON(http.StatusOK, toPaginatedTransactionsResponse(result))
}

// GetTransaction godoc
// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} TransactionResponse
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	tx, err := h.transactionService.GetTransaction(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("transaction_id", id).Msg("Failed to get transaction")
		return NewInternalError(c, "Failed to get transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(tx))
}

// UpdateTransaction godoc
// @Summary Replace a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param request body TransactionRequest true "Transaction"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	input, invalid := bindTransactionInput(c)
	if invalid != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*invalid})
	}

	tx, err := h.transactionService.UpdateTransaction(c.Request().Context(), userID, id, *input)
	if err != nil {
		if p := transactionError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("transaction_id", id).Msg("Failed to update transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(tx))
}

// DeleteTransaction godoc
// @Summary Delete a transaction
// @Tags transactions
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return NewNotFoundError(c, "Transaction not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("transaction_id", id).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	return c.NoContent(http.StatusNoContent)
}

// bindTransactionInput parses the body and reports the first malformed field
func bindTransactionInput(c echo.Context) (*service.TransactionInput, *ValidationError) {
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return nil, &ValidationError{Field: "body", Message: "Invalid request body"}
	}

	// Validate walletId early to avoid unnecessary database lookup
	if req.WalletID <= 0 {
		return nil, &ValidationError{Field: "walletId", Message: "Wallet ID is required"}
	}

	amount, err := parseDecimal(req.Amount)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Message: "Must be a valid decimal number"}
	}

	input := &service.TransactionInput{
		WalletID:   req.WalletID,
		ToWalletID: req.ToWalletID,
		CategoryID: req.CategoryID,
		Type:       domain.TransactionType(req.Type),
		Amount:     amount,
		Note:       req.Note,
	}
	if req.Date != nil {
		if input.Date, err = parseDate(*req.Date); err != nil {
			return nil, &ValidationError{Field: "date", Message: "Must be in YYYY-MM-DD format"}
		}
	}
	return input, nil
}

// transactionError maps transaction domain errors. Unexpected errors yield nil.
func transactionError(err error) *ProblemDetails {
	switch {
	case errors.Is(err, domain.ErrTransactionNotFound):
		return notFoundProblem("Transaction not found")
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return fieldProblem("type", "Type must be one of: income, expense, transfer")
	case errors.Is(err, domain.ErrInvalidAmount):
		return fieldProblem("amount", "Amount must be greater than zero")
	case errors.Is(err, domain.ErrAmountTooLarge):
		return fieldProblem("amount", "Amount must be less than 1000000000000")
	case errors.Is(err, domain.ErrNoteTooLong):
		return fieldProblem("note", "Note must be 500 characters or less")
	case errors.Is(err, domain.ErrWalletNotFound):
		return fieldProblem("walletId", "Wallet not found")
	case errors.Is(err, domain.ErrTransferTargetEmpty):
		return fieldProblem("toWalletId", "Transfers require a target wallet")
	case errors.Is(err, domain.ErrSameWalletTransfer):
		return fieldProblem("toWalletId", "Cannot transfer to the same wallet")
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return fieldProblem("toWalletId", "Wallets must share a currency")
	case errors.Is(err, domain.ErrCategoryRequired):
		return fieldProblem("categoryId", "Category is required")
	case errors.Is(err, domain.ErrCategoryNotFound):
		return fieldProblem("categoryId", "Category not found")
	case errors.Is(err, domain.ErrCategoryTypeMismatch):
		return fieldProblem("categoryId", "Category type does not match transaction type")
	}
	return nil
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:         t.ID,
		WalletID:   t.WalletID,
		ToWalletID: t.ToWalletID,
		CategoryID: t.CategoryID,
		Type:       string(t.Type),
		Amount:     t.Amount.StringFixed(2),
		Note:       t.Note,
		Date:       t.Date.Format(dateLayout),
		CreatedAt:  formatTimestamp(t.CreatedAt),
		UpdatedAt:  formatTimestamp(t.UpdatedAt),
	}
}

func toPaginatedTransactionsResponse(result *domain.PaginatedTransactions) PaginatedTransactionsResponse {
	response := PaginatedTransactionsResponse{
		Data:       make([]TransactionResponse, len(result.Data)),
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	}
	for i, t := range result.Data {
		response.Data[i] = toTransactionResponse(t)
	}
	return response
}
