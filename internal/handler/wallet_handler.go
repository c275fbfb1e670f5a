package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/middleware"
	"github.com/spendly/spendly-backend/internal/service"
)

// WalletHandler handles wallet-related HTTP requests
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// CreateWalletRequest represents the create wallet request body
type CreateWalletRequest struct {
	Name             string  `json:"name"`
	Currency         string  `json:"currency,omitempty"`
	InitialBalance   string  `json:"initialBalance,omitempty"`
	Icon             *string `json:"icon,omitempty"`
	ExcludeFromTotal bool    `json:"excludeFromTotal"`
}

// UpdateWalletRequest represents the update wallet request body. Omitted fields are unchanged.
type UpdateWalletRequest struct {
	Name             *string `json:"name,omitempty"`
	Currency         *string `json:"currency,omitempty"`
	Icon             *string `json:"icon,omitempty"`
	ExcludeFromTotal *bool   `json:"excludeFromTotal,omitempty"`
}

// AdjustWalletRequest represents the balance adjustment request body
type AdjustWalletRequest struct {
	NewBalance string  `json:"newBalance"`
	Note       *string `json:"note,omitempty"`
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	ID               int32   `json:"id"`
	Name             string  `json:"name"`
	Currency         string  `json:"currency"`
	Balance          string  `json:"balance"`
	Icon             *string `json:"icon"`
	ExcludeFromTotal bool    `json:"excludeFromTotal"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

// CurrencyTotalResponse is the summed balance of one currency
type CurrencyTotalResponse struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

// WalletListResponse represents the wallet list with totals
type WalletListResponse struct {
	Wallets []WalletResponse        `json:"wallets"`
	Totals  []CurrencyTotalResponse `json:"totals"`
}

// AdjustWalletResponse carries the updated wallet and the recorded adjustment, if any
type AdjustWalletResponse struct {
	Wallet      WalletResponse       `json:"wallet"`
	Transaction *TransactionResponse `json:"transaction"`
}

// CreateWallet godoc
// @Summary Create a wallet
// @Tags wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateWalletRequest true "Wallet creation request"
// @Success 201 {object} WalletResponse
// @Failure 400 {object} ProblemDetails
// @Router /wallets [post]
func (h *WalletHandler) CreateWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateWalletRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			return NewFieldError(c, "initialBalance", "Must be a valid decimal number")
		}
	}

	wallet, err := h.walletService.CreateWallet(c.Request().Context(), userID, service.CreateWalletInput{
		Name:             req.Name,
		Currency:         req.Currency,
		InitialBalance:   initialBalance,
		Icon:             req.Icon,
		ExcludeFromTotal: req.ExcludeFromTotal,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAmountTooLarge) {
			return NewFieldError(c, "initialBalance", "Balance must be between -1000000000000 and 1000000000000")
		}
		if p := walletError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create wallet")
		return NewInternalError(c, "Failed to create wallet")
	}

	log.Info().Str("user_id", userID.String()).Int32("wallet_id", wallet.ID).Msg("Wallet created")
	return c.JSON(http.StatusCreated, toWalletResponse(wallet))
}

// GetWallets godoc
// @Summary List wallets with per-currency totals
// @Tags wallets
// @Produce json
// @Security BearerAuth
// @Success 200 {object} WalletListResponse
// @Router /wallets [get]
func (h *WalletHandler) GetWallets(c echo.Context) error {
	userID := middleware.GetUserID(c)

	list, err := h.walletService.ListWallets(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list wallets")
		return NewInternalError(c, "Failed to list wallets")
	}

	response := WalletListResponse{
		Wallets: make([]WalletResponse, len(list.Wallets)),
		Totals:  make([]CurrencyTotalResponse, len(list.Totals)),
	}
	for i, w := range list.Wallets {
		response.Wallets[i] = toWalletResponse(w)
	}
	for i, t := range list.Totals {
		response.Totals[i] = CurrencyTotalResponse{Currency: t.Currency, Total: t.Total.StringFixed(2)}
	}

	return c.JSON(http.StatusOK, response)
}

// GetWallet godoc
// @Summary Get a wallet
// @Tags wallets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Wallet ID"
// @Success 200 {object} WalletResponse
// @Failure 404 {object} ProblemDetails
// @Router /wallets/{id} [get]
func (h *WalletHandler) GetWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	wallet, err := h.walletService.GetWallet(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return NewNotFoundError(c, "Wallet not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("wallet_id", id).Msg("Failed to get wallet")
		return NewInternalError(c, "Failed to get wallet")
	}

	return c.JSON(http.StatusOK, toWalletResponse(wallet))
}

// UpdateWallet godoc
// @Summary Update a wallet
// @Tags wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Wallet ID"
// @Param request body UpdateWalletRequest true "Wallet update"
// @Success 200 {object} WalletResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /wallets/{id} [put]
func (h *WalletHandler) UpdateWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	var req UpdateWalletRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	wallet, err := h.walletService.UpdateWallet(c.Request().Context(), userID, id, service.UpdateWalletInput{
		Name:             req.Name,
		Currency:         req.Currency,
		Icon:             req.Icon,
		ExcludeFromTotal: req.ExcludeFromTotal,
	})
	if err != nil {
		if p := walletError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("wallet_id", id).Msg("Failed to update wallet")
		return NewInternalError(c, "Failed to update wallet")
	}

	return c.JSON(http.StatusOK, toWalletResponse(wallet))
}

// DeleteWallet godoc
// @Summary Delete a wallet and its transactions
// @Description Transactions touching the wallet are reverted on the other wallet and removed
// @Tags wallets
// @Security BearerAuth
// @Param id path int true "Wallet ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /wallets/{id} [delete]
func (h *WalletHandler) DeleteWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	if err := h.walletService.DeleteWallet(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return NewNotFoundError(c, "Wallet not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("wallet_id", id).Msg("Failed to delete wallet")
		return NewInternalError(c, "Failed to delete wallet")
	}

	log.Info().Str("user_id", userID.String()).Int32("wallet_id", id).Msg("Wallet deleted")
	return c.NoContent(http.StatusNoContent)
}

// AdjustWallet godoc
// @Summary Set a wallet balance
// @Description Records the difference as an income or expense adjustment
// @Tags wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Wallet ID"
// @Param request body AdjustWalletRequest true "Adjustment request"
// @Success 200 {object} AdjustWalletResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /wallets/{id}/adjust [post]
func (h *WalletHandler) AdjustWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	var req AdjustWalletRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	newBalance, err := parseDecimal(req.NewBalance)
	if err != nil {
		return NewFieldError(c, "newBalance", "Must be a valid decimal number")
	}

	tx, wallet, err := h.walletService.AdjustBalance(c.Request().Context(), userID, id, newBalance, req.Note)
	if err != nil {
		if errors.Is(err, domain.ErrAmountTooLarge) {
			return NewFieldError(c, "newBalance", "Balance must be between -1000000000000 and 1000000000000")
		}
		if p := walletError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("wallet_id", id).Msg("Failed to adjust wallet")
		return NewInternalError(c, "Failed to adjust wallet")
	}

	response := AdjustWalletResponse{Wallet: toWalletResponse(wallet)}
	if tx != nil {
		txResponse := toTransactionResponse(tx)
		response.Transaction = &txResponse
	}
	return c.JSON(http.StatusOK, response)
}

// walletError maps wallet domain errors. Unexpected errors yield nil.
func walletError(err error) *ProblemDetails {
	switch {
	case errors.Is(err, domain.ErrWalletNotFound):
		return notFoundProblem("Wallet not found")
	case errors.Is(err, domain.ErrNameRequired):
		return fieldProblem("name", "Name is required")
	case errors.Is(err, domain.ErrNameTooLong):
		return fieldProblem("name", "Name must be 100 characters or less")
	case errors.Is(err, domain.ErrInvalidCurrency):
		return fieldProblem("currency", "Must be a 3-letter ISO 4217 code")
	case errors.Is(err, domain.ErrNoteTooLong):
		return fieldProblem("note", "Note must be 500 characters or less")
	case errors.Is(err, domain.ErrCurrencyLocked):
		return conflictProblem("Wallet currency cannot change once it has transactions")
	}
	return nil
}

func toWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:               w.ID,
		Name:             w.Name,
		Currency:         w.Currency,
		Balance:          w.Balance.StringFixed(2),
		Icon:             w.Icon,
		ExcludeFromTotal: w.ExcludeFromTotal,
		CreatedAt:        formatTimestamp(w.CreatedAt),
		UpdatedAt:        formatTimestamp(w.UpdatedAt),
	}
}
