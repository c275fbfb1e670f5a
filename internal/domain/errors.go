package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
	ErrNameRequired       = errors.New("name is required")
	ErrNameTooLong        = errors.New("name exceeds maximum length")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter ISO 4217 code")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrCurrencyLocked      = errors.New("wallet currency cannot change once it has transactions")
	ErrCurrencyMismatch    = errors.New("wallets have different currencies")
	ErrSameWalletTransfer  = errors.New("cannot transfer to the same wallet")
	ErrTransferTargetEmpty = errors.New("transfer requires a target wallet")

	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryReadOnly     = errors.New("system categories cannot be modified")
	ErrCategoryInUse        = errors.New("category is used by transactions or budgets")
	ErrCategoryExists       = errors.New("category with this name already exists")
	ErrInvalidCategoryType  = errors.New("invalid category type")
	ErrCategoryRequired     = errors.New("category is required")
	ErrCategoryTypeMismatch = errors.New("category type does not match transaction type")
	ErrInvalidColor         = errors.New("color must be #RRGGBB")

	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrAmountTooLarge         = errors.New("amount must be less than 1000000000000")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrNoteTooLong            = errors.New("note exceeds maximum length")

	ErrBudgetNotFound       = errors.New("budget not found")
	ErrBudgetCategoriesMiss = errors.New("budget requires at least one category")
	ErrInvalidDateRange     = errors.New("end date must not be before start date")
	ErrInvalidThreshold     = errors.New("alert threshold must be between 1 and 100")

	ErrNotificationNotFound = errors.New("notification not found")

	ErrInvalidPeriod = errors.New("period must be one of: week, month, year")
)
