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

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRequest represents the register request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ForgotPasswordRequest represents the forgot password request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the reset password request body
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"createdAt"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// MessageResponse carries a human readable status
type MessageResponse struct {
	Message string `json:"message"`
}

// Register godoc
// @Summary Register an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Currency: req.Currency,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return NewConflictError(c, "Email is already registered")
		}
		if p := credentialError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Msg("Failed to register user")
		return NewInternalError(c, "Failed to register")
	}

	return c.JSON(http.StatusCreated, toAuthResponse(result))
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} ProblemDetails
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return NewUnauthorizedError(c, "Invalid email or password")
		}
		log.Error().Err(err).Msg("Failed to log in")
		return NewInternalError(c, "Failed to log in")
	}

	return c.JSON(http.StatusOK, toAuthResponse(result))
}

// Me godoc
// @Summary Get the current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} ProblemDetails
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.GetUserID(c)

	user, err := h.authService.Me(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewUnauthorizedError(c, "User no longer exists")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get user")
		return NewInternalError(c, "Failed to get user")
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// ChangePassword godoc
// @Summary Change the password
// @Tags auth
// @Accept json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Change password request"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	err := h.authService.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return NewFieldError(c, "currentPassword", "Current password is incorrect")
		}
		if p := credentialError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to change password")
		return NewInternalError(c, "Failed to change password")
	}

	return c.NoContent(http.StatusNoContent)
}

// ForgotPassword godoc
// @Summary Request a password reset code
// @Description Always accepted for well-formed addresses so that registered emails cannot be discovered
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Forgot password request"
// @Success 202 {object} MessageResponse
// @Failure 400 {object} ProblemDetails
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrInvalidEmail) {
			return NewFieldError(c, "email", "Must be a valid email address")
		}
		log.Error().Err(err).Msg("Failed to start password reset")
		return NewInternalError(c, "Failed to start password reset")
	}

	return c.JSON(http.StatusAccepted, MessageResponse{Message: "If the email is registered, a reset code has been sent"})
}

// ResetPassword godoc
// @Summary Reset the password with an emailed code
// @Tags auth
// @Accept json
// @Param request body ResetPasswordRequest true "Reset password request"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	err := h.authService.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResetCode) {
			return NewFieldError(c, "code", "Invalid or expired reset code")
		}
		if p := credentialError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Msg("Failed to reset password")
		return NewInternalError(c, "Failed to reset password")
	}

	return c.NoContent(http.StatusNoContent)
}

// credentialError maps account field validation errors. Other errors yield nil.
func credentialError(err error) *ProblemDetails {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		return fieldProblem("email", "Must be a valid email address")
	case errors.Is(err, domain.ErrPasswordTooShort):
		return fieldProblem("password", "Password must be at least 8 characters")
	case errors.Is(err, domain.ErrPasswordTooLong):
		return fieldProblem("password", "Password must be 72 bytes or less")
	case errors.Is(err, domain.ErrNameRequired):
		return fieldProblem("name", "Name is required")
	case errors.Is(err, domain.ErrNameTooLong):
		return fieldProblem("name", "Name must be 255 characters or less")
	case errors.Is(err, domain.ErrInvalidCurrency):
		return fieldProblem("currency", "Must be a 3-letter ISO 4217 code")
	}
	return nil
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Currency:  user.Currency,
		CreatedAt: formatTimestamp(user.CreatedAt),
	}
}

func toAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     result.Token,
		ExpiresAt: formatTimestamp(result.ExpiresAt),
		User:      toUserResponse(result.User),
	}
}
