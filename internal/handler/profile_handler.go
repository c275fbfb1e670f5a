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

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// ProfileResponse represents the profile response
type ProfileResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Currency  string  `json:"currency"`
	AvatarURL *string `json:"avatarUrl"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// UpdateProfileRequest represents the update profile request. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Currency *string `json:"currency,omitempty"`
}

// GetProfile godoc
// @Summary Get the profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)

	profile, err := h.profileService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewNotFoundError(c, "User not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get profile")
		return NewInternalError(c, "Failed to get profile")
	}

	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// UpdateProfile godoc
// @Summary Update name or default currency
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile update"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} ProblemDetails
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	profile, err := h.profileService.UpdateProfile(c.Request().Context(), userID, service.UpdateProfileInput{
		Name:     req.Name,
		Currency: req.Currency,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewNotFoundError(c, "User not found")
		}
		if p := credentialError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to update profile")
		return NewInternalError(c, "Failed to update profile")
	}

	log.Info().Str("user_id", userID.String()).Msg("Profile updated")
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// UploadAvatar godoc
// @Summary Upload an avatar
// @Description Accepts JPEG, PNG or WebP up to 5MB. The image is center-cropped to 256x256.
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Avatar image"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	userID := middleware.GetUserID(c)

	if !h.profileService.AvatarsEnabled() {
		return NewServiceUnavailableError(c, "Avatar uploads are disabled (storage not configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewFieldError(c, "file", "File is required")
	}
	if file.Size > service.MaxAvatarSize {
		return NewFieldError(c, "file", service.ErrImageTooLarge.Error())
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	profile, err := h.profileService.UploadAvatar(c.Request().Context(), userID, file.Filename, src)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageTooLarge),
			errors.Is(err, service.ErrInvalidFormat),
			errors.Is(err, service.ErrImageTooSmall),
			errors.Is(err, service.ErrInvalidImageData):
			return NewFieldError(c, "file", err.Error())
		case errors.Is(err, service.ErrStorageNotConfigured):
			return NewServiceUnavailableError(c, "Avatar uploads are disabled (storage not configured)")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to upload avatar")
		return NewInternalError(c, "Failed to upload avatar")
	}

	log.Info().Str("user_id", userID.String()).Msg("Avatar uploaded")
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// DeleteAvatar godoc
// @Summary Remove the avatar
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Router /profile/avatar [delete]
func (h *ProfileHandler) DeleteAvatar(c echo.Context) error {
	userID := middleware.GetUserID(c)

	profile, err := h.profileService.DeleteAvatar(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewNotFoundError(c, "User not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to delete avatar")
		return NewInternalError(c, "Failed to delete avatar")
	}

	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

func toProfileResponse(p *service.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID.String(),
		Email:     p.Email,
		Name:      p.Name,
		Currency:  p.Currency,
		AvatarURL: p.AvatarURL,
		CreatedAt: formatTimestamp(p.CreatedAt),
		UpdatedAt: formatTimestamp(p.UpdatedAt),
	}
}
