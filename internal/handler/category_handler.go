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

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// UpdateCategoryRequest represents the update category request body
type UpdateCategoryRequest struct {
	Name  *string `json:"name,omitempty"`
	Icon  *string `json:"icon,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	IsSystem  bool   `json:"isSystem"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// GetCategories godoc
// @Summary List categories
// @Description System defaults first, then the user's own categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param type query string false "income, expense or debt_loan"
// @Success 200 {array} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Router /categories [get]
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var categoryType *domain.CategoryType
	if raw := c.QueryParam("type"); raw != "" {
		t := domain.CategoryType(raw)
		categoryType = &t
	}

	categories, err := h.categoryService.ListCategories(c.Request().Context(), userID, categoryType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategoryType) {
			return NewValidationError(c, "Invalid type (must be 'income', 'expense' or 'debt_loan')", nil)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list categories")
		return NewInternalError(c, "Failed to list categories")
	}

	response := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		response[i] = toCategoryResponse(category)
	}
	return c.JSON(http.StatusOK, response)
}

// CreateCategory godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "Category creation request"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), userID, service.CreateCategoryInput{
		Name:  req.Name,
		Type:  domain.CategoryType(req.Type),
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		if p := categoryError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create category")
		return NewInternalError(c, "Failed to create category")
	}

	log.Info().Str("user_id", userID.String()).Int32("category_id", category.ID).Msg("Category created")
	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// UpdateCategory godoc
// @Summary Update a category
// @Description System categories are read-only. The type cannot change.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body UpdateCategoryRequest true "Category update"
// @Success 200 {object} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), userID, id, service.UpdateCategoryInput{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		if p := categoryError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("category_id", id).Msg("Failed to update category")
		return NewInternalError(c, "Failed to update category")
	}

	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory godoc
// @Summary Delete a category
// @Tags categories
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseID(c, "id")
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(c.Request().Context(), userID, id); err != nil {
		if p := categoryError(err); p != nil {
			return writeProblem(c, p)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("category_id", id).Msg("Failed to delete category")
		return NewInternalError(c, "Failed to delete category")
	}

	return c.NoContent(http.StatusNoContent)
}

// categoryError maps category domain errors. Unexpected errors yield nil.
func categoryError(err error) *ProblemDetails {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return notFoundProblem("Category not found")
	case errors.Is(err, domain.ErrCategoryReadOnly):
		return forbiddenProblem("System categories cannot be modified")
	case errors.Is(err, domain.ErrCategoryInUse):
		return conflictProblem("Category is used by transactions or budgets")
	case errors.Is(err, domain.ErrCategoryExists):
		return conflictProblem("A category with this name already exists")
	case errors.Is(err, domain.ErrNameRequired):
		return fieldProblem("name", "Name is required")
	case errors.Is(err, domain.ErrNameTooLong):
		return fieldProblem("name", "Name must be 50 characters or less")
	case errors.Is(err, domain.ErrInvalidCategoryType):
		return fieldProblem("type", "Type must be one of: income, expense, debt_loan")
	case errors.Is(err, domain.ErrInvalidColor):
		return fieldProblem("color", "Color must be in #RRGGBB format")
	}
	return nil
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Type:      string(category.Type),
		Icon:      category.Icon,
		Color:     category.Color,
		IsSystem:  category.IsSystem(),
		CreatedAt: formatTimestamp(category.CreatedAt),
		UpdatedAt: formatTimestamp(category.UpdatedAt),
	}
}
