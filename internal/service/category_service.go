package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/spendly/spendly-backend/internal/domain"
)

// DefaultCategoryColor is used when a category is created without a color
const DefaultCategoryColor = "#9E9E9E"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name  string
	Type  domain.CategoryType
	Icon  string
	Color string
}

// UpdateCategoryInput holds the optional fields of a category update.
// The type of a category never changes.
type UpdateCategoryInput struct {
	Name  *string
	Icon  *string
	Color *string
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len([]rune(name)) > domain.MaxCategoryNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

func normalizeColor(color, fallback string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		color = fallback
	}
	if !colorPattern.MatchString(color) {
		return "", domain.ErrInvalidColor
	}
	return strings.ToUpper(color), nil
}

// ListCategories returns system defaults followed by the user's categories
func (s *CategoryService) ListCategories(ctx context.Context, userID uuid.UUID, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	if categoryType != nil && !categoryType.IsValid() {
		return nil, domain.ErrInvalidCategoryType
	}
	return s.categoryRepo.GetAllForUser(ctx, userID, categoryType)
}

// CreateCategory creates a user-owned category with a name unique per type
func (s *CategoryService) CreateCategory(ctx context.Context, userID uuid.UUID, input CreateCategoryInput) (*domain.Category, error) {
	name, err := validateCategoryName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidCategoryType
	}
	color, err := normalizeColor(input.Color, DefaultCategoryColor)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, userID, name, input.Type, 0); err != nil {
		return nil, err
	}

	owner := userID
	return s.categoryRepo.Create(ctx, &domain.Category{
		UserID: &owner,
		Name:   name,
		Type:   input.Type,
		Icon:   strings.TrimSpace(input.Icon),
		Color:  color,
	})
}

// UpdateCategory changes name, icon or color of a user-owned category.
// System defaults are read-only.
func (s *CategoryService) UpdateCategory(ctx context.Context, userID uuid.UUID, id int32, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if category.IsSystem() {
		return nil, domain.ErrCategoryReadOnly
	}

	name, icon, color := category.Name, category.Icon, category.Color
	if input.Name != nil {
		if name, err = validateCategoryName(*input.Name); err != nil {
			return nil, err
		}
		if err := s.ensureNameFree(ctx, userID, name, category.Type, category.ID); err != nil {
			return nil, err
		}
	}
	if input.Icon != nil {
		icon = strings.TrimSpace(*input.Icon)
	}
	if input.Color != nil {
		if color, err = normalizeColor(*input.Color, category.Color); err != nil {
			return nil, err
		}
	}

	return s.categoryRepo.Update(ctx, userID, id, name, icon, color)
}

// DeleteCategory removes a user-owned category that nothing references
func (s *CategoryService) DeleteCategory(ctx context.Context, userID uuid.UUID, id int32) error {
	category, err := s.categoryRepo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if category.IsSystem() {
		return domain.ErrCategoryReadOnly
	}

	inUse, err := s.categoryRepo.IsInUse(ctx, userID, id)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrCategoryInUse
	}
	return s.categoryRepo.Delete(ctx, userID, id)
}

// ensureNameFree fails when another own category of the same type has the name
func (s *CategoryService) ensureNameFree(ctx context.Context, userID uuid.UUID, name string, categoryType domain.CategoryType, selfID int32) error {
	existing, err := s.categoryRepo.GetByName(ctx, userID, name, categoryType)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return domain.ErrCategoryExists
	}
	return nil
}
