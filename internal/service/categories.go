package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/store"
)

// CategoryInput creates or replaces a category.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// CategoryService manages categories. Writes are admin-only and gated by
// the router.
type CategoryService struct {
	categories store.CategoryStore
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categories store.CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := auth.Validate(in); err != nil {
		return domain.Category{}, fail(ErrInvalidInput, "%s", err.Error())
	}
	c := domain.Category{Name: in.Name, Description: strings.TrimSpace(in.Description)}
	if err := s.categories.CreateCategory(ctx, &c); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Category{}, fail(ErrConflict, "Category already exists")
		}
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// List returns every category sorted by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id string) (domain.Category, error) {
	c, err := s.categories.CategoryByID(ctx, id)
	if err != nil {
		return domain.Category{}, notFound(err, "Category")
	}
	return c, nil
}

// Update replaces name and description.
func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := auth.Validate(in); err != nil {
		return domain.Category{}, fail(ErrInvalidInput, "%s", err.Error())
	}
	c, err := s.categories.CategoryByID(ctx, id)
	if err != nil {
		return domain.Category{}, notFound(err, "Category")
	}
	c.Name = in.Name
	c.Description = strings.TrimSpace(in.Description)
	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Category{}, fail(ErrConflict, "Category already exists")
		}
		return domain.Category{}, notFound(err, "Category")
	}
	return s.Get(ctx, id)
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return notFound(err, "Category")
	}
	return nil
}
