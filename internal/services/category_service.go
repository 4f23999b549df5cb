package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
)

const (
	categoryEventCreated = "category.created"
	categoryEventUpdated = "category.updated"
	categoryEventDeleted = "category.deleted"

	categoryIDPrefix = "cat_"
)

var (
	// ErrCategoryInvalidInput signals the caller provided invalid data.
	ErrCategoryInvalidInput = errors.New("category: invalid input")
	// ErrCategoryNotFound indicates the category could not be located.
	ErrCategoryNotFound = errors.New("category: not found")
	// ErrCategorySlugTaken indicates the slug is already in use.
	ErrCategorySlugTaken = errors.New("category: slug already in use")
	// ErrCategoryInUse indicates the category still has products attached.
	ErrCategoryInUse = errors.New("category: products still attached")
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// CategoryServiceDeps bundles collaborators required to construct the category service.
type CategoryServiceDeps struct {
	Categories  repositories.CategoryRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      Logger
}

type categoryService struct {
	categories repositories.CategoryRepository
	clock      func() time.Time
	newID      func() string
	logger     Logger
}

// NewCategoryService wires dependencies into a concrete CategoryService implementation.
func NewCategoryService(deps CategoryServiceDeps) (CategoryService, error) {
	if deps.Categories == nil {
		return nil, errors.New("category service: category repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &categoryService{
		categories: deps.Categories,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// Create inserts a new category; a missing slug is derived from the name.
func (s *categoryService) Create(ctx context.Context, input CategoryInput) (domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: name is required", ErrCategoryInvalidInput)
	}
	slug := normaliseSlug(input.Slug)
	if slug == "" {
		slug = normaliseSlug(name)
	}
	if slug == "" {
		return domain.Category{}, fmt.Errorf("%w: slug could not be derived", ErrCategoryInvalidInput)
	}
	if err := s.ensureSlugFree(ctx, slug, ""); err != nil {
		return domain.Category{}, err
	}

	now := s.clock()
	category := domain.Category{
		ID:        categoryIDPrefix + s.newID(),
		Name:      name,
		Slug:      slug,
		ParentID:  input.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.categories.Insert(ctx, category); err != nil {
		if isConflict(err) {
			return domain.Category{}, fmt.Errorf("%w: %s", ErrCategorySlugTaken, slug)
		}
		return domain.Category{}, fmt.Errorf("category: persist category: %w", err)
	}

	s.logger(ctx, categoryEventCreated, map[string]any{
		"categoryId": category.ID,
		"slug":       category.Slug,
	})
	return category, nil
}

// Update mutates name, slug, and parent of an existing category.
func (s *categoryService) Update(ctx context.Context, categoryID string, input CategoryInput) (domain.Category, error) {
	existing, err := s.Get(ctx, categoryID)
	if err != nil {
		return domain.Category{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: name is required", ErrCategoryInvalidInput)
	}
	slug := normaliseSlug(input.Slug)
	if slug == "" {
		slug = existing.Slug
	}
	if slug != existing.Slug {
		if err := s.ensureSlugFree(ctx, slug, categoryID); err != nil {
			return domain.Category{}, err
		}
	}
	if input.ParentID != nil && *input.ParentID == categoryID {
		return domain.Category{}, fmt.Errorf("%w: category cannot parent itself", ErrCategoryInvalidInput)
	}

	existing.Name = name
	existing.Slug = slug
	existing.ParentID = input.ParentID
	existing.UpdatedAt = s.clock()
	if err := s.categories.Update(ctx, existing); err != nil {
		if isNotFound(err) {
			return domain.Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		if isConflict(err) {
			return domain.Category{}, fmt.Errorf("%w: %s", ErrCategorySlugTaken, slug)
		}
		return domain.Category{}, fmt.Errorf("category: update category: %w", err)
	}

	s.logger(ctx, categoryEventUpdated, map[string]any{
		"categoryId": existing.ID,
		"slug":       existing.Slug,
	})
	return existing, nil
}

// Delete removes a category with no attached products.
func (s *categoryService) Delete(ctx context.Context, categoryID string) error {
	if strings.TrimSpace(categoryID) == "" {
		return fmt.Errorf("%w: category id is required", ErrCategoryInvalidInput)
	}
	attached, err := s.categories.CountProducts(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("category: count products: %w", err)
	}
	if attached > 0 {
		return fmt.Errorf("%w: %d products", ErrCategoryInUse, attached)
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		return fmt.Errorf("category: delete category: %w", err)
	}

	s.logger(ctx, categoryEventDeleted, map[string]any{"categoryId": categoryID})
	return nil
}

// Get loads one category by id.
func (s *categoryService) Get(ctx context.Context, categoryID string) (domain.Category, error) {
	if strings.TrimSpace(categoryID) == "" {
		return domain.Category{}, fmt.Errorf("%w: category id is required", ErrCategoryInvalidInput)
	}
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if isNotFound(err) {
			return domain.Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryID)
		}
		return domain.Category{}, fmt.Errorf("category: load category: %w", err)
	}
	return category, nil
}

// List returns all categories.
func (s *categoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("category: list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	existing, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("category: check slug: %w", err)
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCategorySlugTaken, slug)
}

func normaliseSlug(raw string) string {
	slug := strings.ToLower(strings.TrimSpace(raw))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
