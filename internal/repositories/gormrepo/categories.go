package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
)

// CategoryRepository persists the category tree.
type CategoryRepository struct {
	db *gorm.DB
}

// Insert implements repositories.CategoryRepository.
func (r *CategoryRepository) Insert(ctx context.Context, category domain.Category) error {
	if err := database.Handle(ctx, r.db).Create(&category).Error; err != nil {
		return translate("categories.insert", err)
	}
	return nil
}

// Update implements repositories.CategoryRepository.
func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	result := database.Handle(ctx, r.db).Model(&domain.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":      category.Name,
			"slug":      category.Slug,
			"parent_id": category.ParentID,
		})
	if result.Error != nil {
		return translate("categories.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("categories.update", "category not found")
	}
	return nil
}

// Delete implements repositories.CategoryRepository.
func (r *CategoryRepository) Delete(ctx context.Context, categoryID string) error {
	result := database.Handle(ctx, r.db).Delete(&domain.Category{}, "id = ?", categoryID)
	if result.Error != nil {
		return translate("categories.delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("categories.delete", "category not found")
	}
	return nil
}

// FindByID implements repositories.CategoryRepository.
func (r *CategoryRepository) FindByID(ctx context.Context, categoryID string) (domain.Category, error) {
	var category domain.Category
	err := database.Handle(ctx, r.db).First(&category, "id = ?", categoryID).Error
	if err != nil {
		return domain.Category{}, translate("categories.find_by_id", err)
	}
	return category, nil
}

// FindBySlug implements repositories.CategoryRepository.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (domain.Category, error) {
	var category domain.Category
	err := database.Handle(ctx, r.db).First(&category, "slug = ?", slug).Error
	if err != nil {
		return domain.Category{}, translate("categories.find_by_slug", err)
	}
	return category, nil
}

// List implements repositories.CategoryRepository.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := database.Handle(ctx, r.db).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, translate("categories.list", err)
	}
	return categories, nil
}

// CountProducts implements repositories.CategoryRepository.
func (r *CategoryRepository) CountProducts(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := database.Handle(ctx, r.db).Model(&domain.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return 0, translate("categories.count_products", err)
	}
	return count, nil
}
