package gormrepo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
	"github.com/clickbazaar/api/internal/repositories"
)

// ProductRepository persists products and variation combinations.
type ProductRepository struct {
	db *gorm.DB
}

// FindByID implements repositories.ProductRepository.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	var product domain.Product
	err := database.Handle(ctx, r.db).
		Preload("Combinations").
		First(&product, "id = ?", productID).Error
	if err != nil {
		return domain.Product{}, translate("products.find_by_id", err)
	}
	return product, nil
}

// FindBatch implements repositories.ProductRepository.
func (r *ProductRepository) FindBatch(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	if len(productIDs) == 0 {
		return map[string]domain.Product{}, nil
	}
	var products []domain.Product
	err := database.Handle(ctx, r.db).
		Preload("Combinations").
		Where("id IN ?", productIDs).
		Find(&products).Error
	if err != nil {
		return nil, translate("products.find_batch", err)
	}
	batch := make(map[string]domain.Product, len(products))
	for _, product := range products {
		batch[product.ID] = product
	}
	return batch, nil
}

// List implements repositories.ProductRepository.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductFilter, page domain.Pagination) (domain.Page[domain.Product], error) {
	query := database.Handle(ctx, r.db).Model(&domain.Product{})

	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if filter.MinPrice != nil {
		query = query.Where("base_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("base_price <= ?", *filter.MaxPrice)
	}
	if filter.InStock {
		query = query.Where(
			"base_stock_quantity > 0 OR EXISTS (SELECT 1 FROM variation_combinations vc WHERE vc.product_id = products.id AND vc.stock_quantity > 0)",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.Product]{}, translate("products.list", err)
	}

	var items []domain.Product
	err := query.
		Preload("Combinations").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		return domain.Page[domain.Product]{}, translate("products.list", err)
	}

	return domain.Page[domain.Product]{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// DecrementCombinationStock implements repositories.ProductRepository. The
// availability check and the decrement are one conditional UPDATE so two
// concurrent orders can never both take the last unit.
func (r *ProductRepository) DecrementCombinationStock(ctx context.Context, combinationID string, quantity int) error {
	result := database.Handle(ctx, r.db).Model(&domain.VariationCombination{}).
		Where("id = ? AND stock_quantity >= ?", combinationID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return translate("products.decrement_combination_stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return insufficientStock("products.decrement_combination_stock", "insufficient stock for variation combination")
	}
	return nil
}

// DecrementBaseStock implements repositories.ProductRepository.
func (r *ProductRepository) DecrementBaseStock(ctx context.Context, productID string, quantity int) error {
	result := database.Handle(ctx, r.db).Model(&domain.Product{}).
		Where("id = ? AND base_stock_quantity >= ?", productID, quantity).
		UpdateColumn("base_stock_quantity", gorm.Expr("base_stock_quantity - ?", quantity))
	if result.Error != nil {
		return translate("products.decrement_base_stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return insufficientStock("products.decrement_base_stock", "insufficient stock for product")
	}
	return nil
}
