package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
)

// ShippingMethodRepository persists delivery options.
type ShippingMethodRepository struct {
	db *gorm.DB
}

// FindByID implements repositories.ShippingMethodRepository.
func (r *ShippingMethodRepository) FindByID(ctx context.Context, methodID string) (domain.ShippingMethod, error) {
	var method domain.ShippingMethod
	err := database.Handle(ctx, r.db).First(&method, "id = ?", methodID).Error
	if err != nil {
		return domain.ShippingMethod{}, translate("shipping_methods.find_by_id", err)
	}
	return method, nil
}

// ListActive implements repositories.ShippingMethodRepository.
func (r *ShippingMethodRepository) ListActive(ctx context.Context) ([]domain.ShippingMethod, error) {
	var methods []domain.ShippingMethod
	err := database.Handle(ctx, r.db).
		Where("active = ?", true).
		Order("base_cost ASC").
		Find(&methods).Error
	if err != nil {
		return nil, translate("shipping_methods.list_active", err)
	}
	return methods, nil
}
