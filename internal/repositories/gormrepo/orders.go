package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
	"github.com/clickbazaar/api/internal/repositories"
)

// OrderRepository persists orders and line items.
type OrderRepository struct {
	db *gorm.DB
}

// Insert implements repositories.OrderRepository. Items are written through
// the association so the order and its lines land in one statement batch.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if err := database.Handle(ctx, r.db).Create(&order).Error; err != nil {
		return translate("orders.insert", err)
	}
	return nil
}

// UpdateStatus implements repositories.OrderRepository.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	result := database.Handle(ctx, r.db).Model(&domain.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return translate("orders.update_status", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("orders.update_status", "order not found")
	}
	return nil
}

// FindByID implements repositories.OrderRepository.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	var order domain.Order
	err := database.Handle(ctx, r.db).
		Preload("Items").
		Preload("Payments").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return domain.Order{}, translate("orders.find_by_id", err)
	}
	return order, nil
}

// FindByIDForUpdate implements repositories.OrderRepository. Must run inside
// a transaction; the lock releases on commit or rollback.
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	var order domain.Order
	err := database.Handle(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Preload("Payments").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return domain.Order{}, translate("orders.find_by_id_for_update", err)
	}
	return order, nil
}

// FindByNumber implements repositories.OrderRepository.
func (r *OrderRepository) FindByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	var order domain.Order
	err := database.Handle(ctx, r.db).
		Preload("Items").
		Preload("Payments").
		First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return domain.Order{}, translate("orders.find_by_number", err)
	}
	return order, nil
}

// List implements repositories.OrderRepository.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderFilter, page domain.Pagination) (domain.Page[domain.Order], error) {
	query := database.Handle(ctx, r.db).Model(&domain.Order{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.Order]{}, translate("orders.list", err)
	}

	var items []domain.Order
	err := query.
		Preload("Items").
		Order("order_date DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&items).Error
	if err != nil {
		return domain.Page[domain.Order]{}, translate("orders.list", err)
	}

	return domain.Page[domain.Order]{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}
