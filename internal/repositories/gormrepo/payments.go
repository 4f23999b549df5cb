package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
)

// PaymentRepository persists settlement records.
type PaymentRepository struct {
	db *gorm.DB
}

// Insert implements repositories.PaymentRepository.
func (r *PaymentRepository) Insert(ctx context.Context, payment domain.Payment) error {
	if err := database.Handle(ctx, r.db).Create(&payment).Error; err != nil {
		return translate("payments.insert", err)
	}
	return nil
}

// ListByOrder implements repositories.PaymentRepository.
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := database.Handle(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("payment_date ASC").
		Find(&payments).Error
	if err != nil {
		return nil, translate("payments.list_by_order", err)
	}
	return payments, nil
}

// SumByOrder implements repositories.PaymentRepository.
func (r *PaymentRepository) SumByOrder(ctx context.Context, orderID string) (int64, error) {
	var sum *int64
	err := database.Handle(ctx, r.db).Model(&domain.Payment{}).
		Where("order_id = ?", orderID).
		Select("SUM(payment_amount)").
		Scan(&sum).Error
	if err != nil {
		return 0, translate("payments.sum_by_order", err)
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
