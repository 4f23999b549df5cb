package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
)

// AddressRepository persists addresses.
type AddressRepository struct {
	db *gorm.DB
}

// Insert implements repositories.AddressRepository.
func (r *AddressRepository) Insert(ctx context.Context, address domain.Address) error {
	if err := database.Handle(ctx, r.db).Create(&address).Error; err != nil {
		return translate("addresses.insert", err)
	}
	return nil
}

// FindByID implements repositories.AddressRepository.
func (r *AddressRepository) FindByID(ctx context.Context, addressID string) (domain.Address, error) {
	var address domain.Address
	err := database.Handle(ctx, r.db).First(&address, "id = ?", addressID).Error
	if err != nil {
		return domain.Address{}, translate("addresses.find_by_id", err)
	}
	return address, nil
}

// ListByUser implements repositories.AddressRepository. Guest one-off
// addresses are excluded from a user's address book.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	var addresses []domain.Address
	err := database.Handle(ctx, r.db).
		Where("user_id = ? AND is_guest = ?", userID, false).
		Order("created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, translate("addresses.list_by_user", err)
	}
	return addresses, nil
}
