package gormrepo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
)

// UserRepository persists accounts in the users table.
type UserRepository struct {
	db *gorm.DB
}

// Insert implements repositories.UserRepository.
func (r *UserRepository) Insert(ctx context.Context, user domain.User) error {
	if err := database.Handle(ctx, r.db).Create(&user).Error; err != nil {
		return translate("users.insert", err)
	}
	return nil
}

// Update implements repositories.UserRepository.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	result := database.Handle(ctx, r.db).Model(&domain.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"email":     user.Email,
			"full_name": user.FullName,
			"mobile_no": user.MobileNo,
			"is_guest":  user.IsGuest,
		})
	if result.Error != nil {
		return translate("users.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("users.update", "user not found")
	}
	return nil
}

// FindByID implements repositories.UserRepository.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	err := database.Handle(ctx, r.db).First(&user, "id = ?", userID).Error
	if err != nil {
		return domain.User{}, translate("users.find_by_id", err)
	}
	return user, nil
}

// FindRegisteredByEmail implements repositories.UserRepository.
func (r *UserRepository) FindRegisteredByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := database.Handle(ctx, r.db).
		Where("email = ? AND is_guest = ?", strings.ToLower(strings.TrimSpace(email)), false).
		First(&user).Error
	if err != nil {
		return domain.User{}, translate("users.find_registered_by_email", err)
	}
	return user, nil
}
