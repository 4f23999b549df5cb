package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/platform/database"
)

// HealthRepository verifies database connectivity for readiness probes.
type HealthRepository struct {
	db *gorm.DB
}

// Check implements repositories.HealthRepository.
func (r *HealthRepository) Check(ctx context.Context) error {
	var one int
	if err := database.Handle(ctx, r.db).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return translate("health.check", err)
	}
	return nil
}
