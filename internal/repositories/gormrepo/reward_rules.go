package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
)

// RewardRuleRepository persists per-product accrual rules.
type RewardRuleRepository struct {
	db *gorm.DB
}

// FindActiveForProducts implements repositories.RewardRuleRepository. When a
// product carries several active rules the highest priority wins.
func (r *RewardRuleRepository) FindActiveForProducts(ctx context.Context, productIDs []string, at time.Time) (map[string]domain.RewardRule, error) {
	if len(productIDs) == 0 {
		return map[string]domain.RewardRule{}, nil
	}

	var rules []domain.RewardRule
	err := database.Handle(ctx, r.db).
		Where("product_id IN ? AND active = ?", productIDs, true).
		Where("starts_at IS NULL OR starts_at <= ?", at).
		Where("ends_at IS NULL OR ends_at > ?", at).
		Order("priority DESC").
		Find(&rules).Error
	if err != nil {
		return nil, translate("reward_rules.find_active_for_products", err)
	}

	best := make(map[string]domain.RewardRule, len(rules))
	for _, rule := range rules {
		if existing, ok := best[rule.ProductID]; ok && existing.Priority >= rule.Priority {
			continue
		}
		best[rule.ProductID] = rule
	}
	return best, nil
}
