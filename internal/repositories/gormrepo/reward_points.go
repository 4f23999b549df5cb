package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
)

// RewardPointRepository persists the reward ledger.
type RewardPointRepository struct {
	db *gorm.DB
}

// Insert implements repositories.RewardPointRepository.
func (r *RewardPointRepository) Insert(ctx context.Context, entry domain.RewardPointEntry) error {
	if err := database.Handle(ctx, r.db).Create(&entry).Error; err != nil {
		return translate("reward_points.insert", err)
	}
	return nil
}

// ActiveBalance implements repositories.RewardPointRepository. Expired unused
// earnings drop out of the sum; redemption rows are negative and always count.
func (r *RewardPointRepository) ActiveBalance(ctx context.Context, userID string, now time.Time) (int64, error) {
	var balance *int64
	err := database.Handle(ctx, r.db).Model(&domain.RewardPointEntry{}).
		Where("user_id = ?", userID).
		Where("points < 0 OR (is_used = ? AND expiry_date > ?)", false, now).
		Select("SUM(points)").
		Scan(&balance).Error
	if err != nil {
		return 0, translate("reward_points.active_balance", err)
	}
	if balance == nil {
		return 0, nil
	}
	return *balance, nil
}

// ListRedeemable implements repositories.RewardPointRepository.
func (r *RewardPointRepository) ListRedeemable(ctx context.Context, userID string, now time.Time) ([]domain.RewardPointEntry, error) {
	var entries []domain.RewardPointEntry
	err := database.Handle(ctx, r.db).
		Where("user_id = ? AND points > 0 AND is_used = ? AND expiry_date > ?", userID, false, now).
		Order("expiry_date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, translate("reward_points.list_redeemable", err)
	}
	return entries, nil
}

// MarkUsed implements repositories.RewardPointRepository.
func (r *RewardPointRepository) MarkUsed(ctx context.Context, entryIDs []string, usedOrderID string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	result := database.Handle(ctx, r.db).Model(&domain.RewardPointEntry{}).
		Where("id IN ? AND is_used = ?", entryIDs, false).
		Updates(map[string]any{
			"is_used":       true,
			"used_order_id": usedOrderID,
		})
	if result.Error != nil {
		return translate("reward_points.mark_used", result.Error)
	}
	if result.RowsAffected != int64(len(entryIDs)) {
		return insufficientStock("reward_points.mark_used", "reward entries already consumed")
	}
	return nil
}

// ListByUser implements repositories.RewardPointRepository.
func (r *RewardPointRepository) ListByUser(ctx context.Context, userID string, page domain.Pagination) (domain.Page[domain.RewardPointEntry], error) {
	query := database.Handle(ctx, r.db).Model(&domain.RewardPointEntry{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.RewardPointEntry]{}, translate("reward_points.list_by_user", err)
	}

	var entries []domain.RewardPointEntry
	err := query.
		Order("earned_date DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&entries).Error
	if err != nil {
		return domain.Page[domain.RewardPointEntry]{}, translate("reward_points.list_by_user", err)
	}

	return domain.Page[domain.RewardPointEntry]{
		Items:    entries,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}
