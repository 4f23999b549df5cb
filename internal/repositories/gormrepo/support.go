package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/platform/database"
	"github.com/clickbazaar/api/internal/repositories"
)

// SupportRepository persists support chat messages.
type SupportRepository struct {
	db *gorm.DB
}

// Insert implements repositories.SupportRepository.
func (r *SupportRepository) Insert(ctx context.Context, message domain.SupportMessage) error {
	if err := database.Handle(ctx, r.db).Create(&message).Error; err != nil {
		return translate("support.insert", err)
	}
	return nil
}

// ListThread implements repositories.SupportRepository. Messages come back
// newest first so the most recent page loads without an offset.
func (r *SupportRepository) ListThread(ctx context.Context, userID string, page domain.Pagination) (domain.Page[domain.SupportMessage], error) {
	query := database.Handle(ctx, r.db).Model(&domain.SupportMessage{}).
		Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return domain.Page[domain.SupportMessage]{}, translate("support.list_thread", err)
	}

	var messages []domain.SupportMessage
	err := query.
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&messages).Error
	if err != nil {
		return domain.Page[domain.SupportMessage]{}, translate("support.list_thread", err)
	}

	return domain.Page[domain.SupportMessage]{
		Items:    messages,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// ListThreads implements repositories.SupportRepository. One row per user,
// carrying the latest message and the count of customer messages an agent
// has not read.
func (r *SupportRepository) ListThreads(ctx context.Context, filter repositories.SupportThreadFilter, page domain.Pagination) (domain.Page[domain.SupportThread], error) {
	base := database.Handle(ctx, r.db).
		Table("support_messages sm").
		Select(`sm.user_id AS user_id,
			u.email AS user_email,
			u.full_name AS user_full_name,
			sm.body AS last_message,
			sm.sender AS last_sender,
			sm.created_at AS last_message_at,
			(SELECT COUNT(*) FROM support_messages x
				WHERE x.user_id = sm.user_id AND x.sender = ? AND x.is_read = FALSE) AS unread_count`,
			domain.SupportSenderCustomer).
		Joins("JOIN users u ON u.id = sm.user_id").
		Where(`sm.created_at = (SELECT MAX(y.created_at) FROM support_messages y WHERE y.user_id = sm.user_id)`)

	if filter.UserID != "" {
		base = base.Where("sm.user_id = ?", filter.UserID)
	}
	if filter.UnreadOnly {
		base = base.Where(`EXISTS (SELECT 1 FROM support_messages z
			WHERE z.user_id = sm.user_id AND z.sender = ? AND z.is_read = FALSE)`,
			domain.SupportSenderCustomer)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return domain.Page[domain.SupportThread]{}, translate("support.list_threads", err)
	}

	var threads []domain.SupportThread
	err := base.
		Order("sm.created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Scan(&threads).Error
	if err != nil {
		return domain.Page[domain.SupportThread]{}, translate("support.list_threads", err)
	}

	return domain.Page[domain.SupportThread]{
		Items:    threads,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// MarkRead implements repositories.SupportRepository. Reading a thread marks
// the counterpart's messages, not the reader's own.
func (r *SupportRepository) MarkRead(ctx context.Context, userID string, reader domain.SupportSender) error {
	counterpart := domain.SupportSenderCustomer
	if reader == domain.SupportSenderCustomer {
		counterpart = domain.SupportSenderAgent
	}
	err := database.Handle(ctx, r.db).Model(&domain.SupportMessage{}).
		Where("user_id = ? AND sender = ? AND is_read = ?", userID, counterpart, false).
		Update("is_read", true).Error
	if err != nil {
		return translate("support.mark_read", err)
	}
	return nil
}
