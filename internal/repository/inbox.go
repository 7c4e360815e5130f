package repository

import (
	"context"
	"fmt"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InboxRepository struct {
	db *gorm.DB
}

func NewInboxRepository(db *gorm.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// ListUnread returns the recipient's unread items, newest first.
func (r *InboxRepository) ListUnread(ctx context.Context, userID uuid.UUID, limit int) ([]*models.InboxItem, error) {
	var items []*models.InboxItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.InboxUnread).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list unread inbox items: %w", err)
	}
	return items, nil
}

func (r *InboxRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InboxItem{}).
		Where("user_id = ? AND status = ?", userID, models.InboxUnread).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread inbox items: %w", err)
	}
	return count, nil
}
