package services

import (
	"context"
	"fmt"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/repository"
	"github.com/google/uuid"
)

const defaultInboxLimit = 50

type InboxService struct {
	inboxRepo *repository.InboxRepository
}

func NewInboxService(inboxRepo *repository.InboxRepository) *InboxService {
	return &InboxService{inboxRepo: inboxRepo}
}

// GetUnreadItems returns the user's actionable notifications, newest
// first. Every unread item references a still-pending follow request; the
// workflow resolves items in the same transaction as the request, so
// nothing stale can appear here.
func (s *InboxService) GetUnreadItems(ctx context.Context, userID string) ([]*models.InboxItem, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return s.inboxRepo.ListUnread(ctx, id, defaultInboxLimit)
}

func (s *InboxService) CountUnread(ctx context.Context, userID string) (int64, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %w", err)
	}
	return s.inboxRepo.CountUnread(ctx, id)
}
