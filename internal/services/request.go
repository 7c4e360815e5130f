package services

import (
	"context"
	"fmt"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/repository"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
	"github.com/google/uuid"
)

// FollowRequestService drives the send / cancel / accept / decline
// lifecycle. The repository supplies the atomicity; this layer validates
// input, attributes callers and emits the fire-and-forget notifications.
type FollowRequestService struct {
	requestRepo *repository.FollowRequestRepository
	followRepo  *repository.FollowRepository
	notifier    Notifier
	logger      *logger.Logger
}

func NewFollowRequestService(
	requestRepo *repository.FollowRequestRepository,
	followRepo *repository.FollowRepository,
	notifier Notifier,
	logger *logger.Logger,
) *FollowRequestService {
	return &FollowRequestService{
		requestRepo: requestRepo,
		followRepo:  followRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// Send creates a pending request plus the recipient's inbox item and
// returns the request id.
func (s *FollowRequestService) Send(ctx context.Context, fromID, toID string) (string, error) {
	from, to, err := parsePair(fromID, toID)
	if err != nil {
		return "", err
	}
	if from == to {
		return "", repository.NewWorkflowError(repository.CodeCannotFollowSelf, "cannot send a follow request to yourself")
	}

	requestID, err := s.requestRepo.Send(ctx, from, to)
	if err != nil {
		return "", err
	}

	s.notifier.Notify(queue.EventFollowRequestSent, queue.RelationshipEventData{
		FollowerID:   fromID,
		FollowingID:  toID,
		RequestID:    requestID,
		RecipientUID: toID,
	})

	s.logger.WithFields(map[string]interface{}{
		"from_uid":   fromID,
		"to_uid":     toID,
		"request_id": requestID,
	}).Info("Follow request sent")
	return requestID, nil
}

// Cancel withdraws a pending request. Caller must be the sender.
func (s *FollowRequestService) Cancel(ctx context.Context, fromID, toID, callerID string) error {
	from, to, err := parsePair(fromID, toID)
	if err != nil {
		return err
	}
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return fmt.Errorf("invalid caller ID: %w", err)
	}

	if err := s.requestRepo.Cancel(ctx, from, to, caller); err != nil {
		return err
	}

	s.notifier.Notify(queue.EventFollowRequestCanceled, queue.RelationshipEventData{
		FollowerID:   fromID,
		FollowingID:  toID,
		RequestID:    models.PairKey(from, to),
		RecipientUID: toID,
	})

	s.logger.WithFields(map[string]interface{}{
		"from_uid": fromID,
		"to_uid":   toID,
	}).Info("Follow request canceled")
	return nil
}

// Accept resolves a pending request and creates the follow edge. Caller
// must be the recipient. A retried accept on a resolved request fails
// with INVALID_STATUS rather than silently succeeding.
func (s *FollowRequestService) Accept(ctx context.Context, requestID, callerID string) error {
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return fmt.Errorf("invalid caller ID: %w", err)
	}

	if err := s.requestRepo.Accept(ctx, requestID, caller); err != nil {
		return err
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to reload accepted request for notification")
	} else if request != nil {
		s.notifier.Notify(queue.EventFollowRequestAccepted, queue.RelationshipEventData{
			FollowerID:   request.FromUID.String(),
			FollowingID:  request.ToUID.String(),
			RequestID:    requestID,
			RecipientUID: request.FromUID.String(),
		})
	}

	s.logger.WithField("request_id", requestID).Info("Follow request accepted")
	return nil
}

// Decline resolves a pending request without creating an edge. Caller
// must be the recipient.
func (s *FollowRequestService) Decline(ctx context.Context, requestID, callerID string) error {
	caller, err := uuid.Parse(callerID)
	if err != nil {
		return fmt.Errorf("invalid caller ID: %w", err)
	}

	if err := s.requestRepo.Decline(ctx, requestID, caller); err != nil {
		return err
	}

	s.logger.WithField("request_id", requestID).Info("Follow request declined")
	return nil
}

// GetRequestStatus returns the request status for the pair, or nil when no
// request document exists. Callers must check the status: a resolved row
// still exists after a decline and does not mean "pending".
func (s *FollowRequestService) GetRequestStatus(ctx context.Context, fromID, toID string) (*models.FollowRequestStatus, error) {
	from, to, err := parsePair(fromID, toID)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.Get(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, nil
	}
	return &request.Status, nil
}

func (s *FollowRequestService) IsFollowing(ctx context.Context, fromID, toID string) (bool, error) {
	from, to, err := parsePair(fromID, toID)
	if err != nil {
		return false, err
	}
	return s.followRepo.IsFollowing(ctx, from, to)
}
