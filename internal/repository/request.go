package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FollowRequestRepository owns the follow request lifecycle. Each
// state-changing method is a single transaction covering the request row,
// the recipient's inbox items and, on acceptance, the follow edge and
// counters — a partially applied transition is never observable.
//
// Races on the same pair serialize on the pair-key primary key and on
// status-guarded updates: the losing writer of a concurrent accept/decline
// sees zero rows affected and gets INVALID_STATUS.
type FollowRequestRepository struct {
	db *gorm.DB
}

func NewFollowRequestRepository(db *gorm.DB) *FollowRequestRepository {
	return &FollowRequestRepository{db: db}
}

func (r *FollowRequestRepository) Get(ctx context.Context, fromUID, toUID uuid.UUID) (*models.FollowRequest, error) {
	return r.GetByID(ctx, models.PairKey(fromUID, toUID))
}

func (r *FollowRequestRepository) GetByID(ctx context.Context, requestID string) (*models.FollowRequest, error) {
	var request models.FollowRequest
	if err := r.db.WithContext(ctx).First(&request, "pair_key = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get follow request: %w", err)
	}
	return &request, nil
}

// Send writes a pending request plus an unread inbox item for the
// recipient. A resolved request row for the same pair is overwritten back
// to pending (re-request after decline); a pending one fails with
// DUPLICATE_REQUEST; an existing edge fails with ALREADY_FOLLOWING.
func (r *FollowRequestRepository) Send(ctx context.Context, fromUID, toUID uuid.UUID) (string, error) {
	pairKey := models.PairKey(fromUID, toUID)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var edgeCount int64
		if err := tx.Model(&models.FollowEdge{}).
			Where("pair_key = ?", pairKey).
			Count(&edgeCount).Error; err != nil {
			return fmt.Errorf("failed to check follow edge: %w", err)
		}
		if edgeCount > 0 {
			return NewWorkflowError(CodeAlreadyFollowing, "already following this user")
		}

		var existing models.FollowRequest
		err := tx.First(&existing, "pair_key = ?", pairKey).Error
		switch {
		case err == nil:
			if existing.Status == models.RequestPending {
				return NewWorkflowError(CodeDuplicateRequest, "a pending request already exists")
			}
			// Re-request after a resolved one: flip the same row back to
			// pending. The status guard makes a racing sender lose cleanly.
			result := tx.Model(&models.FollowRequest{}).
				Where("pair_key = ? AND status = ?", pairKey, existing.Status).
				Update("status", models.RequestPending)
			if result.Error != nil {
				return fmt.Errorf("failed to reopen follow request: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return NewWorkflowError(CodeDuplicateRequest, "a pending request already exists")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			request := &models.FollowRequest{
				PairKey: pairKey,
				FromUID: fromUID,
				ToUID:   toUID,
				Status:  models.RequestPending,
			}
			if err := tx.Create(request).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return NewWorkflowError(CodeDuplicateRequest, "a pending request already exists")
				}
				return fmt.Errorf("failed to create follow request: %w", err)
			}
		default:
			return fmt.Errorf("failed to get follow request: %w", err)
		}

		item := &models.InboxItem{
			ID:          uuid.New(),
			UserID:      toUID,
			Type:        models.InboxTypeFollowRequest,
			ReferenceID: pairKey,
			FromUID:     fromUID,
			Status:      models.InboxUnread,
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create inbox item: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return pairKey, nil
}

// Cancel deletes a pending request and its inbox items. Only the sender
// may cancel; a canceled pair is immediately re-sendable.
func (r *FollowRequestRepository) Cancel(ctx context.Context, fromUID, toUID, callerUID uuid.UUID) error {
	pairKey := models.PairKey(fromUID, toUID)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := getRequestForUpdate(tx, pairKey)
		if err != nil {
			return err
		}
		if request.FromUID != callerUID {
			return NewWorkflowError(CodePermissionDenied, "only the sender can cancel a request")
		}
		if request.Status != models.RequestPending {
			return NewWorkflowError(CodeInvalidStatus, "request is no longer pending")
		}

		result := tx.
			Where("pair_key = ? AND status = ?", pairKey, models.RequestPending).
			Delete(&models.FollowRequest{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete follow request: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return NewWorkflowError(CodeInvalidStatus, "request is no longer pending")
		}

		if err := tx.
			Where("reference_id = ? AND type = ?", pairKey, models.InboxTypeFollowRequest).
			Delete(&models.InboxItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete inbox items: %w", err)
		}
		return nil
	})
}

// Accept transitions a pending request to accepted and, in the same
// transaction, creates the follow edge, bumps both counters and marks the
// inbox items read. Deliberately not idempotent: a retried accept on an
// already-resolved request fails with INVALID_STATUS so counters can never
// be bumped twice.
func (r *FollowRequestRepository) Accept(ctx context.Context, requestID string, callerUID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := getRequestForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if request.ToUID != callerUID {
			return NewWorkflowError(CodePermissionDenied, "only the recipient can accept a request")
		}
		if request.Status != models.RequestPending {
			return NewWorkflowError(CodeInvalidStatus, "request is no longer pending")
		}

		if err := transitionRequest(tx, requestID, models.RequestAccepted); err != nil {
			return err
		}

		edge := &models.FollowEdge{
			PairKey:     requestID,
			FollowerID:  request.FromUID,
			FollowingID: request.ToUID,
		}
		if err := tx.Create(edge).Error; err != nil {
			// A direct follow can race the request workflow and create the
			// edge first. The accept still lands, but the counters already
			// account for the edge and must not move again.
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("failed to create follow edge: %w", err)
			}
		} else {
			if err := adjustFollowCounters(tx, request.FromUID, request.ToUID, 1); err != nil {
				return err
			}
		}

		return markInboxItemsRead(tx, requestID)
	})
}

// Decline transitions a pending request to declined and marks the inbox
// items read. No edge or counter change. Not idempotent, same as Accept.
func (r *FollowRequestRepository) Decline(ctx context.Context, requestID string, callerUID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := getRequestForUpdate(tx, requestID)
		if err != nil {
			return err
		}
		if request.ToUID != callerUID {
			return NewWorkflowError(CodePermissionDenied, "only the recipient can decline a request")
		}
		if request.Status != models.RequestPending {
			return NewWorkflowError(CodeInvalidStatus, "request is no longer pending")
		}

		if err := transitionRequest(tx, requestID, models.RequestDeclined); err != nil {
			return err
		}
		return markInboxItemsRead(tx, requestID)
	})
}

func getRequestForUpdate(tx *gorm.DB, pairKey string) (*models.FollowRequest, error) {
	var request models.FollowRequest
	if err := tx.First(&request, "pair_key = ?", pairKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewWorkflowError(CodeRequestNotFound, "follow request not found")
		}
		return nil, fmt.Errorf("failed to get follow request: %w", err)
	}
	return &request, nil
}

// transitionRequest flips a pending request to its resolved status. The
// status guard is the serialization point for racing accept/decline calls:
// exactly one writer moves the row, the other sees zero rows affected.
func transitionRequest(tx *gorm.DB, pairKey string, status models.FollowRequestStatus) error {
	result := tx.Model(&models.FollowRequest{}).
		Where("pair_key = ? AND status = ?", pairKey, models.RequestPending).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update follow request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewWorkflowError(CodeInvalidStatus, "request is no longer pending")
	}
	return nil
}

func markInboxItemsRead(tx *gorm.DB, referenceID string) error {
	if err := tx.Model(&models.InboxItem{}).
		Where("reference_id = ? AND type = ?", referenceID, models.InboxTypeFollowRequest).
		Update("status", models.InboxRead).Error; err != nil {
		return fmt.Errorf("failed to mark inbox items read: %w", err)
	}
	return nil
}
