package services

import (
	"context"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
)

// RelationshipStatus is the single status value the UI consumes.
type RelationshipStatus string

const (
	StatusSelf         RelationshipStatus = "SELF"
	StatusFollowing    RelationshipStatus = "FOLLOWING"
	StatusRequested    RelationshipStatus = "REQUESTED"
	StatusNotFollowing RelationshipStatus = "NOT_FOLLOWING"
)

// StatusResult carries the resolved status. Degraded marks a fallback
// answer produced while the store was unreachable, so the UI can
// distinguish "confirmed not following" from "unknown".
type StatusResult struct {
	Status   RelationshipStatus `json:"status"`
	Degraded bool               `json:"degraded,omitempty"`
}

// StatusCache caches resolved statuses per (viewer, target) pair. Cache
// failures are invisible to callers; a broken cache only costs reads.
type StatusCache interface {
	Get(ctx context.Context, viewerID, targetID string) (RelationshipStatus, bool)
	Set(ctx context.Context, viewerID, targetID string, status RelationshipStatus)
	Invalidate(ctx context.Context, viewerID, targetID string)
}

// RelationshipStatusService is the composition façade over the edge store
// and the request workflow. It holds no persistent state of its own.
type RelationshipStatusService struct {
	relationships *RelationshipService
	requests      *FollowRequestService
	cache         StatusCache
	logger        *logger.Logger
}

func NewRelationshipStatusService(
	relationships *RelationshipService,
	requests *FollowRequestService,
	cache StatusCache,
	logger *logger.Logger,
) *RelationshipStatusService {
	return &RelationshipStatusService{
		relationships: relationships,
		requests:      requests,
		cache:         cache,
		logger:        logger,
	}
}

// Status resolves the relationship between viewer and target. The edge is
// checked before the request: an edge can exist without a resolved request
// (direct follow path) and must win. Store failures degrade to
// NOT_FOLLOWING with the Degraded flag set instead of failing the caller.
func (s *RelationshipStatusService) Status(ctx context.Context, viewerID, targetID string) StatusResult {
	if viewerID == targetID {
		return StatusResult{Status: StatusSelf}
	}

	if s.cache != nil {
		if status, ok := s.cache.Get(ctx, viewerID, targetID); ok {
			return StatusResult{Status: status}
		}
	}

	following, err := s.relationships.IsFollowing(ctx, viewerID, targetID)
	if err != nil {
		s.logger.WithError(err).Warn("Degraded relationship status read")
		return StatusResult{Status: StatusNotFollowing, Degraded: true}
	}
	if following {
		return s.resolved(ctx, viewerID, targetID, StatusFollowing)
	}

	requestStatus, err := s.requests.GetRequestStatus(ctx, viewerID, targetID)
	if err != nil {
		s.logger.WithError(err).Warn("Degraded relationship status read")
		return StatusResult{Status: StatusNotFollowing, Degraded: true}
	}
	if requestStatus != nil && *requestStatus == models.RequestPending {
		return s.resolved(ctx, viewerID, targetID, StatusRequested)
	}

	return s.resolved(ctx, viewerID, targetID, StatusNotFollowing)
}

// RequestFollow sends a follow request on behalf of the viewer and moves
// the cached status to REQUESTED; on failure the cached entry is dropped
// so the next read reflects the store.
func (s *RelationshipStatusService) RequestFollow(ctx context.Context, viewerID, targetID string) (string, error) {
	requestID, err := s.requests.Send(ctx, viewerID, targetID)
	if err != nil {
		s.invalidate(ctx, viewerID, targetID)
		return "", err
	}
	s.store(ctx, viewerID, targetID, StatusRequested)
	return requestID, nil
}

// CancelRequest withdraws the viewer's pending request.
func (s *RelationshipStatusService) CancelRequest(ctx context.Context, viewerID, targetID string) error {
	if err := s.requests.Cancel(ctx, viewerID, targetID, viewerID); err != nil {
		s.invalidate(ctx, viewerID, targetID)
		return err
	}
	s.store(ctx, viewerID, targetID, StatusNotFollowing)
	return nil
}

// Unfollow removes the viewer's edge to the target.
func (s *RelationshipStatusService) Unfollow(ctx context.Context, viewerID, targetID string) error {
	if err := s.relationships.Unfollow(ctx, viewerID, targetID); err != nil {
		s.invalidate(ctx, viewerID, targetID)
		return err
	}
	s.store(ctx, viewerID, targetID, StatusNotFollowing)
	return nil
}

func (s *RelationshipStatusService) resolved(ctx context.Context, viewerID, targetID string, status RelationshipStatus) StatusResult {
	s.store(ctx, viewerID, targetID, status)
	return StatusResult{Status: status}
}

func (s *RelationshipStatusService) store(ctx context.Context, viewerID, targetID string, status RelationshipStatus) {
	if s.cache != nil {
		s.cache.Set(ctx, viewerID, targetID, status)
	}
}

func (s *RelationshipStatusService) invalidate(ctx context.Context, viewerID, targetID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, viewerID, targetID)
	}
}
