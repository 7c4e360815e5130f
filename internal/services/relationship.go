package services

import (
	"context"
	"fmt"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/config"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/repository"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/queue"
	"github.com/google/uuid"
)

// RelationshipService owns direct follow edges: the no-request follow and
// unfollow path, existence checks and follower/following listings.
type RelationshipService struct {
	followRepo *repository.FollowRepository
	userRepo   *repository.UserRepository
	notifier   Notifier
	cfg        *config.GraphConfig
	logger     *logger.Logger
}

func NewRelationshipService(
	followRepo *repository.FollowRepository,
	userRepo *repository.UserRepository,
	notifier Notifier,
	cfg *config.GraphConfig,
	logger *logger.Logger,
) *RelationshipService {
	return &RelationshipService{
		followRepo: followRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Follow creates the edge and adjusts both counters atomically. Idempotent:
// following an already-followed user changes nothing and raises nothing.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followingID string) error {
	follower, following, err := parsePair(followerID, followingID)
	if err != nil {
		return err
	}
	if follower == following {
		return repository.NewWorkflowError(repository.CodeCannotFollowSelf, "cannot follow yourself")
	}

	created, err := s.followRepo.Follow(ctx, follower, following)
	if err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	if !created {
		return nil
	}

	s.notifier.Notify(queue.EventFollowCreated, queue.RelationshipEventData{
		FollowerID:   followerID,
		FollowingID:  followingID,
		RecipientUID: followingID,
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  followerID,
		"following_id": followingID,
	}).Info("User followed")
	return nil
}

// Unfollow removes the edge and adjusts both counters atomically.
// Idempotent: unfollowing a non-followed user is a no-op.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, followingID string) error {
	follower, following, err := parsePair(followerID, followingID)
	if err != nil {
		return err
	}

	removed, err := s.followRepo.Unfollow(ctx, follower, following)
	if err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	if !removed {
		return nil
	}

	s.notifier.Notify(queue.EventFollowDeleted, queue.RelationshipEventData{
		FollowerID:   followerID,
		FollowingID:  followingID,
		RecipientUID: followingID,
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  followerID,
		"following_id": followingID,
	}).Info("User unfollowed")
	return nil
}

func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	follower, following, err := parsePair(followerID, followingID)
	if err != nil {
		return false, err
	}
	return s.followRepo.IsFollowing(ctx, follower, following)
}

// GetFollowers resolves the newest followers of a user to profiles.
// Deleted users are filtered out, never failing the list.
func (s *RelationshipService) GetFollowers(ctx context.Context, userID string, limit int) ([]*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	ids, err := s.followRepo.GetFollowerIDs(ctx, id, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return s.userRepo.GetMany(ctx, ids)
}

func (s *RelationshipService) GetFollowing(ctx context.Context, userID string, limit int) ([]*models.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	ids, err := s.followRepo.GetFollowingIDs(ctx, id, s.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return s.userRepo.GetMany(ctx, ids)
}

// GetFanoutFollowerIDs is the bounded follower listing used by feed
// fan-out. Raw ids, tighter cap than the list views.
func (s *RelationshipService) GetFanoutFollowerIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return s.followRepo.GetFollowerIDs(ctx, id, s.cfg.FanoutListLimit)
}

type FollowingPage struct {
	Edges      []*models.FollowEdge `json:"edges"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

func (s *RelationshipService) ListFollowingPage(ctx context.Context, userID string, pageSize int, cursor string) (*FollowingPage, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	if pageSize < 1 || pageSize > s.cfg.PageSize {
		pageSize = s.cfg.PageSize
	}

	edges, nextCursor, err := s.followRepo.ListFollowingPaged(ctx, id, pageSize, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to list following page: %w", err)
	}
	return &FollowingPage{Edges: edges, NextCursor: nextCursor}, nil
}

func (s *RelationshipService) clampLimit(limit int) int {
	if limit < 1 || limit > s.cfg.ViewListLimit {
		return s.cfg.ViewListLimit
	}
	return limit
}

func parsePair(firstID, secondID string) (uuid.UUID, uuid.UUID, error) {
	first, err := uuid.Parse(firstID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user ID %q: %w", firstID, err)
	}
	second, err := uuid.Parse(secondID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user ID %q: %w", secondID, err)
	}
	return first, second, nil
}
