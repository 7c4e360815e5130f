package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FollowRepository owns the follows table and the denormalized follower /
// following counters on users. Every mutation that touches an edge adjusts
// the two affected counters in the same transaction; counters are only ever
// moved with an atomic SQL increment, never read-modify-write.
type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Follow creates the edge and bumps both counters in one transaction.
// Idempotent: if the edge already exists the call is a no-op and reports
// created=false, leaving the counters untouched.
func (r *FollowRepository) Follow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := &models.FollowEdge{
			PairKey:     models.PairKey(followerID, followingID),
			FollowerID:  followerID,
			FollowingID: followingID,
		}
		if err := tx.Create(edge).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return fmt.Errorf("failed to create follow edge: %w", err)
		}
		if err := adjustFollowCounters(tx, followerID, followingID, 1); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Unfollow deletes the edge and decrements both counters in one
// transaction. Idempotent: a missing edge is a no-op and the counters are
// never decremented below their true value.
func (r *FollowRepository) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("pair_key = ?", models.PairKey(followerID, followingID)).
			Delete(&models.FollowEdge{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete follow edge: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := adjustFollowCounters(tx, followerID, followingID, -1); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("pair_key = ?", models.PairKey(followerID, followingID)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check follow status: %w", err)
	}
	return count > 0, nil
}

func (r *FollowRepository) GetFollowingIDs(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return ids, nil
}

func (r *FollowRepository) GetFollowerIDs(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("following_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return ids, nil
}

// ListFollowingPaged pages through a user's following set with a keyset
// cursor ordered by (created_at DESC, pair_key DESC). The pair key
// tiebreaker keeps page boundaries stable under concurrent inserts.
func (r *FollowRepository) ListFollowingPaged(ctx context.Context, userID uuid.UUID, pageSize int, cursor string) ([]*models.FollowEdge, string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FollowEdge{}).
		Where("follower_id = ?", userID)

	if cursor != "" {
		createdAt, pairKey, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		query = query.Where(
			"created_at < ? OR (created_at = ? AND pair_key < ?)",
			createdAt, createdAt, pairKey,
		)
	}

	var edges []*models.FollowEdge
	if err := query.
		Order("created_at DESC").
		Order("pair_key DESC").
		Limit(pageSize).
		Find(&edges).Error; err != nil {
		return nil, "", fmt.Errorf("failed to list following page: %w", err)
	}

	nextCursor := ""
	if len(edges) == pageSize {
		last := edges[len(edges)-1]
		nextCursor = encodeCursor(last.CreatedAt, last.PairKey)
	}
	return edges, nextCursor, nil
}

func adjustFollowCounters(tx *gorm.DB, followerID, followingID uuid.UUID, delta int64) error {
	if err := tx.Model(&models.User{}).
		Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to update following count: %w", err)
	}
	if err := tx.Model(&models.User{}).
		Where("id = ?", followingID).
		UpdateColumn("followers_count", gorm.Expr("followers_count + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to update followers count: %w", err)
	}
	return nil
}

func encodeCursor(createdAt time.Time, pairKey string) string {
	raw := strconv.FormatInt(createdAt.UnixNano(), 10) + "|" + pairKey
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid cursor format")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	return time.Unix(0, nanos), parts[1], nil
}
