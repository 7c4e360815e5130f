package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/cache"
	"github.com/Kimsuncheol/AI-powered-forum-sub000/pkg/logger"
)

// RedisStatusCache stores resolved relationship statuses with a short TTL.
// Cache errors are logged and swallowed: the store stays authoritative.
type RedisStatusCache struct {
	redis  *cache.RedisClient
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedisStatusCache(redis *cache.RedisClient, ttl time.Duration, logger *logger.Logger) *RedisStatusCache {
	return &RedisStatusCache{
		redis:  redis,
		ttl:    ttl,
		logger: logger,
	}
}

func StatusCacheKey(viewerID, targetID string) string {
	return fmt.Sprintf("relstatus:%s:%s", viewerID, targetID)
}

func (c *RedisStatusCache) Get(ctx context.Context, viewerID, targetID string) (RelationshipStatus, bool) {
	value, err := c.redis.Get(ctx, StatusCacheKey(viewerID, targetID))
	if err != nil {
		if !cache.IsMiss(err) {
			c.logger.WithError(err).Debug("Status cache read failed")
		}
		return "", false
	}
	return RelationshipStatus(value), true
}

func (c *RedisStatusCache) Set(ctx context.Context, viewerID, targetID string, status RelationshipStatus) {
	if err := c.redis.Set(ctx, StatusCacheKey(viewerID, targetID), string(status), c.ttl); err != nil {
		c.logger.WithError(err).Debug("Status cache write failed")
	}
}

func (c *RedisStatusCache) Invalidate(ctx context.Context, viewerID, targetID string) {
	if err := c.redis.Delete(ctx, StatusCacheKey(viewerID, targetID)); err != nil {
		c.logger.WithError(err).Debug("Status cache invalidation failed")
	}
}
