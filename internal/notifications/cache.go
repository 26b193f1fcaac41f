package notifications

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	unreadKeyPrefix = "notif:unread:"
	unreadTTL       = 5 * time.Minute
)

// Cache keeps per-user unread counts in Redis so the 30-second badge polls do
// not hit Postgres. Strictly best-effort: every failure is treated as a miss
// and the short TTL bounds staleness if an invalidation is lost.
type Cache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewCache creates an unread-count cache.
func NewCache(rdb *redis.Client, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{rdb: rdb, logger: logger}
}

// GetUnread returns the cached unread count and whether it was present.
func (c *Cache) GetUnread(ctx context.Context, userID uuid.UUID) (int, bool) {
	val, err := c.rdb.Get(ctx, unreadKeyPrefix+userID.String()).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("unread cache get failed", zap.Error(err))
		}
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SetUnread stores the unread count for a user.
func (c *Cache) SetUnread(ctx context.Context, userID uuid.UUID, count int) {
	if err := c.rdb.Set(ctx, unreadKeyPrefix+userID.String(), count, unreadTTL).Err(); err != nil {
		c.logger.Debug("unread cache set failed", zap.Error(err))
	}
}

// Invalidate drops the cached count after a write that changed it.
func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, unreadKeyPrefix+userID.String()).Err(); err != nil {
		c.logger.Debug("unread cache del failed", zap.Error(err))
	}
}
