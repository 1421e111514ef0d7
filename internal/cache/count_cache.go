package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/observability"
)

const countKeyPrefix = "ticket_counts::"

// CategoryAll disables the category predicate for count lookups.
const CategoryAll = "ALL"

// CountCache is the cache-aside layer for per-user active/resolved ticket
// counts. Keys are userID::ROLE::CATEGORY; staleness is bounded by the TTL
// and by explicit eviction on ticket mutation. Redis failures degrade to a
// miss so requests never fail on the cache path.
type CountCache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewCountCache builds the cache layer.
func NewCountCache(client *redis.Client, ttl time.Duration, logger *zap.Logger, metrics *observability.Metrics) *CountCache {
	return &CountCache{client: client, ttl: ttl, logger: logger, metrics: metrics}
}

// Get returns the cached counts for the triple, if present.
func (c *CountCache) Get(ctx context.Context, userID string, role domain.Role, category string) (map[string]int64, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, countKey(userID, role, category)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("count cache read failed", zap.Error(err))
		}
		c.metrics.RecordCacheMiss()
		return nil, false
	}

	var counts map[string]int64
	if err := json.Unmarshal([]byte(val), &counts); err != nil {
		c.logger.Warn("count cache entry corrupt", zap.Error(err))
		c.metrics.RecordCacheMiss()
		return nil, false
	}
	c.metrics.RecordCacheHit()
	return counts, true
}

// Set stores counts under the triple with the configured TTL. Concurrent
// misses may both write; last writer wins.
func (c *CountCache) Set(ctx context.Context, userID string, role domain.Role, category string, counts map[string]int64) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(counts)
	if err != nil {
		c.logger.Warn("count cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, countKey(userID, role, category), data, c.ttl).Err(); err != nil {
		c.logger.Warn("count cache write failed", zap.Error(err))
	}
}

// Invalidate evicts the count entries a ticket mutation may have changed:
// for each affected user, both roles, the ticket's category and the ALL
// bucket.
func (c *CountCache) Invalidate(ctx context.Context, category domain.TicketCategory, userIDs ...string) error {
	if c == nil || c.client == nil {
		return nil
	}
	keys := make([]string, 0, len(userIDs)*4)
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		for _, role := range []domain.Role{domain.RoleCustomer, domain.RoleAgent} {
			keys = append(keys,
				countKey(userID, role, string(category)),
				countKey(userID, role, CategoryAll),
			)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("count cache eviction failed", zap.Error(err))
		return err
	}
	return nil
}

func countKey(userID string, role domain.Role, category string) string {
	return fmt.Sprintf("%s%s::%s::%s", countKeyPrefix, userID, role, strings.ToUpper(category))
}
