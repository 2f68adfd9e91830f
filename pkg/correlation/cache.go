package correlation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hepascope/platform/pkg/common/logger"
	"github.com/hepascope/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

var cacheTimeframes = []string{"all", "3m", "6m", "1y"}

// Cache memoizes correlation passes in redis, keyed by user and timeframe.
// Cache errors never surface to callers; a broken cache just means every
// pass recomputes.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(userID, timeframe string) string {
	return fmt.Sprintf("correlation:%s:%s", userID, timeframe)
}

func (c *Cache) Get(ctx context.Context, userID, timeframe string) ([]models.CorrelationRecord, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, cacheKey(userID, timeframe)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).Debug("correlation cache read failed")
		}
		return nil, false
	}
	var records []models.CorrelationRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		logger.Log.WithError(err).Debug("correlation cache entry corrupt")
		return nil, false
	}
	return records, true
}

func (c *Cache) Set(ctx context.Context, userID, timeframe string, records []models.CorrelationRecord) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(userID, timeframe), payload, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Debug("correlation cache write failed")
	}
}

// InvalidateUser drops every cached timeframe for a user. Called by the
// ingest path after new metrics land.
func (c *Cache) InvalidateUser(ctx context.Context, userID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	keys := make([]string, 0, len(cacheTimeframes))
	for _, tf := range cacheTimeframes {
		keys = append(keys, cacheKey(userID, tf))
	}
	return c.client.Del(ctx, keys...).Err()
}
