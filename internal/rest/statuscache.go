package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "gridd/internal/platform/redis"
	"gridd/internal/submitter"
)

const statusKeyPrefix = "gridd:batch_status:"

// statusCache keeps recently fetched batch statuses in redis so repeated polls
// against the same batch set skip the ledger round trip. Terminal and pending
// statuses alike expire after the TTL; correctness never depends on the cache.
type statusCache struct {
	client *platformredis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// newStatusCache returns nil when no redis client is configured; callers treat
// a nil cache as a permanent miss.
func newStatusCache(client *platformredis.Client, ttl time.Duration, log *slog.Logger) *statusCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &statusCache{client: client, ttl: ttl, log: log}
}

// get returns the cached statuses for the batch IDs, or ok=false unless every
// ID hits. Partial hits are treated as a miss so one ledger call refreshes the
// whole set.
func (c *statusCache) get(ctx context.Context, batchIDs []string) ([]submitter.BatchStatus, bool) {
	if c == nil || len(batchIDs) == 0 {
		return nil, false
	}

	keys := make([]string, len(batchIDs))
	for i, id := range batchIDs {
		keys[i] = statusKeyPrefix + id
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("status cache read failed", "error", err)
		return nil, false
	}

	statuses := make([]submitter.BatchStatus, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			return nil, false
		}
		var status submitter.BatchStatus
		if err := json.Unmarshal([]byte(raw), &status); err != nil {
			return nil, false
		}
		statuses = append(statuses, status)
	}
	return statuses, true
}

// put stores the statuses with the configured TTL. Failures are logged and
// swallowed.
func (c *statusCache) put(ctx context.Context, statuses []submitter.BatchStatus) {
	if c == nil || len(statuses) == 0 {
		return
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, status := range statuses {
			raw, err := json.Marshal(status)
			if err != nil {
				return err
			}
			pipe.SetEx(ctx, statusKeyPrefix+status.ID, raw, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.log.Warn("status cache write failed", "error", err)
	}
}
