package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/repository"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "emr-dashboard:"
	scanBatch = 200
)

// ReportCache keeps computed coverage reports in Redis with a TTL.
// Keys are "report:{projectID}:..." as built by the report usecase.
type ReportCache struct {
	client redis.UniversalClient
	log    logger.Logger
}

var _ repository.ReportCache = (*ReportCache)(nil)

func NewReportCache(client redis.UniversalClient, log logger.Logger) *ReportCache {
	return &ReportCache{client: client, log: log.WithComponent("report_cache")}
}

func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return raw, true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// InvalidateProject deletes every cached report of a project.
func (c *ReportCache) InvalidateProject(ctx context.Context, projectID string) error {
	pattern := projectPattern(projectID)
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scanning %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("deleting cached reports: %w", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.log.Debug("project reports invalidated", zap.String("project_id", projectID), zap.Int("keys", deleted))
	return nil
}

func projectPattern(projectID string) string {
	return keyPrefix + "report:" + escapeGlob(projectID) + ":*"
}

// escapeGlob quotes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
