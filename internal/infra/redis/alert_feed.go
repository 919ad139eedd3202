package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hawk7227/dropshipping-management-sub008/internal/core/domain"
)

const feedKey = "ops:alert_feed"

// AlertFeed publishes alerts to a Redis sorted set scored by creation time.
type AlertFeed struct {
	rdb *redis.Client

	// retention caps how many alerts the feed keeps; oldest trimmed first.
	retention int64
}

// NewAlertFeed creates an alert feed with the given retention cap.
func NewAlertFeed(client *Client, retention int) *AlertFeed {
	if retention <= 0 {
		retention = 1000
	}
	return &AlertFeed{rdb: client.rdb, retention: int64(retention)}
}

// Publish pushes an alert onto the feed and trims to retention.
func (f *AlertFeed) Publish(ctx context.Context, alert *domain.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	if err := f.rdb.ZAdd(ctx, feedKey, redis.Z{
		Score:  float64(alert.CreatedAt.Unix()),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}

	// Keep only the newest `retention` entries.
	if err := f.rdb.ZRemRangeByRank(ctx, feedKey, 0, -(f.retention + 1)).Err(); err != nil {
		return fmt.Errorf("zremrangebyrank failed: %w", err)
	}
	return nil
}

// Recent returns up to n most recent alerts, newest first.
func (f *AlertFeed) Recent(ctx context.Context, n int64) ([]*domain.Alert, error) {
	members, err := f.rdb.ZRevRange(ctx, feedKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	alerts := make([]*domain.Alert, 0, len(members))
	for _, m := range members {
		var a domain.Alert
		if err := json.Unmarshal([]byte(m), &a); err != nil {
			return nil, fmt.Errorf("invalid alert in feed: %w", err)
		}
		alerts = append(alerts, &a)
	}
	return alerts, nil
}
