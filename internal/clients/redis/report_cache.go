package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/outcomes-backend/internal/config"
	"github.com/yungbote/outcomes-backend/internal/modules/reporting"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

// ReportCache keeps composed reports as JSON values with a TTL.
type ReportCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

var _ reporting.ReportCache = (*ReportCache)(nil)

func NewReportCache(log *logger.Logger, cfg config.RedisConfig) (*ReportCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &ReportCache{
		log: log.With("service", "RedisReportCache"),
		rdb: rdb,
	}, nil
}

func (c *ReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A value we cannot decode is treated as a miss and dropped.
		c.log.Warn("dropping undecodable report", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// DeleteMatching drops every key matching pattern, walking it with SCAN.
func (c *ReportCache) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	n := 0
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return n, err
		}
		n++
	}
	return n, iter.Err()
}

func (c *ReportCache) Close() error {
	return c.rdb.Close()
}
