package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/outcomes-backend/internal/config"
	"github.com/yungbote/outcomes-backend/internal/modules/reporting"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

func TestReportCacheRoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	c, err := NewReportCache(logger.Nop(), config.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewReportCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	key := reporting.CourseReportKey(424242, 1, 0)
	in := reporting.CourseReport{CourseID: 424242, SetID: 1, Users: 3}
	if err := c.Set(ctx, key, in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var out reporting.CourseReport
	hit, err := c.Get(ctx, key, &out)
	if err != nil || !hit || out.Users != 3 {
		t.Fatalf("Get: hit=%v out=%+v err=%v", hit, out, err)
	}
	if n, err := c.DeleteMatching(ctx, reporting.CourseReportPattern(424242)); err != nil || n != 1 {
		t.Fatalf("DeleteMatching: n=%d err=%v", n, err)
	}
	hit, err = c.Get(ctx, key, &out)
	if err != nil || hit {
		t.Fatalf("after invalidate: hit=%v err=%v", hit, err)
	}
}

func TestNewReportCacheRequiresAddr(t *testing.T) {
	if _, err := NewReportCache(logger.Nop(), config.RedisConfig{}); err == nil {
		t.Fatalf("want error without addr")
	}
}
