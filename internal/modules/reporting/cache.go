package reporting

import (
	"context"
	"fmt"
	"time"
)

// ReportCache stores composed reports. Get reports false on a miss.
// DeleteMatching drops every key matching a glob pattern and returns how
// many were removed.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	DeleteMatching(ctx context.Context, pattern string) (int, error)
}

const courseReportPrefix = "outcomes:report:course:"

func CourseReportKey(courseID, setID, groupID uint) string {
	return fmt.Sprintf("%s%d:set:%d:group:%d", courseReportPrefix, courseID, setID, groupID)
}

// CourseReportPattern matches every cached report of one course.
func CourseReportPattern(courseID uint) string {
	return fmt.Sprintf("%s%d:*", courseReportPrefix, courseID)
}

// AllReportsPattern matches every cached course report.
const AllReportsPattern = courseReportPrefix + "*"

func (s Service) cacheEnabled() bool {
	return s.deps.Cache != nil && s.deps.CacheTTL > 0
}

func (s Service) cacheGet(ctx context.Context, key string, dst any) bool {
	if !s.cacheEnabled() {
		return false
	}
	hit, err := s.deps.Cache.Get(ctx, key, dst)
	if err != nil {
		s.deps.Log.Warn("report cache get failed", "key", key, "error", err)
		return false
	}
	s.deps.Metrics.IncReportCache(hit)
	return hit
}

func (s Service) cacheSet(ctx context.Context, key string, v any) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.deps.Cache.Set(ctx, key, v, s.deps.CacheTTL); err != nil {
		s.deps.Log.Warn("report cache set failed", "key", key, "error", err)
	}
}

// InvalidateCourse drops the cached reports of one course.
func (s Service) InvalidateCourse(ctx context.Context, courseID uint) (int, error) {
	return s.invalidate(ctx, CourseReportPattern(courseID))
}

// InvalidateAll drops every cached course report. Writes that cannot name
// the affected course (mappings, attempts, taxonomy) use it.
func (s Service) InvalidateAll(ctx context.Context) (int, error) {
	return s.invalidate(ctx, AllReportsPattern)
}

func (s Service) invalidate(ctx context.Context, pattern string) (int, error) {
	if !s.cacheEnabled() {
		return 0, nil
	}
	n, err := s.deps.Cache.DeleteMatching(ctx, pattern)
	if err != nil {
		return n, fmt.Errorf("invalidate %q: %w", pattern, err)
	}
	if n > 0 {
		s.deps.Log.Debug("report cache invalidated", "pattern", pattern, "keys", n)
	}
	return n, nil
}
