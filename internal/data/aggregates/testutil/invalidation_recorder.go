package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/outcomes-backend/internal/data/aggregates"
)

// InvalidationRecorder keeps every report invalidation for assertions. Err,
// when set, is returned from every call.
type InvalidationRecorder struct {
	mu sync.Mutex

	Err     error
	courses []uint
	all     int
}

var _ aggregates.ReportInvalidator = (*InvalidationRecorder)(nil)

func (r *InvalidationRecorder) InvalidateCourse(_ context.Context, courseID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses = append(r.courses, courseID)
	return 0, r.Err
}

func (r *InvalidationRecorder) InvalidateAll(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all++
	return 0, r.Err
}

// Courses lists invalidated course ids in call order.
func (r *InvalidationRecorder) Courses() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.courses...)
}

func (r *InvalidationRecorder) All() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all
}
