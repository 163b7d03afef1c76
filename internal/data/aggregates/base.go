package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/outcomes-backend/internal/domain/aggregates"
	"github.com/yungbote/outcomes-backend/internal/observability"
	"github.com/yungbote/outcomes-backend/internal/platform/dbctx"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

// ReportInvalidator drops cached reports once a write has committed.
type ReportInvalidator interface {
	InvalidateCourse(ctx context.Context, courseID uint) (int, error)
	InvalidateAll(ctx context.Context) (int, error)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateCourse(context.Context, uint) (int, error) { return 0, nil }
func (noopInvalidator) InvalidateAll(context.Context) (int, error) { return 0, nil }

// BaseDeps is shared by every aggregate. Only DB is required; the rest
// default to a gorm runner, no hooks, no report cache, a nop logger and the
// wall clock.
type BaseDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Runner  TxRunner
	Hooks   Hooks
	Reports ReportInvalidator
	Now     func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Reports == nil {
		d.Reports = noopInvalidator{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

const statusSuccess = "success"

// executeWrite runs fn in one transaction under a span named op, maps its
// error to a domain code and reports the outcome to the hooks.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, op, attribute.String("aggregate.op", op))
	err := MapError(op, deps.Runner.InTx(ctx, fn))
	status := aggregateErrorStatus(err)
	span.SetAttributes(attribute.String("aggregate.status", status))
	observability.EndSpan(span, err)

	switch domainagg.CodeOf(err) {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeRetryable:
		deps.Hooks.IncRetry(op)
	}
	if err != nil && !domainagg.IsRecoverable(err) {
		deps.Log.Error("aggregate write failed", "op", op, "code", status, "error", err)
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return err
}

// dropCourseReports invalidates cached reports of the given courses after a
// commit. A cache failure is logged; the write already stands.
func (d BaseDeps) dropCourseReports(ctx context.Context, op string, courseIDs ...uint) {
	for _, id := range uniqueIDs(courseIDs) {
		if _, err := d.Reports.InvalidateCourse(ctx, id); err != nil {
			d.Log.Warn("report invalidation failed", "op", op, "course_id", id, "error", err)
		}
	}
}

// dropAllReports is dropCourseReports for writes that cannot name a course.
func (d BaseDeps) dropAllReports(ctx context.Context, op string) {
	if _, err := d.Reports.InvalidateAll(ctx); err != nil {
		d.Log.Warn("report invalidation failed", "op", op, "error", err)
	}
}

// aggregateErrorStatus is the metrics label for err: "success" or its code.
func aggregateErrorStatus(err error) string {
	if err == nil {
		return statusSuccess
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	return string(domainagg.CodeOf(MapError("", err)))
}
