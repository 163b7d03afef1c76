package aggregates

import (
	"time"

	"github.com/yungbote/outcomes-backend/internal/observability"
	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

// Hooks receives one ObserveOperation per aggregate write plus a counter bump
// when the write ended in a conflict or a retryable failure.
type Hooks interface {
	ObserveOperation(op, status string, dur time.Duration)
	IncConflict(op string)
	IncRetry(op string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type metricsHooks struct {
	metrics *observability.Metrics
	log     *logger.Logger
	slow    time.Duration
}

// NewObservabilityHooks records aggregate writes on metrics and logs conflicts,
// retries and writes slower than slow. A zero slow disables the slow log.
func NewObservabilityHooks(metrics *observability.Metrics, log *logger.Logger, slow time.Duration) Hooks {
	if metrics == nil && log == nil {
		return noopHooks{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &metricsHooks{metrics: metrics, log: log.With("component", "AggregateHooks"), slow: slow}
}

func (h *metricsHooks) ObserveOperation(op, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(op, status, dur)
	if h.slow > 0 && dur >= h.slow {
		h.log.Warn("slow aggregate write", "op", op, "status", status, "duration_ms", dur.Milliseconds())
	}
}

func (h *metricsHooks) IncConflict(op string) {
	h.metrics.IncAggregateConflict(op)
	h.log.Debug("aggregate conflict", "op", op)
}

func (h *metricsHooks) IncRetry(op string) {
	h.metrics.IncAggregateRetry(op)
	h.log.Debug("aggregate retryable failure", "op", op)
}

// MultiHooks fans every call out to each non-nil hook in order.
func MultiHooks(hooks ...Hooks) Hooks {
	var out multiHooks
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	switch len(out) {
	case 0:
		return noopHooks{}
	case 1:
		return out[0]
	}
	return out
}

type multiHooks []Hooks

func (m multiHooks) ObserveOperation(op, status string, dur time.Duration) {
	for _, h := range m {
		h.ObserveOperation(op, status, dur)
	}
}

func (m multiHooks) IncConflict(op string) {
	for _, h := range m {
		h.IncConflict(op)
	}
}

func (m multiHooks) IncRetry(op string) {
	for _, h := range m {
		h.IncRetry(op)
	}
}
