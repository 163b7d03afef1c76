package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/outcomes-backend/internal/platform/logger"
)

const tracerName = "github.com/yungbote/outcomes-backend"

// StdoutEndpoint as the tracing endpoint prints spans instead of shipping them.
const StdoutEndpoint = "stdout"

type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Version     string
	// Endpoint is an OTLP/HTTP host:port or StdoutEndpoint.
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// Tracing owns the installed tracer provider. A nil *Tracing is valid and
// shuts down as a no-op.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

// InitOTel installs a global tracer provider for cfg. Disabled tracing
// returns a nil *Tracing and leaves the global no-op provider in place.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) (*Tracing, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	t := newTracing(ctx, cfg, exporter)
	otel.SetTracerProvider(t.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if log != nil {
		log.Info("tracing enabled", "service", serviceName(cfg), "endpoint", cfg.Endpoint, "sample_ratio", sampleRatio(cfg.SampleRatio))
	}
	return t, nil
}

func newTracing(ctx context.Context, cfg OtelConfig, exporter sdktrace.SpanExporter) *Tracing {
	// resource.New only fails on detector errors; the attributes are static.
	res, _ := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(serviceName(cfg)),
		semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
	))
	return &Tracing{provider: sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(cfg.SampleRatio)))),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)}
}

func newExporter(ctx context.Context, cfg OtelConfig) (sdktrace.SpanExporter, error) {
	switch endpoint := strings.TrimSpace(cfg.Endpoint); endpoint {
	case "":
		return nil, fmt.Errorf("tracing.endpoint required when tracing is enabled")
	case StdoutEndpoint:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// StartSpan opens a span on the global tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func serviceName(cfg OtelConfig) string {
	if s := strings.TrimSpace(cfg.ServiceName); s != "" {
		return s
	}
	return "outcomes"
}

// sampleRatio treats an unset ratio as "sample everything".
func sampleRatio(v float64) float64 {
	if v <= 0 || v > 1 {
		return 1
	}
	return v
}
