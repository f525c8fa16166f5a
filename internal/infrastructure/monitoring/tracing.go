package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/pkg/logger"
)

// TracingManager wraps the OpenTelemetry tracer provider. When tracing is
// disabled it hands out the global no-op tracer so call sites never branch.
type TracingManager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	logger   logger.Logger
}

// NewTracingManager sets up the Jaeger exporter and the global provider.
func NewTracingManager(cfg *config.TracingConfig, log logger.Logger) (*TracingManager, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "portauth"
	}

	if !cfg.Enabled {
		return &TracingManager{
			tracer: otel.Tracer(serviceName),
			logger: log,
		}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(cfg.JaegerEndpoint),
	))
	if err != nil {
		return nil, fmt.Errorf("creating jaeger exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tracing resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(context.Background(), "tracing initialized",
		logger.Fields{"endpoint": cfg.JaegerEndpoint, "service_name": serviceName})

	return &TracingManager{
		tracer:   provider.Tracer(serviceName),
		provider: provider,
		logger:   log,
	}, nil
}

// StartSpan begins a span under the current trace.
func (tm *TracingManager) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tm.tracer.Start(ctx, name, opts...)
}

// RecordError records err on the current span and marks it failed.
func (tm *TracingManager) RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes attaches attributes to the current span.
func (tm *TracingManager) SetSpanAttributes(ctx context.Context, attrs map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	for key, value := range attrs {
		span.SetAttributes(toAttribute(key, value))
	}
}

// TraceID returns the current trace id, or "" outside a trace.
func (tm *TracingManager) TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// Shutdown flushes and stops the provider.
func (tm *TracingManager) Shutdown(ctx context.Context) error {
	if tm.provider == nil {
		return nil
	}
	return tm.provider.Shutdown(ctx)
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
