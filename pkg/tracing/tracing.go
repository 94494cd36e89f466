// Package tracing wires OpenTelemetry tracing for the service. When tracing
// is disabled the global no-op provider stays in place and StartSpan costs
// next to nothing.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName identifies spans created by this service.
const instrumentationName = "github.com/okian/salary-insight"

const shutdownTimeout = 10 * time.Second

// Common attribute keys.
const (
	AttrStage       = attribute.Key("pipeline.stage")
	AttrRecords     = attribute.Key("pipeline.records")
	AttrModelKind   = attribute.Key("model.kind")
	AttrExplainer   = attribute.Key("attribution.method")
	AttrErrorKind   = attribute.Key("error.kind")
	AttrRoute       = attribute.Key("http.route")
	AttrStatusCode  = attribute.Key("http.status_code")
	attrServiceName = attribute.Key("service.name")
)

// Config holds tracing configuration.
type Config struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64 // 0.0 to 1.0
}

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// Init installs an OTLP/gRPC tracer provider as the global provider. With
// tracing disabled it returns a no-op shutdown.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrServiceName.String(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := NewProvider(cfg.SampleRate,
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// NewProvider builds a tracer provider sampling at rate, honouring the
// parent's decision.
func NewProvider(rate float64, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	opts = append(opts, sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))))
	return sdktrace.NewTracerProvider(opts...)
}

// StartSpan starts a span on the global provider.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// RecordError marks span as failed.
func RecordError(span trace.Span, err error, kind string) {
	if span == nil || err == nil {
		return
	}
	if kind != "" {
		span.SetAttributes(AttrErrorKind.String(kind))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
