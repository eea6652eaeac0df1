// Package tracing wires OpenTelemetry spans around scan pipeline stages
// using go.opentelemetry.io/otel.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/georgenoob1234/freshline-brain"

// NewProvider returns a TracerProvider. When endpoint is empty, spans are
// still created and sampled but go nowhere — tracing is a no-op in that mode
// rather than a feature that must be toggled in code. When endpoint is set,
// an OTLP/HTTP exporter batches spans to it.
func NewProvider(endpoint string) (*sdktrace.TracerProvider, error) {
	if endpoint == "" {
		return sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample())), nil
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: build OTLP exporter for %s: %w", endpoint, err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	), nil
}

// Tracer returns the package-scoped tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan is a small convenience wrapper so call sites can start a
// span-per-stage without repeating the tracer name.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}
