// Package tracing installs the OpenTelemetry provider and opens the spans
// that follow a notification through the ingester.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/emperorhan/incentives-indexer/internal/domain/event"
)

const instrumentationName = "github.com/emperorhan/incentives-indexer"

// Config selects the exporter. An empty Endpoint installs a no-op provider.
type Config struct {
	ServiceName string
	Endpoint    string
	// Insecure uses plaintext gRPC, for a collector on localhost.
	Insecure bool
	// SampleRatio applies to root spans; values outside (0, 1) sample all.
	SampleRatio float64
}

// Init installs the global tracer provider and returns its shutdown func.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(rootSampler(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func rootSampler(ratio float64) sdktrace.Sampler {
	if ratio > 0 && ratio < 1 {
		return sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.AlwaysSample()
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartNotification opens the span covering one notification, from the
// first attempt to commit.
func StartNotification(ctx context.Context, stream, streamID string, n event.Notification) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("stream", stream),
		attribute.String("stream_id", streamID),
		attribute.String("notification.kind", n.Kind.String()),
		attribute.Int64("block_number", int64(n.BlockNumber)),
		attribute.Int("log_index", int(n.LogIndex)),
		attribute.String("tx_hash", n.TxHash),
	}
	if n.Instrument != "" {
		attrs = append(attrs, attribute.String("instrument", n.Instrument))
	}
	return Tracer(instrumentationName).Start(ctx, "ingest "+n.Kind.String(), trace.WithAttributes(attrs...))
}

// EndNotification records how the notification ended and closes span.
func EndNotification(span trace.Span, outcome string, duplicate bool, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Bool("duplicate", duplicate),
	)
}
