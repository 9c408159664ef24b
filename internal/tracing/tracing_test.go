package tracing

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/emperorhan/incentives-indexer/internal/domain/event"
)

func TestInit_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "incentives-indexer"})
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "span-check")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, shutdown(context.Background()))
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_WithEndpointInstallsSDKProvider(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	shutdown, err := Init(ctx, Config{ServiceName: "incentives-indexer", Endpoint: "127.0.0.1:4317", Insecure: true, SampleRatio: 1})
	require.NoError(t, err)
	defer func() { _ = shutdown(ctx) }()

	_, span := Tracer("test").Start(ctx, "span-check")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestRootSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), rootSampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), rootSampler(1.5).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), rootSampler(0.25).Description())
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestNotificationSpan(t *testing.T) {
	recorder := recordSpans(t)

	n := event.Notification{
		Kind:        event.KindAssetIndexUpdated,
		TxHash:      "0xabc",
		BlockNumber: 12,
		LogIndex:    3,
		Instrument:  "0xaa",
		Value:       big.NewInt(500),
	}
	_, span := StartNotification(context.Background(), "incentives", "5-0", n)
	EndNotification(span, "applied", false, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ingest asset_index_updated", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "incentives", attrs["stream"].AsString())
	assert.Equal(t, "5-0", attrs["stream_id"].AsString())
	assert.Equal(t, int64(12), attrs["block_number"].AsInt64())
	assert.Equal(t, "0xaa", attrs["instrument"].AsString())
	assert.Equal(t, "applied", attrs["outcome"].AsString())
	assert.False(t, attrs["duplicate"].AsBool())
}

func TestNotificationSpan_RecordsError(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartNotification(context.Background(), "incentives", "6-0", event.Notification{Kind: event.KindRewardsAccrued})
	EndNotification(span, "", false, errors.New("commit: connection reset"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "commit: connection reset", spans[0].Status().Description)
	_, hasInstrument := attrMap(spans[0].Attributes())["instrument"]
	assert.False(t, hasInstrument)
}
