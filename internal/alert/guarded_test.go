package alert

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emperorhan/incentives-indexer/internal/circuitbreaker"
	"github.com/emperorhan/incentives-indexer/internal/metrics"
)

func TestGuardedAlerter_OpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGuardedAlerter(NewWebhookAlerter(srv.URL), circuitbreaker.Config{
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	}, testLogger())
	rejectedBefore := testutil.ToFloat64(metrics.AlertsCircuitRejected.WithLabelValues("webhook"))

	for i := 0; i < 2; i++ {
		err := g.Send(context.Background(), testAlert())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	}

	err := g.Send(context.Background(), testAlert())
	require.Error(t, err)
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load(), "open circuit must not reach the endpoint")

	assert.Equal(t, float64(circuitbreaker.StateOpen), testutil.ToFloat64(metrics.AlertChannelCircuitState.WithLabelValues("webhook")))
	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(metrics.AlertsCircuitRejected.WithLabelValues("webhook")))
}

type stubAlerter struct {
	err   error
	calls int
}

func (s *stubAlerter) Send(context.Context, Alert) error {
	s.calls++
	return s.err
}

func TestGuardedAlerter_RecoversAfterOpenTimeout(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var transitions []circuitbreaker.State

	stub := &stubAlerter{err: errors.New("unreachable")}
	g := NewGuardedAlerter(stub, circuitbreaker.Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
		Now:              func() time.Time { return now },
		OnStateChange: func(_, to circuitbreaker.State) {
			transitions = append(transitions, to)
		},
	}, testLogger())

	require.Error(t, g.Send(context.Background(), testAlert()))
	require.ErrorIs(t, g.Send(context.Background(), testAlert()), circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 1, stub.calls)

	now = now.Add(time.Minute)
	stub.err = nil
	require.NoError(t, g.Send(context.Background(), testAlert()))
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, []circuitbreaker.State{
		circuitbreaker.StateOpen,
		circuitbreaker.StateHalfOpen,
		circuitbreaker.StateClosed,
	}, transitions)
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		alerter Alerter
		want    string
	}{
		{NewSlackAlerter("http://127.0.0.1:1"), "slack"},
		{NewWebhookAlerter("http://127.0.0.1:1"), "webhook"},
		{NewLogAlerter(testLogger()), "log"},
		{NewGuardedAlerter(NewSlackAlerter("http://127.0.0.1:1"), circuitbreaker.Config{}, testLogger()), "slack"},
		{&stubAlerter{}, "unknown"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, channelName(tc.alerter))
	}
}
