package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emperorhan/incentives-indexer/internal/circuitbreaker"
	"github.com/emperorhan/incentives-indexer/internal/metrics"
)

// GuardedAlerter stops calling a remote channel that keeps failing, so an
// unreachable webhook does not add its timeout to every alert.
type GuardedAlerter struct {
	next    Alerter
	breaker *circuitbreaker.Breaker
}

// NewGuardedAlerter wraps next with a circuit breaker built from cfg. State
// changes are logged and exported per channel.
func NewGuardedAlerter(next Alerter, cfg circuitbreaker.Config, logger *slog.Logger) *GuardedAlerter {
	channel := channelName(next)
	logger = logger.With("component", "alerter", "channel", channel)
	onChange := cfg.OnStateChange
	cfg.OnStateChange = func(from, to circuitbreaker.State) {
		metrics.AlertChannelCircuitState.WithLabelValues(channel).Set(float64(to))
		logger.Warn("alert channel circuit changed", "from", from.String(), "to", to.String())
		if onChange != nil {
			onChange(from, to)
		}
	}
	metrics.AlertChannelCircuitState.WithLabelValues(channel).Set(float64(circuitbreaker.StateClosed))
	return &GuardedAlerter{next: next, breaker: circuitbreaker.New(cfg)}
}

func (g *GuardedAlerter) Name() string { return channelName(g.next) }

func (g *GuardedAlerter) Send(ctx context.Context, alert Alert) error {
	err := g.breaker.Execute(func() error {
		return g.next.Send(ctx, alert)
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		metrics.AlertsCircuitRejected.WithLabelValues(g.Name()).Inc()
		return fmt.Errorf("%s channel: %w", g.Name(), err)
	}
	return err
}
