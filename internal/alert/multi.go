package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/incentives-indexer/internal/metrics"
)

// pruneThreshold is the number of cooldown entries above which expired
// ones are dropped on the next delivery.
const pruneThreshold = 512

// MultiAlerter fans an alert out to every channel concurrently and
// suppresses repeats of the same alert within the cooldown window.
type MultiAlerter struct {
	channels []Alerter
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	delivered map[string]time.Time
}

func NewMultiAlerter(cooldown time.Duration, logger *slog.Logger, channels ...Alerter) *MultiAlerter {
	return &MultiAlerter{
		channels:  channels,
		cooldown:  cooldown,
		logger:    logger.With("component", "alerter"),
		now:       time.Now,
		delivered: make(map[string]time.Time),
	}
}

// Send delivers alert to all channels. The cooldown starts only once at
// least one channel accepted the alert, so a total outage does not
// silence the retry. Errors from failed channels are joined.
func (m *MultiAlerter) Send(ctx context.Context, alert Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	key := alert.dedupKey()

	if m.coolingDown(key) {
		m.logger.Debug("alert suppressed by cooldown", "key", key)
		for _, ch := range m.channels {
			metrics.AlertsCooldownSkipped.WithLabelValues(channelName(ch), string(alert.Type)).Inc()
		}
		return nil
	}

	errs := make([]error, len(m.channels))
	var g errgroup.Group
	for i, ch := range m.channels {
		g.Go(func() error {
			name := channelName(ch)
			if err := ch.Send(ctx, alert); err != nil {
				m.logger.Warn("alert send failed", "channel", name, "type", alert.Type, "alert_id", alert.ID, "error", err)
				errs[i] = fmt.Errorf("%s: %w", name, err)
				return nil
			}
			metrics.AlertsSentTotal.WithLabelValues(name, string(alert.Type)).Inc()
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed < len(m.channels) {
		m.markDelivered(key)
	}
	return errors.Join(errs...)
}

func (m *MultiAlerter) coolingDown(key string) bool {
	if m.cooldown <= 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	last, ok := m.delivered[key]
	return ok && m.now().Sub(last) < m.cooldown
}

func (m *MultiAlerter) markDelivered(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if len(m.delivered) >= pruneThreshold {
		for k, at := range m.delivered {
			if now.Sub(at) >= m.cooldown {
				delete(m.delivered, k)
			}
		}
	}
	m.delivered[key] = now
}
