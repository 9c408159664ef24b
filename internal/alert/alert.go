// Package alert delivers integrity and health notifications to operators.
package alert

import (
	"context"
	"log/slog"
	"sort"
)

// AlertType categorizes the kind of alert.
type AlertType string

const (
	AlertTypeUnhealthy      AlertType = "UNHEALTHY"
	AlertTypeRecovery       AlertType = "RECOVERY"
	AlertTypeIntegrityFault AlertType = "INTEGRITY_FAULT"
	AlertTypeDBPool         AlertType = "DB_POOL"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Severity ranks the type. Dropped updates and a stalled ingester are
// critical; pool pressure is a warning.
func (t AlertType) Severity() Severity {
	switch t {
	case AlertTypeIntegrityFault, AlertTypeUnhealthy:
		return SeverityCritical
	case AlertTypeRecovery:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Alert represents a single alert event.
type Alert struct {
	// ID is assigned by MultiAlerter when empty.
	ID     string
	Type   AlertType
	Stream string
	// Subject narrows cooldown dedup, e.g. the instrument address.
	Subject string
	Title   string
	Message string
	Fields  map[string]string
}

// dedupKey identifies alerts that share a cooldown window.
func (a Alert) dedupKey() string {
	return string(a.Type) + "|" + a.Stream + "|" + a.Subject
}

func (a Alert) sortedFieldKeys() []string {
	keys := make([]string, 0, len(a.Fields))
	for k := range a.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Alerter is the interface for sending alerts.
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// channelName labels an alerter in logs and metrics.
func channelName(a Alerter) string {
	if n, ok := a.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}

// LogAlerter writes alerts to the structured log, at a level that follows
// the alert's severity. It is always configured so faults surface even
// without a remote channel.
type LogAlerter struct {
	logger *slog.Logger
}

func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	return &LogAlerter{logger: logger.With("component", "alerter")}
}

func (l *LogAlerter) Name() string { return "log" }

func (l *LogAlerter) Send(ctx context.Context, alert Alert) error {
	attrs := []any{
		"alert_id", alert.ID,
		"type", alert.Type,
		"stream", alert.Stream,
		"subject", alert.Subject,
		"message", alert.Message,
	}
	for _, k := range alert.sortedFieldKeys() {
		attrs = append(attrs, k, alert.Fields[k])
	}

	level := slog.LevelWarn
	switch alert.Type.Severity() {
	case SeverityCritical:
		level = slog.LevelError
	case SeverityInfo:
		level = slog.LevelInfo
	}
	l.logger.Log(ctx, level, alert.Title, attrs...)
	return nil
}
