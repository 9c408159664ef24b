package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/emperorhan/incentives-indexer/internal/metrics"
	"github.com/emperorhan/incentives-indexer/internal/pipeline/consumer"
)

// HealthStatus represents the health state of a pipeline.
type HealthStatus string

const (
	HealthStatusUnknown   HealthStatus = "UNKNOWN"
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusDegraded  HealthStatus = "DEGRADED"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"

	// DefaultUnhealthyThreshold is the number of consecutive failed
	// notifications after which a pipeline is unhealthy.
	DefaultUnhealthyThreshold = 5

	// DefaultDegradedLatency is the p95 commit latency above which a
	// healthy pipeline reports DEGRADED.
	DefaultDegradedLatency = 5 * time.Second

	latencyWindowSize = 20
)

// PipelineHealth tracks ingest progress and failures for one stream.
type PipelineHealth struct {
	stream             string
	unhealthyThreshold int
	degradedLatency    time.Duration
	now                func() time.Time

	mu                  sync.RWMutex
	status              HealthStatus
	consecutiveFailures int
	committed           uint64
	lastStreamID        string
	lastBlock           uint64
	lastSuccessAt       *time.Time
	lastFailureAt       *time.Time
	lastError           string
	latencies           []time.Duration
}

func NewPipelineHealth(stream string) *PipelineHealth {
	return &PipelineHealth{
		stream:             stream,
		unhealthyThreshold: DefaultUnhealthyThreshold,
		degradedLatency:    DefaultDegradedLatency,
		now:                time.Now,
		status:             HealthStatusUnknown,
		latencies:          make([]time.Duration, 0, latencyWindowSize),
	}
}

// SetStatus overrides the status, e.g. when the pipeline starts.
func (h *PipelineHealth) SetStatus(status HealthStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
	h.export()
}

// RecordCommit notes a committed delivery and how long it took from first
// attempt to commit. It reports whether the pipeline was unhealthy before.
func (h *PipelineHealth) RecordCommit(d consumer.Delivery, elapsed time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	recovered := h.status == HealthStatusUnhealthy
	h.consecutiveFailures = 0
	h.committed++
	h.lastStreamID = d.StreamID
	h.lastBlock = d.Notification.BlockNumber
	h.lastSuccessAt = &now
	h.lastError = ""

	if len(h.latencies) == latencyWindowSize {
		h.latencies = h.latencies[1:]
	}
	h.latencies = append(h.latencies, elapsed)

	h.status = HealthStatusHealthy
	if h.p95() > h.degradedLatency {
		h.status = HealthStatusDegraded
	}
	h.export()
	return recovered
}

// RecordFailure notes a failed notification. It reports whether this
// failure made the pipeline unhealthy.
func (h *PipelineHealth) RecordFailure(err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	h.consecutiveFailures++
	h.lastFailureAt = &now
	if err != nil {
		h.lastError = err.Error()
	}

	became := false
	if h.consecutiveFailures >= h.unhealthyThreshold && h.status != HealthStatusUnhealthy {
		h.status = HealthStatusUnhealthy
		became = true
	}
	h.export()
	return became
}

// p95 needs at least two samples. Must be called with mu held.
func (h *PipelineHealth) p95() time.Duration {
	n := len(h.latencies)
	if n < 2 {
		return 0
	}
	sorted := slices.Clone(h.latencies)
	slices.Sort(sorted)
	idx := (95*n - 1) / 100
	return sorted[min(max(idx, 0), n-1)]
}

// export publishes the state as gauges. Must be called with mu held.
func (h *PipelineHealth) export() {
	metrics.PipelineHealthStatus.WithLabelValues(h.stream).Set(statusGaugeValue(h.status))
	metrics.PipelineConsecutiveFailures.WithLabelValues(h.stream).Set(float64(h.consecutiveFailures))
}

func statusGaugeValue(s HealthStatus) float64 {
	switch s {
	case HealthStatusHealthy, HealthStatusDegraded:
		return 1
	case HealthStatusUnhealthy:
		return 2
	default:
		return 0
	}
}

func (h *PipelineHealth) Snapshot() HealthSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HealthSnapshot{
		Stream:              h.stream,
		Status:              string(h.status),
		ConsecutiveFailures: h.consecutiveFailures,
		Committed:           h.committed,
		LastStreamID:        h.lastStreamID,
		LastBlock:           h.lastBlock,
		P95LatencyMS:        h.p95().Milliseconds(),
		LastError:           h.lastError,
		LastSuccessAt:       h.lastSuccessAt,
		LastFailureAt:       h.lastFailureAt,
	}
}

// HealthSnapshot is a point-in-time view of one pipeline, served by the
// status endpoint.
type HealthSnapshot struct {
	Stream              string     `json:"stream"`
	Status              string     `json:"status"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Committed           uint64     `json:"committed"`
	LastStreamID        string     `json:"last_stream_id,omitempty"`
	LastBlock           uint64     `json:"last_block,omitempty"`
	P95LatencyMS        int64      `json:"p95_latency_ms"`
	LastError           string     `json:"last_error,omitempty"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
}
