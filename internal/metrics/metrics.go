package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage counters and histograms, partitioned by stream unless noted.

var (
	// Consumer
	ConsumerMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Total stream messages read, by result (delivered, skipped, malformed, removed)",
	}, []string{"stream", "result"})

	ConsumerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "consumer",
		Name:      "errors_total",
		Help:      "Total consumer read or checkpoint errors",
	}, []string{"stream"})

	ConsumerCheckpointsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "consumer",
		Name:      "checkpoints_persisted_total",
		Help:      "Total stream checkpoints persisted after commit",
	}, []string{"stream"})

	// Reconciler
	ReconcilerOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "reconciler",
		Name:      "outcomes_total",
		Help:      "Total notifications reconciled, by kind and outcome",
	}, []string{"kind", "outcome"})

	ReconcilerIntegrityFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "reconciler",
		Name:      "integrity_faults_total",
		Help:      "Total notifications referencing a registered instrument whose reserve or user reserve is missing",
	}, []string{"kind"})

	// Ingester
	IngesterNotificationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "ingester",
		Name:      "notifications_processed_total",
		Help:      "Total notifications committed by the ingester",
	}, []string{"stream"})

	IngesterDuplicatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "ingester",
		Name:      "duplicates_skipped_total",
		Help:      "Total notifications skipped because the ingest cursor already covers them",
	}, []string{"stream"})

	IngesterErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "ingester",
		Name:      "errors_total",
		Help:      "Total ingester errors (after retry exhaustion)",
	}, []string{"stream"})

	IngesterRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "ingester",
		Name:      "retries_total",
		Help:      "Total transient failures retried by the ingester",
	}, []string{"stream", "reason"})

	IngesterLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "indexer",
		Subsystem: "ingester",
		Name:      "notification_duration_seconds",
		Help:      "Ingester per-notification transaction duration",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"stream"})

	IngestCursorBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "ingester",
		Name:      "cursor_block",
		Help:      "Block number of the last committed notification",
	}, []string{"stream"})

	// Registry cache
	RegistryCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "registry",
		Name:      "cache_lookups_total",
		Help:      "Instrument registry lookups, by result (hit, miss)",
	}, []string{"result"})

	RegistryCacheRemovals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "registry",
		Name:      "cache_removals_total",
		Help:      "Cached instrument mappings dropped by eviction, expiry or invalidation",
	})

	// Admin API
	AdminRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "admin",
		Name:      "requests_total",
		Help:      "Total query API requests, by route and status code",
	}, []string{"route", "code"})

	AdminRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "admin",
		Name:      "rate_limited_total",
		Help:      "Total query API requests rejected by the per-client rate limit, by route class",
	}, []string{"class"})

	// Postgres pool
	DBPoolOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "postgres",
		Name:      "db_pool_open",
		Help:      "Current number of open PostgreSQL connections in the pool",
	}, []string{"pool"})

	DBPoolInUse = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "postgres",
		Name:      "db_pool_in_use",
		Help:      "Current number of in-use PostgreSQL connections in the pool",
	}, []string{"pool"})

	DBPoolIdle = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "postgres",
		Name:      "db_pool_idle",
		Help:      "Current number of idle PostgreSQL connections in the pool",
	}, []string{"pool"})

	DBPoolWaitCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "postgres",
		Name:      "db_pool_wait_count",
		Help:      "Cumulative count of waits for PostgreSQL connections from pool",
	}, []string{"pool"})

	DBPoolWaitDurationSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "postgres",
		Name:      "db_pool_wait_duration_seconds",
		Help:      "Latest PostgreSQL pool wait duration in seconds",
	}, []string{"pool"})

	// Pipeline health
	PipelineHealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "pipeline",
		Name:      "health_status",
		Help:      "Pipeline health status (0=UNKNOWN, 1=HEALTHY, 2=UNHEALTHY)",
	}, []string{"stream"})

	PipelineConsecutiveFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "pipeline",
		Name:      "consecutive_failures",
		Help:      "Number of consecutive ingester failures",
	}, []string{"stream"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Total alerts sent",
	}, []string{"channel", "alert_type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "alert",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts skipped due to cooldown",
	}, []string{"channel", "alert_type"})

	AlertChannelCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "alert",
		Name:      "channel_circuit_state",
		Help:      "Circuit state of a remote alert channel (0=closed, 1=open, 2=half-open)",
	}, []string{"channel"})

	AlertsCircuitRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "alert",
		Name:      "circuit_rejected_total",
		Help:      "Total alerts not delivered because the channel circuit was open",
	}, []string{"channel"})
)
