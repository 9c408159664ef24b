package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emperorhan/incentives-indexer/internal/alert"
	"github.com/emperorhan/incentives-indexer/internal/metrics"
)

// dbPoolExhaustionRatio is the in-use share of MaxOpenConnections above
// which a DB_POOL alert is raised.
const dbPoolExhaustionRatio = 0.8

type dbStatsProvider interface {
	Stats() sql.DBStats
}

type dbPoolStatsGauges struct {
	open         *prometheus.GaugeVec
	inUse        *prometheus.GaugeVec
	idle         *prometheus.GaugeVec
	waitCount    *prometheus.GaugeVec
	waitDuration *prometheus.GaugeVec
}

func defaultDBPoolGauges() dbPoolStatsGauges {
	return dbPoolStatsGauges{
		open:         metrics.DBPoolOpen,
		inUse:        metrics.DBPoolInUse,
		idle:         metrics.DBPoolIdle,
		waitCount:    metrics.DBPoolWaitCount,
		waitDuration: metrics.DBPoolWaitDurationSeconds,
	}
}

func collectDBPoolStats(db dbStatsProvider, pool string, gauges dbPoolStatsGauges) (stats sql.DBStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("db pool stats collection panicked: %v", r)
		}
	}()
	if db == nil {
		return sql.DBStats{}, fmt.Errorf("db stats provider is nil")
	}

	stats = db.Stats()
	gauges.open.WithLabelValues(pool).Set(float64(stats.OpenConnections))
	gauges.inUse.WithLabelValues(pool).Set(float64(stats.InUse))
	gauges.idle.WithLabelValues(pool).Set(float64(stats.Idle))
	gauges.waitCount.WithLabelValues(pool).Set(float64(stats.WaitCount))
	gauges.waitDuration.WithLabelValues(pool).Set(stats.WaitDuration.Seconds())
	return stats, nil
}

// poolExhaustionAlert returns the alert to raise for stats, if any. An
// unlimited pool never alerts.
func poolExhaustionAlert(pool string, stats sql.DBStats) (alert.Alert, bool) {
	if stats.MaxOpenConnections <= 0 {
		return alert.Alert{}, false
	}
	usage := float64(stats.InUse) / float64(stats.MaxOpenConnections)
	if usage <= dbPoolExhaustionRatio {
		return alert.Alert{}, false
	}
	return alert.Alert{
		Type:    alert.AlertTypeDBPool,
		Subject: pool,
		Title:   "DB connection pool near exhaustion",
		Message: fmt.Sprintf("Pool usage: %d/%d (%.0f%%)", stats.InUse, stats.MaxOpenConnections, usage*100),
		Fields: map[string]string{
			"pool":       pool,
			"wait_count": fmt.Sprintf("%d", stats.WaitCount),
		},
	}, true
}

func startDBPoolStatsPump(ctx context.Context, db dbStatsProvider, pool string, interval time.Duration, alerter alert.Alerter, logger *slog.Logger) {
	if db == nil || interval <= 0 {
		return
	}
	gauges := defaultDBPoolGauges()

	sample := func() {
		stats, err := collectDBPoolStats(db, pool, gauges)
		if err != nil {
			logger.Warn("failed to collect db pool stats", "error", err)
			return
		}
		if a, ok := poolExhaustionAlert(pool, stats); ok && alerter != nil {
			if err := alerter.Send(ctx, a); err != nil {
				logger.Warn("failed to send db pool alert", "error", err)
			}
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		sample()
		for {
			select {
			case <-ctx.Done():
				logger.Info("db pool stats sampler stopped", "cause", "context_done")
				return
			case <-ticker.C:
				sample()
			}
		}
	}()
}
