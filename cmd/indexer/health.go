package main

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emperorhan/incentives-indexer/internal/config"
)

const readinessTimeout = 2 * time.Second

type healthChecker struct {
	db *sql.DB
}

func (h *healthChecker) check(ctx context.Context) error {
	if h.db == nil {
		return errors.New("database not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

func healthMux(cfg config.ServerConfig, checker *healthChecker, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := checker.check(r.Context()); err != nil {
			logger.Warn("readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	var metrics http.Handler = promhttp.Handler()
	if cfg.MetricsAuthUser != "" {
		metrics = basicAuthMiddleware(cfg.MetricsAuthUser, cfg.MetricsAuthPassword, metrics)
	}
	mux.Handle("/metrics", metrics)
	return mux
}

func runHealthServer(ctx context.Context, cfg config.ServerConfig, checker *healthChecker, logger *slog.Logger) error {
	return serveHTTP(ctx, "health", fmt.Sprintf(":%d", cfg.HealthPort), healthMux(cfg, checker, logger), logger)
}

func basicAuthMiddleware(user, password string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), []byte(password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
