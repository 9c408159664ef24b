package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emperorhan/incentives-indexer/internal/admin"
	"github.com/emperorhan/incentives-indexer/internal/alert"
	"github.com/emperorhan/incentives-indexer/internal/cache"
	"github.com/emperorhan/incentives-indexer/internal/chain/evm"
	"github.com/emperorhan/incentives-indexer/internal/circuitbreaker"
	"github.com/emperorhan/incentives-indexer/internal/config"
	"github.com/emperorhan/incentives-indexer/internal/incentives"
	"github.com/emperorhan/incentives-indexer/internal/pipeline"
	"github.com/emperorhan/incentives-indexer/internal/store"
	"github.com/emperorhan/incentives-indexer/internal/store/postgres"
	redisstream "github.com/emperorhan/incentives-indexer/internal/store/redis"
	"github.com/emperorhan/incentives-indexer/internal/tracing"
)

func newRunCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Consume the notification stream and serve the query API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()
			return runIndexer(cmd.Context(), rt, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply embedded migrations before starting")
	return cmd
}

func runIndexer(parent context.Context, rt *runtime, migrate bool) error {
	cfg, logger := rt.cfg, rt.logger
	if parent == nil {
		parent = context.Background()
	}

	logger.Info("starting incentives-indexer",
		"stream", cfg.Stream.Name,
		"consumer", cfg.Stream.ConsumerName,
		"user_index_mode", cfg.Reconciler.UserIndexMode,
		"controllers", len(cfg.Reconciler.Controllers),
		"redis_url", maskCredentials(cfg.Redis.URL),
	)

	shutdownTracing, err := tracing.Init(parent, tracing.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()
	if cfg.Tracing.Endpoint != "" {
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint, "sample_ratio", cfg.Tracing.SampleRatio)
	}

	db, err := rt.openDB(parent)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := applyMigrations(parent, db, "", logger); err != nil {
			return err
		}
	}

	stream, err := redisstream.NewStream(cfg.Redis.URL,
		redisstream.WithMaxLen(cfg.Stream.MaxLen),
		redisstream.WithReadBlock(cfg.Stream.ReadBlock),
	)
	if err != nil {
		return fmt.Errorf("initialize redis stream transport: %w", err)
	}
	defer stream.Close()

	decoder, err := evm.NewDecoder(cfg.Reconciler.Controllers...)
	if err != nil {
		return fmt.Errorf("build log decoder: %w", err)
	}

	pgStore := postgres.NewStore(db)
	alerter := buildAlerter(cfg.Alert, logger)
	p := pipeline.New(pipeline.Config{
		Stream:            cfg.Stream.Name,
		ConsumerName:      cfg.Stream.ConsumerName,
		ChannelBufferSize: cfg.Ingester.ChannelBufferSize,
		RetryMaxAttempts:  cfg.Ingester.RetryMaxAttempts,
		BackoffInitial:    cfg.Ingester.BackoffInitial,
		BackoffMax:        cfg.Ingester.BackoffMax,
		UnhealthyAfter:    cfg.Ingester.UnhealthyAfter,
		Alerter:           alerter,
	},
		stream,
		decoder,
		cachedTransactor(pgStore, cfg.Cache),
		incentives.NewReconciler(logger, incentives.WithUserIndexMode(incentives.UserIndexMode(cfg.Reconciler.UserIndexMode))),
		logger,
	)
	pipelines := pipeline.NewRegistry()
	pipelines.Register(p)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHealthServer(gCtx, cfg.Server, &healthChecker{db: db.DB}, logger)
	})

	if cfg.Admin.Addr != "" {
		server := admin.NewServer(pgStore, logger,
			admin.WithHealthProvider(pipelines),
			admin.WithStreams(cfg.Stream.Name),
		)
		limiter := admin.NewRateLimitMiddleware(logger, cfg.Admin.RateLimitRPS, cfg.Admin.RateLimitBurst)
		defer limiter.Stop()
		handler := admin.AccessLogMiddleware(logger, limiter.Wrap(server.Handler()))
		g.Go(func() error {
			return serveHTTP(gCtx, "query api", cfg.Admin.Addr, handler, logger)
		})
	}

	g.Go(func() error {
		return p.Run(gCtx)
	})

	startDBPoolStatsPump(gCtx, db.DB, "primary", cfg.DB.PoolStatsInterval, alerter, logger)

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("indexer shut down gracefully")
	return nil
}

// cachedTransactor puts the registry LRU in front of tx unless disabled.
func cachedTransactor(tx store.Transactor, cfg config.CacheConfig) store.Transactor {
	if cfg.RegistryCapacity <= 0 {
		return tx
	}
	return cache.NewRegistry(cfg.RegistryCapacity, cfg.RegistryTTL).Transactor(tx)
}

// buildAlerter fans out to every configured channel. Alerts always reach
// the log so integrity faults are visible without a webhook; remote channels
// sit behind a circuit breaker.
func buildAlerter(cfg config.AlertConfig, logger *slog.Logger) alert.Alerter {
	breaker := circuitbreaker.Config{
		FailureThreshold: cfg.CircuitFailures,
		OpenTimeout:      cfg.CircuitOpenTimeout,
	}
	channels := []alert.Alerter{alert.NewLogAlerter(logger)}
	if cfg.SlackWebhookURL != "" {
		channels = append(channels, alert.NewGuardedAlerter(alert.NewSlackAlerter(cfg.SlackWebhookURL), breaker, logger))
		logger.Info("slack alerts enabled", "webhook", redactURL(cfg.SlackWebhookURL))
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, alert.NewGuardedAlerter(alert.NewWebhookAlerter(cfg.WebhookURL), breaker, logger))
		logger.Info("webhook alerts enabled", "webhook", redactURL(cfg.WebhookURL))
	}
	return alert.NewMultiAlerter(cfg.Cooldown, logger, channels...)
}

func serveHTTP(ctx context.Context, name, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("server shutdown error", "server", name, "error", err)
		}
	}()

	logger.Info("server started", "server", name, "addr", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}
