package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emperorhan/incentives-indexer/internal/config"
	"github.com/emperorhan/incentives-indexer/internal/logging"
	"github.com/emperorhan/incentives-indexer/internal/store/postgres"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("indexer exited with error", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexer",
		Short: "Incentives-controller reconciliation service",
		Long: `Reconciles the ordered stream of incentives-controller notifications
into per-reserve and per-user reward state.

Configuration is read from environment variables, optionally overlaid on a
YAML file named by CONFIG_FILE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newRegistryCommand())
	cmd.AddCommand(newPublishCommand())
	return cmd
}

// runtime is the state every sub-command starts from.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	logClose io.Closer
}

func setup() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, closer := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	slog.SetDefault(logger)
	return &runtime{cfg: cfg, logger: logger, logClose: closer}, nil
}

func (rt *runtime) close() {
	if err := rt.logClose.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
	}
}

func (rt *runtime) openDB(ctx context.Context) (*postgres.DB, error) {
	db, err := postgres.New(ctx, postgres.Config{
		URL:                rt.cfg.DB.URL,
		MaxOpenConns:       rt.cfg.DB.MaxOpenConns,
		MaxIdleConns:       rt.cfg.DB.MaxIdleConns,
		ConnMaxLifetime:    rt.cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime:    rt.cfg.DB.ConnMaxIdleTime,
		StatementTimeoutMS: rt.cfg.DB.StatementTimeoutMS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database %s: %w", maskCredentials(rt.cfg.DB.URL), err)
	}
	rt.logger.InfoContext(ctx, "connected to database", "url", maskCredentials(rt.cfg.DB.URL))
	return db, nil
}

// maskCredentials hides the userinfo part of a connection URL.
func maskCredentials(raw string) string {
	schemeEnd := strings.Index(raw, "://")
	if schemeEnd < 0 {
		return raw
	}
	rest := raw[schemeEnd+3:]
	hostEnd := len(rest)
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		hostEnd = i
	}
	at := strings.LastIndex(rest[:hostEnd], "@")
	if at < 0 {
		return raw
	}
	return raw[:schemeEnd+3] + "***" + rest[at:]
}

// redactURL is maskCredentials for URLs that may carry a token in the path,
// such as chat webhooks.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}
