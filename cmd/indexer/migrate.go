package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/emperorhan/incentives-indexer/internal/store/postgres"
)

func newMigrateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply pending *.up.sql migrations in order. The migrations embedded in
the binary are used unless --dir points at a directory of migration files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.close()

			db, err := rt.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			return applyMigrations(cmd.Context(), db, dir, rt.logger)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory of migration files (default: embedded)")
	return cmd
}

func applyMigrations(ctx context.Context, db *postgres.DB, dir string, logger *slog.Logger) error {
	fsys, err := postgres.MigrationsFS(dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	applied, err := db.RunMigrations(ctx, fsys, logger.With("component", "migrate"))
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.InfoContext(ctx, "schema up to date", "applied", len(applied))
	return nil
}
