//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emperorhan/incentives-indexer/internal/store/postgres"
)

// testDB connects to TEST_DB_URL when set, otherwise starts a disposable
// PostgreSQL container. Migrations are applied in both cases.
func testDB(t *testing.T) *postgres.DB {
	t.Helper()
	ctx := context.Background()

	url := os.Getenv("TEST_DB_URL")
	if url == "" {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("test_incentives_indexer"),
			tcpostgres.WithUsername("test"),
			tcpostgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			require.NoError(t, container.Terminate(context.Background()))
		})

		url, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	db, err := postgres.New(ctx, postgres.Config{
		URL:             url,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migrations, err := postgres.MigrationsFS("")
	require.NoError(t, err)
	_, err = db.RunMigrations(ctx, migrations, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	// Second run must be a no-op.
	applied, err := db.RunMigrations(ctx, migrations, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.Empty(t, applied)
	return db
}
