package postgres

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ok", Config{URL: "postgres://h/db", StatementTimeoutMS: 30000}, ""},
		{"no timeout", Config{URL: "postgres://h/db"}, ""},
		{"empty url", Config{}, "database url is empty"},
		{"negative timeout", Config{URL: "postgres://h/db", StatementTimeoutMS: -1}, "statement timeout"},
		{"timeout above an hour", Config{URL: "postgres://h/db", StatementTimeoutMS: maxStatementTimeoutMS + 1}, "statement timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Config{URL: "postgres://h/db", StatementTimeoutMS: -5})
	require.Error(t, err)
}

func TestSessionDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		ms   int
		want string
	}{
		{"disabled", "postgres://h/db", 0, "postgres://h/db"},
		{"url", "postgres://h/db", 500, "postgres://h/db?options=-c+statement_timeout%3D500"},
		{"url keeps params", "postgres://u:p@h:5432/db?sslmode=disable", 500, "postgres://u:p@h:5432/db?options=-c+statement_timeout%3D500&sslmode=disable"},
		{"url merges options", "postgresql://h/db?options=-c%20search_path%3Dapp", 500, "postgresql://h/db?options=-c+search_path%3Dapp+-c+statement_timeout%3D500"},
		{"key value", "host=h dbname=db", 500, "host=h dbname=db options='-c statement_timeout=500'"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sessionDSN(tc.dsn, tc.ms)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMigrationsFS_Embedded(t *testing.T) {
	fsys, err := MigrationsFS("")
	require.NoError(t, err)

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for _, table := range []string{"map_asset_pools", "reserves", "users", "user_reserves", "incentivized_actions", "claim_incentive_calls", "ingest_cursors"} {
		assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestLoadMigrations_SortedUpFilesOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_b.up.sql":   {Data: []byte("B")},
		"000001_a.up.sql":   {Data: []byte("A")},
		"000001_a.down.sql": {Data: []byte("DROP")},
		"README.md":         {Data: []byte("ignored")},
	}
	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Migration{{"000001_a.up.sql", "A"}, {"000002_b.up.sql", "B"}}, migrations)

	empty, err := LoadMigrations(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func expectLockAndSchema(mock sqlmock.Sqlmock, applied ...string) {
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_lock($1)")).
		WithArgs(migrationLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"version"})
	for _, v := range applied {
		rows.AddRow(v)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).WillReturnRows(rows)
}

func TestRunMigrations_AppliesPendingOnly(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	fsys := fstest.MapFS{
		"000001_a.up.sql": {Data: []byte("CREATE TABLE a (id INT)")},
		"000002_b.up.sql": {Data: []byte("CREATE TABLE b (id INT)")},
	}

	expectLockAndSchema(mock, "000001_a.up.sql")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id INT)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
		WithArgs("000002_b.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")).
		WithArgs(migrationLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := (&DB{sqlDB}).RunMigrations(context.Background(), fsys, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_b.up.sql"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_StopsAtFailedMigration(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	fsys := fstest.MapFS{
		"000001_a.up.sql": {Data: []byte("CREATE TABLE a (id INT)")},
		"000002_b.up.sql": {Data: []byte("CREATE TABLE b (id INT)")},
	}

	expectLockAndSchema(mock)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id INT)")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")).
		WithArgs(migrationLockKey).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := (&DB{sqlDB}).RunMigrations(context.Background(), fsys, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec migration 000001_a.up.sql")
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
