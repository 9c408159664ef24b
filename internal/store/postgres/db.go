package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	// DefaultQueryTimeout bounds read queries issued outside a transaction.
	DefaultQueryTimeout = 30 * time.Second

	maxStatementTimeoutMS  = 3_600_000
	defaultConnMaxIdleTime = 2 * time.Minute
	pingTimeout            = 10 * time.Second
)

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// DB is the connection pool shared by the store and the migrator.
type DB struct {
	*sql.DB
}

type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// StatementTimeoutMS is applied to every session; 0 leaves the server
	// default in place.
	StatementTimeoutMS int
}

func (c Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("database url is empty")
	}
	if c.StatementTimeoutMS < 0 || c.StatementTimeoutMS > maxStatementTimeoutMS {
		return fmt.Errorf("statement timeout %dms outside [0, %d]", c.StatementTimeoutMS, maxStatementTimeoutMS)
	}
	return nil
}

// New opens the pool through a pq connector and pings it once.
func New(ctx context.Context, cfg Config) (*DB, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	dsn, err := sessionDSN(cfg.URL, cfg.StatementTimeoutMS)
	if err != nil {
		return nil, err
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("build connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	idle := cfg.ConnMaxIdleTime
	if idle <= 0 {
		idle = defaultConnMaxIdleTime
	}
	db.SetConnMaxIdleTime(idle)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &DB{db}, nil
}

// sessionDSN adds statement_timeout to the startup options of dsn, which may
// be a postgres:// URL or a key=value string.
func sessionDSN(dsn string, statementTimeoutMS int) (string, error) {
	if statementTimeoutMS == 0 {
		return dsn, nil
	}
	opt := "-c statement_timeout=" + strconv.Itoa(statementTimeoutMS)

	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn + " options='" + opt + "'", nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	q := u.Query()
	if existing := q.Get("options"); existing != "" {
		opt = existing + " " + opt
	}
	q.Set("options", opt)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
