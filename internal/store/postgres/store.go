package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the Postgres-backed snapshot. Repository calls made through the
// Store returned by InTx share one transaction.
type Store struct {
	db *sql.DB
}

var (
	_ store.Transactor     = (*Store)(nil)
	_ store.Reader         = (*Store)(nil)
	_ store.RegistryWriter = (*Store)(nil)
)

func NewStore(db *DB) *Store {
	return &Store{db: db.DB}
}

// InTx begins a transaction, runs fn and commits when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(newTxStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) UpsertMapping(ctx context.Context, m *model.InstrumentMapping) error {
	return (&MappingRepo{q: s.db}).UpsertMapping(ctx, m)
}

func (s *Store) GetReserve(ctx context.Context, id string) (*model.Reserve, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	return (&ReserveRepo{q: s.db}).Get(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, address string) (*model.User, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	return (&UserRepo{q: s.db}).Get(ctx, address)
}

func (s *Store) GetUserReserve(ctx context.Context, id string) (*model.UserReserve, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	return (&UserReserveRepo{q: s.db}).Get(ctx, id)
}

func (s *Store) GetCursor(ctx context.Context, stream string) (*model.IngestCursor, error) {
	ctx, cancel := withTimeout(ctx, DefaultQueryTimeout)
	defer cancel()
	return (&CursorRepo{q: s.db}).Get(ctx, stream)
}

type txStore struct {
	registry     *MappingRepo
	reserves     *ReserveRepo
	users        *UserRepo
	userReserves *UserReserveRepo
	audit        *AuditRepo
	cursors      *CursorRepo
}

func newTxStore(q querier) *txStore {
	return &txStore{
		registry:     &MappingRepo{q: q},
		reserves:     &ReserveRepo{q: q},
		users:        &UserRepo{q: q},
		userReserves: &UserReserveRepo{q: q},
		audit:        &AuditRepo{q: q},
		cursors:      &CursorRepo{q: q},
	}
}

func (t *txStore) Registry() store.InstrumentRegistry        { return t.registry }
func (t *txStore) Reserves() store.ReserveRepository         { return t.reserves }
func (t *txStore) Users() store.UserRepository               { return t.users }
func (t *txStore) UserReserves() store.UserReserveRepository { return t.userReserves }
func (t *txStore) Audit() store.AuditRepository              { return t.audit }
func (t *txStore) Cursors() store.CursorRepository           { return t.cursors }

// numeric renders v for a NUMERIC parameter; nil is stored as zero.
func numeric(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// parseNumeric parses a NUMERIC column scanned as text.
func parseNumeric(column, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("parse %s %q: not an integer", column, s)
	}
	return v, nil
}
