package store

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks

import (
	"context"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// InstrumentRegistry resolves instrument addresses written by the
// registration flow. GetMapping returns (nil, nil) when absent.
type InstrumentRegistry interface {
	GetMapping(ctx context.Context, instrument string) (*model.InstrumentMapping, error)
}

// RegistryWriter is used by the registration import only.
type RegistryWriter interface {
	UpsertMapping(ctx context.Context, m *model.InstrumentMapping) error
}

// ReserveRepository provides access to asset aggregates. Get returns
// (nil, nil) when absent.
type ReserveRepository interface {
	Get(ctx context.Context, id string) (*model.Reserve, error)
	Save(ctx context.Context, r *model.Reserve) error
}

// UserRepository provides access to per-user reward totals.
type UserRepository interface {
	// GetOrInit returns the stored user or a new zero-total user. The new
	// user is not persisted until Save.
	GetOrInit(ctx context.Context, address string) (*model.User, error)
	Save(ctx context.Context, u *model.User) error
}

// UserReserveRepository provides access to user aggregates. Get returns
// (nil, nil) when absent.
type UserReserveRepository interface {
	Get(ctx context.Context, id string) (*model.UserReserve, error)
	Save(ctx context.Context, ur *model.UserReserve) error
}

// AuditRepository appends accrual and claim records. Saving an existing id
// overwrites the record.
type AuditRepository interface {
	SaveIncentivizedAction(ctx context.Context, a *model.IncentivizedAction) error
	SaveClaimIncentiveCall(ctx context.Context, c *model.ClaimIncentiveCall) error
}

// CursorRepository tracks the last applied notification per stream.
type CursorRepository interface {
	Get(ctx context.Context, stream string) (*model.IngestCursor, error)
	Advance(ctx context.Context, c *model.IngestCursor) error
}

// Store is the set of collaborators the reconciler mutates. A Store handed
// out by Transactor.InTx is bound to that transaction.
type Store interface {
	Registry() InstrumentRegistry
	Reserves() ReserveRepository
	Users() UserRepository
	UserReserves() UserReserveRepository
	Audit() AuditRepository
	Cursors() CursorRepository
}

// Transactor runs fn against a transaction-bound Store. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(Store) error) error
}

// Reader is the read-only query surface used by the admin API.
type Reader interface {
	GetReserve(ctx context.Context, id string) (*model.Reserve, error)
	GetUser(ctx context.Context, address string) (*model.User, error)
	GetUserReserve(ctx context.Context, id string) (*model.UserReserve, error)
	GetCursor(ctx context.Context, stream string) (*model.IngestCursor, error)
}
