package memory

import (
	"context"
	"math/big"
	"time"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/store"
)

// txStore is the Store handed to an InTx callback.
type txStore struct {
	state *state
	now   func() time.Time
}

func (t *txStore) Registry() store.InstrumentRegistry        { return registryRepo{t} }
func (t *txStore) Reserves() store.ReserveRepository         { return reserveRepo{t} }
func (t *txStore) Users() store.UserRepository               { return userRepo{t} }
func (t *txStore) UserReserves() store.UserReserveRepository { return userReserveRepo{t} }
func (t *txStore) Audit() store.AuditRepository              { return auditRepo{t} }
func (t *txStore) Cursors() store.CursorRepository           { return cursorRepo{t} }

type registryRepo struct{ tx *txStore }

func (r registryRepo) GetMapping(_ context.Context, instrument string) (*model.InstrumentMapping, error) {
	m, ok := r.tx.state.mappings[model.NormalizeAddress(instrument)]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

type reserveRepo struct{ tx *txStore }

func (r reserveRepo) Get(_ context.Context, id string) (*model.Reserve, error) {
	return r.tx.state.reserves[id].Clone(), nil
}

func (r reserveRepo) Save(_ context.Context, reserve *model.Reserve) error {
	c := reserve.Clone()
	c.UpdatedAt = r.tx.now()
	r.tx.state.reserves[c.ID] = c
	return nil
}

type userRepo struct{ tx *txStore }

func (r userRepo) GetOrInit(_ context.Context, address string) (*model.User, error) {
	if u, ok := r.tx.state.users[model.NormalizeAddress(address)]; ok {
		return u.Clone(), nil
	}
	return model.NewUser(address), nil
}

func (r userRepo) Save(_ context.Context, u *model.User) error {
	c := u.Clone()
	c.UpdatedAt = r.tx.now()
	r.tx.state.users[c.ID] = c
	return nil
}

type userReserveRepo struct{ tx *txStore }

func (r userReserveRepo) Get(_ context.Context, id string) (*model.UserReserve, error) {
	return r.tx.state.userReserves[id].Clone(), nil
}

func (r userReserveRepo) Save(_ context.Context, ur *model.UserReserve) error {
	c := ur.Clone()
	c.UpdatedAt = r.tx.now()
	r.tx.state.userReserves[c.ID] = c
	return nil
}

type auditRepo struct{ tx *txStore }

func (r auditRepo) SaveIncentivizedAction(_ context.Context, a *model.IncentivizedAction) error {
	c := *a
	c.Amount = copyInt(a.Amount)
	c.CreatedAt = r.tx.now()
	r.tx.state.actions[c.ID] = &c
	return nil
}

func (r auditRepo) SaveClaimIncentiveCall(_ context.Context, cl *model.ClaimIncentiveCall) error {
	c := *cl
	c.Amount = copyInt(cl.Amount)
	c.CreatedAt = r.tx.now()
	r.tx.state.claims[c.ID] = &c
	return nil
}

type cursorRepo struct{ tx *txStore }

func (r cursorRepo) Get(_ context.Context, stream string) (*model.IngestCursor, error) {
	c, ok := r.tx.state.cursors[stream]
	if !ok {
		return nil, nil
	}
	cur := *c
	return &cur, nil
}

func (r cursorRepo) Advance(_ context.Context, c *model.IngestCursor) error {
	cur := *c
	cur.UpdatedAt = r.tx.now()
	r.tx.state.cursors[cur.Stream] = &cur
	return nil
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
