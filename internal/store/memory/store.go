// Package memory is an in-process Store used by tests and by the publish
// dry-run. Every transaction works on a copy of the state that replaces the
// committed state only when the callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/store"
)

type state struct {
	mappings     map[string]model.InstrumentMapping
	reserves     map[string]*model.Reserve
	users        map[string]*model.User
	userReserves map[string]*model.UserReserve
	actions      map[string]*model.IncentivizedAction
	claims       map[string]*model.ClaimIncentiveCall
	cursors      map[string]*model.IngestCursor
}

func newState() *state {
	return &state{
		mappings:     make(map[string]model.InstrumentMapping),
		reserves:     make(map[string]*model.Reserve),
		users:        make(map[string]*model.User),
		userReserves: make(map[string]*model.UserReserve),
		actions:      make(map[string]*model.IncentivizedAction),
		claims:       make(map[string]*model.ClaimIncentiveCall),
		cursors:      make(map[string]*model.IngestCursor),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.mappings {
		c.mappings[k] = v
	}
	for k, v := range s.reserves {
		c.reserves[k] = v.Clone()
	}
	for k, v := range s.users {
		c.users[k] = v.Clone()
	}
	for k, v := range s.userReserves {
		c.userReserves[k] = v.Clone()
	}
	for k, v := range s.actions {
		a := *v
		c.actions[k] = &a
	}
	for k, v := range s.claims {
		cl := *v
		c.claims[k] = &cl
	}
	for k, v := range s.cursors {
		cur := *v
		c.cursors[k] = &cur
	}
	return c
}

// Store is safe for concurrent use. Transactions are serialized.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

var (
	_ store.Transactor     = (*Store)(nil)
	_ store.Reader         = (*Store)(nil)
	_ store.RegistryWriter = (*Store)(nil)
)

func New() *Store {
	return &Store{state: newState(), now: time.Now}
}

// InTx runs fn against a private copy of the state and publishes the copy
// when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txStore{state: s.state.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// UpsertMapping registers an instrument.
func (s *Store) UpsertMapping(_ context.Context, m *model.InstrumentMapping) error {
	s.PutMapping(*m)
	return nil
}

// PutMapping registers an instrument mapping.
func (s *Store) PutMapping(m model.InstrumentMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Instrument = model.NormalizeAddress(m.Instrument)
	m.Pool = model.NormalizeAddress(m.Pool)
	m.UnderlyingAsset = model.NormalizeAddress(m.UnderlyingAsset)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.state.mappings[m.Instrument] = m
}

// PutReserve stores a copy of r.
func (s *Store) PutReserve(r *model.Reserve) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.reserves[r.ID] = r.Clone()
}

// PutUserReserve stores a copy of ur.
func (s *Store) PutUserReserve(ur *model.UserReserve) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.userReserves[ur.ID] = ur.Clone()
}

func (s *Store) GetReserve(_ context.Context, id string) (*model.Reserve, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.reserves[id].Clone(), nil
}

func (s *Store) GetUser(_ context.Context, address string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.users[model.NormalizeAddress(address)].Clone(), nil
}

func (s *Store) GetUserReserve(_ context.Context, id string) (*model.UserReserve, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.userReserves[id].Clone(), nil
}

func (s *Store) GetCursor(_ context.Context, stream string) (*model.IngestCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.cursors[stream]
	if !ok {
		return nil, nil
	}
	cur := *c
	return &cur, nil
}

// IncentivizedActions returns the accrual audit records ordered by id.
func (s *Store) IncentivizedActions() []model.IncentivizedAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.IncentivizedAction, 0, len(s.state.actions))
	for _, a := range s.state.actions {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ClaimIncentiveCalls returns the claim audit records ordered by id.
func (s *Store) ClaimIncentiveCalls() []model.ClaimIncentiveCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ClaimIncentiveCall, 0, len(s.state.claims))
	for _, c := range s.state.claims {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
