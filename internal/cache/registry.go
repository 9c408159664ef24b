// Package cache holds the in-process caches that sit in front of the store.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/metrics"
	"github.com/emperorhan/incentives-indexer/internal/store"
)

const (
	DefaultRegistryCapacity = 4096
	DefaultRegistryTTL      = 5 * time.Minute
)

// Registry caches instrument mappings across transactions. Only found
// mappings are cached, so an instrument registered after a miss is seen on
// the next lookup; an updated mapping is seen once its entry expires.
type Registry struct {
	lru *expirable.LRU[string, model.InstrumentMapping]
}

// NewRegistry holds at most capacity mappings for ttl each. A non-positive
// ttl keeps entries until they are evicted or invalidated.
func NewRegistry(capacity int, ttl time.Duration) *Registry {
	if capacity < 1 {
		capacity = DefaultRegistryCapacity
	}
	onEvict := func(string, model.InstrumentMapping) {
		metrics.RegistryCacheRemovals.Inc()
	}
	return &Registry{lru: expirable.NewLRU(capacity, onEvict, ttl)}
}

// Wrap returns an InstrumentRegistry that consults the cache before next.
func (r *Registry) Wrap(next store.InstrumentRegistry) store.InstrumentRegistry {
	return &cachedRegistry{cache: r, next: next}
}

// Transactor decorates tx so every transaction-bound Store resolves
// instruments through the cache.
func (r *Registry) Transactor(tx store.Transactor) store.Transactor {
	return &cachingTransactor{cache: r, next: tx}
}

// Invalidate drops the cached mapping of instrument.
func (r *Registry) Invalidate(instrument string) {
	r.lru.Remove(model.NormalizeAddress(instrument))
}

// Len reports cached mappings, including expired ones not yet swept.
func (r *Registry) Len() int {
	return r.lru.Len()
}

func (r *Registry) lookup(key string) (*model.InstrumentMapping, bool) {
	m, ok := r.lru.Get(key)
	if !ok {
		metrics.RegistryCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.RegistryCacheLookups.WithLabelValues("hit").Inc()
	return &m, true
}

type cachedRegistry struct {
	cache *Registry
	next  store.InstrumentRegistry
}

func (c *cachedRegistry) GetMapping(ctx context.Context, instrument string) (*model.InstrumentMapping, error) {
	key := model.NormalizeAddress(instrument)
	if m, ok := c.cache.lookup(key); ok {
		return m, nil
	}

	m, err := c.next.GetMapping(ctx, key)
	if err != nil || m == nil {
		return m, err
	}
	c.cache.lru.Add(key, *m)
	return m, nil
}

type cachingTransactor struct {
	cache *Registry
	next  store.Transactor
}

func (t *cachingTransactor) InTx(ctx context.Context, fn func(store.Store) error) error {
	return t.next.InTx(ctx, func(st store.Store) error {
		return fn(cachedStore{Store: st, registry: t.cache.Wrap(st.Registry())})
	})
}

type cachedStore struct {
	store.Store
	registry store.InstrumentRegistry
}

func (s cachedStore) Registry() store.InstrumentRegistry { return s.registry }
