package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/metrics"
	"github.com/emperorhan/incentives-indexer/internal/store"
	"github.com/emperorhan/incentives-indexer/internal/store/memory"
	storemocks "github.com/emperorhan/incentives-indexer/internal/store/mocks"
)

const (
	instrument = "0x00000000000000000000000000000000000000aa"
	pool       = "0x00000000000000000000000000000000000000e1"
	underlying = "0x00000000000000000000000000000000000000d1"
)

func TestRegistry_CachesFoundMappings(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := storemocks.NewMockInstrumentRegistry(ctrl)
	next.EXPECT().GetMapping(gomock.Any(), instrument).
		Return(&model.InstrumentMapping{Instrument: instrument, Pool: pool, UnderlyingAsset: underlying}, nil).
		Times(1)

	reg := NewRegistry(16, time.Minute).Wrap(next)

	for i := 0; i < 3; i++ {
		m, err := reg.GetMapping(context.Background(), "0x00000000000000000000000000000000000000AA")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, model.ReserveID(underlying, pool), m.ReserveID())
	}
}

func TestRegistry_DoesNotCacheMisses(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := storemocks.NewMockInstrumentRegistry(ctrl)
	gomock.InOrder(
		next.EXPECT().GetMapping(gomock.Any(), instrument).Return(nil, nil),
		next.EXPECT().GetMapping(gomock.Any(), instrument).
			Return(&model.InstrumentMapping{Instrument: instrument, Pool: pool, UnderlyingAsset: underlying}, nil),
	)

	reg := NewRegistry(16, time.Minute).Wrap(next)

	m, err := reg.GetMapping(context.Background(), instrument)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = reg.GetMapping(context.Background(), instrument)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestRegistry_PropagatesErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := storemocks.NewMockInstrumentRegistry(ctrl)
	next.EXPECT().GetMapping(gomock.Any(), instrument).Return(nil, errors.New("db down")).Times(2)

	reg := NewRegistry(16, time.Minute).Wrap(next)
	for i := 0; i < 2; i++ {
		_, err := reg.GetMapping(context.Background(), instrument)
		assert.EqualError(t, err, "db down")
	}
}

func TestRegistry_Invalidate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := storemocks.NewMockInstrumentRegistry(ctrl)
	next.EXPECT().GetMapping(gomock.Any(), instrument).
		Return(&model.InstrumentMapping{Instrument: instrument}, nil).
		Times(2)

	cache := NewRegistry(16, time.Minute)
	reg := cache.Wrap(next)

	_, err := reg.GetMapping(context.Background(), instrument)
	require.NoError(t, err)
	cache.Invalidate("0x00000000000000000000000000000000000000AA")
	_, err = reg.GetMapping(context.Background(), instrument)
	require.NoError(t, err)
}

func TestRegistry_TransactorServesCachedMappings(t *testing.T) {
	t.Parallel()

	st := memory.New()
	st.PutMapping(model.InstrumentMapping{Instrument: instrument, Pool: pool, UnderlyingAsset: underlying})

	cache := NewRegistry(16, time.Minute)
	tx := cache.Transactor(st)

	lookup := func() *model.InstrumentMapping {
		var got *model.InstrumentMapping
		require.NoError(t, tx.InTx(context.Background(), func(s store.Store) error {
			var err error
			got, err = s.Registry().GetMapping(context.Background(), instrument)
			return err
		}))
		return got
	}

	require.NotNil(t, lookup())
	assert.Equal(t, 1, cache.Len())

	// The cached entry survives even though a later transaction sees a
	// store without the mapping.
	empty := memory.New()
	var got *model.InstrumentMapping
	require.NoError(t, cache.Transactor(empty).InTx(context.Background(), func(s store.Store) error {
		var err error
		got, err = s.Registry().GetMapping(context.Background(), instrument)
		return err
	}))
	require.NotNil(t, got)
	assert.Equal(t, pool, got.Pool)
}

func mappingFor(addr string) *model.InstrumentMapping {
	return &model.InstrumentMapping{Instrument: addr, Pool: pool, UnderlyingAsset: underlying}
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	const other = "0x00000000000000000000000000000000000000bb"

	ctrl := gomock.NewController(t)
	next := storemocks.NewMockInstrumentRegistry(ctrl)
	next.EXPECT().GetMapping(gomock.Any(), instrument).Return(mappingFor(instrument), nil).Times(2)
	next.EXPECT().GetMapping(gomock.Any(), other).Return(mappingFor(other), nil).Times(1)

	before := testutil.ToFloat64(metrics.RegistryCacheRemovals)
	cache := NewRegistry(1, time.Minute)
	reg := cache.Wrap(next)

	for _, addr := range []string{instrument, other, instrument} {
		_, err := reg.GetMapping(context.Background(), addr)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RegistryCacheRemovals)-before)
}

func TestRegistry_EntriesExpire(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := storemocks.NewMockInstrumentRegistry(ctrl)
	next.EXPECT().GetMapping(gomock.Any(), instrument).Return(mappingFor(instrument), nil).Times(2)

	reg := NewRegistry(16, 20*time.Millisecond).Wrap(next)

	_, err := reg.GetMapping(context.Background(), instrument)
	require.NoError(t, err)
	_, err = reg.GetMapping(context.Background(), instrument)
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, err = reg.GetMapping(context.Background(), instrument)
	require.NoError(t, err)
}

func TestNewRegistry_NonPositiveCapacity(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	next := storemocks.NewMockInstrumentRegistry(ctrl)
	next.EXPECT().GetMapping(gomock.Any(), instrument).Return(mappingFor(instrument), nil).Times(1)

	cache := NewRegistry(0, 0)
	reg := cache.Wrap(next)
	for i := 0; i < 2; i++ {
		_, err := reg.GetMapping(context.Background(), instrument)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, cache.Len())
}
