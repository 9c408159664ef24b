package postgres

import (
	"context"
	"errors"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/store"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewStore(&DB{db}), mock
}

var reserveColumns = []string{
	"id", "underlying_asset", "pool",
	"a_token", "a_emission_per_second", "a_incentives_index", "a_incentives_last_update",
	"v_token", "v_emission_per_second", "v_incentives_index", "v_incentives_last_update",
	"s_token", "s_emission_per_second", "s_incentives_index", "s_incentives_last_update",
	"updated_at",
}

func TestGetReserve(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM reserves")).
		WithArgs("0xu0xp").
		WillReturnRows(sqlmock.NewRows(reserveColumns).AddRow(
			"0xu0xp", "0xu", "0xp",
			"0xa", "3", "115792089237316195423570985008687907853269984665640564039457584007913129639935", 1000,
			"0xv", "0", "0", 0,
			"0xs", "0", "7", 20,
			now,
		))

	r, err := s.GetReserve(context.Background(), "0xu0xp")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "0xa", r.Accrual.Token)
	assert.Equal(t, int64(3), r.Accrual.EmissionPerSecond.Int64())
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", r.Accrual.Index.String())
	assert.Equal(t, int32(1000), r.Accrual.LastUpdateTimestamp)
	assert.Equal(t, int64(7), r.StableDebt.Index.Int64())
	assert.Equal(t, int32(20), r.StableDebt.LastUpdateTimestamp)
}

func TestGetReserve_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reserves")).
		WithArgs("0xmissing").
		WillReturnRows(sqlmock.NewRows(reserveColumns))

	r, err := s.GetReserve(context.Background(), "0xmissing")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestGetReserve_BadNumeric(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reserves")).
		WithArgs("0xu0xp").
		WillReturnRows(sqlmock.NewRows(reserveColumns).AddRow(
			"0xu0xp", "0xu", "0xp",
			"0xa", "1.5", "0", 0,
			"0xv", "0", "0", 0,
			"0xs", "0", "0", 0,
			time.Now(),
		))

	_, err := s.GetReserve(context.Background(), "0xu0xp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a_emission_per_second")
}

func TestGetUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("0xabc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "incentives_rewards_accrued", "incentives_last_updated", "updated_at"}).
			AddRow("0xabc", "-40", 20, time.Now()))

	u, err := s.GetUser(context.Background(), "0xABC")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(-40), u.IncentivesRewardsAccrued.Int64())
	assert.Equal(t, int32(20), u.IncentivesLastUpdated)
}

func TestInTx_CommitsAllWrites(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("0xuser").
		WillReturnRows(sqlmock.NewRows([]string{"id", "incentives_rewards_accrued", "incentives_last_updated", "updated_at"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("0xuser", "100", int32(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO incentivized_actions")).
		WithArgs("0xtx", "0xctrl", "0xuser", "100", int64(7), int32(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ingest_cursors")).
		WithArgs("incentives", int64(7), int64(2), "0xtx").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.InTx(context.Background(), func(tx store.Store) error {
		u, err := tx.Users().GetOrInit(context.Background(), "0xuser")
		if err != nil {
			return err
		}
		u.IncentivesRewardsAccrued = big.NewInt(100)
		u.IncentivesLastUpdated = 10
		if err := tx.Users().Save(context.Background(), u); err != nil {
			return err
		}
		if err := tx.Audit().SaveIncentivizedAction(context.Background(), &model.IncentivizedAction{
			ID:                   "0xtx",
			IncentivesController: "0xctrl",
			User:                 "0xuser",
			Amount:               big.NewInt(100),
			BlockNumber:          7,
			Timestamp:            10,
		}); err != nil {
			return err
		}
		return tx.Cursors().Advance(context.Background(), &model.IngestCursor{
			Stream:      "incentives",
			BlockNumber: 7,
			LogIndex:    2,
			TxHash:      "0xtx",
		})
	})
	require.NoError(t, err)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO claim_incentive_calls")).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx store.Store) error {
		return tx.Audit().SaveClaimIncentiveCall(context.Background(), &model.ClaimIncentiveCall{
			ID:     "0xtx",
			User:   "0xuser",
			Amount: big.NewInt(1),
		})
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "save claim incentive call")
}

func TestMappingRepo(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM map_asset_pools")).
		WithArgs("0xaa").
		WillReturnRows(sqlmock.NewRows([]string{"instrument", "pool", "underlying_asset", "created_at"}).
			AddRow("0xaa", "0xp", "0xu", created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM map_asset_pools")).
		WithArgs("0xbb").
		WillReturnRows(sqlmock.NewRows([]string{"instrument", "pool", "underlying_asset", "created_at"}))
	mock.ExpectCommit()

	err := s.InTx(context.Background(), func(tx store.Store) error {
		m, err := tx.Registry().GetMapping(context.Background(), "0xAA")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "0xu0xp", m.ReserveID())

		missing, err := tx.Registry().GetMapping(context.Background(), "0xbb")
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}

func TestUpsertMapping_Normalizes(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO map_asset_pools")).
		WithArgs("0xaa", "0xpp", "0xuu").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpsertMapping(context.Background(), &model.InstrumentMapping{
		Instrument:      "0xAA",
		Pool:            "0xPP",
		UnderlyingAsset: "0xUU",
	}))
}

func TestSaveUserReserve(t *testing.T) {
	s, mock := newMockStore(t)

	ur := model.NewUserReserve("0xuser", "0xu0xp")
	ur.VariableDebt.Index = big.NewInt(21)
	ur.VariableDebt.LastUpdateTimestamp = 33

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_reserves")).
		WithArgs(ur.ID, "0xuser", "0xu0xp", "0", int32(0), "21", int32(33), "0", int32(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.InTx(context.Background(), func(tx store.Store) error {
		return tx.UserReserves().Save(context.Background(), ur)
	}))
}

func TestGetCursor(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ingest_cursors")).
		WithArgs("incentives").
		WillReturnRows(sqlmock.NewRows([]string{"stream", "block_number", "log_index", "tx_hash", "updated_at"}).
			AddRow("incentives", int64(12), int64(3), "0xtx", time.Now()))

	c, err := s.GetCursor(context.Background(), "incentives")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint64(12), c.BlockNumber)
	assert.Equal(t, uint32(3), c.LogIndex)
	assert.True(t, c.Covers(12, 3))
	assert.False(t, c.Covers(12, 4))
}
