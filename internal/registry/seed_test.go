package registry

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/store"
	"github.com/emperorhan/incentives-indexer/internal/store/memory"
	storemocks "github.com/emperorhan/incentives-indexer/internal/store/mocks"
)

const seedYAML = `
reserves:
  - underlying_asset: "0x6B175474E89094C44Da98b954EedeAC495271d0F"
    pool: "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5"
    a_token: "0x028171bCA77440897B824Ca71D1c56caC55b68A3"
    variable_debt_token: "0x6C3c78838c761c6Ac7bE9F59fe808ea2A6E4379d"
    stable_debt_token: "0x778A13D3eeb110A4f7bb6529F99c000119a08E92"
  - underlying_asset: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
    pool: "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5"
    a_token: "0x030bA81f1c18d280636F32af80b9AAd02Cf0854e"
    variable_debt_token: "0xF63B34710400CAd3e044cFfDcAb00a0f32E33eCf"
    stable_debt_token: "0x0000000000000000000000000000000000000000"
`

var (
	daiReserve  = model.ReserveID("0x6B175474E89094C44Da98b954EedeAC495271d0F", "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5")
	wethReserve = model.ReserveID("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5")
)

func mustParse(t *testing.T, doc string) *Seed {
	t.Helper()
	seed, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return seed
}

func TestParse(t *testing.T) {
	seed := mustParse(t, seedYAML)
	require.Len(t, seed.Reserves, 2)
	assert.Len(t, seed.Reserves[0].tokens(), 3)
	assert.Len(t, seed.Reserves[1].tokens(), 2, "zero stable debt token is not an instrument")
}

func TestParse_Empty(t *testing.T) {
	seed := mustParse(t, "")
	assert.Empty(t, seed.Reserves)
}

func TestParse_Invalid(t *testing.T) {
	const pool = "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5"
	reserve := func(underlying, a, v string) string {
		return "  - underlying_asset: \"" + underlying + "\"\n" +
			"    pool: \"" + pool + "\"\n" +
			"    a_token: \"" + a + "\"\n" +
			"    variable_debt_token: \"" + v + "\"\n"
	}

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown field",
			doc:  "reserves:\n  - underlying: x\n",
			want: "decode registry seed",
		},
		{
			name: "bad address",
			doc:  "reserves:\n" + reserve("0x1234", "0x00000000000000000000000000000000000000a1", "0x00000000000000000000000000000000000000a2"),
			want: "invalid underlying_asset",
		},
		{
			name: "bad stable token",
			doc: "reserves:\n" + reserve("0x00000000000000000000000000000000000000d1", "0x00000000000000000000000000000000000000a1", "0x00000000000000000000000000000000000000a2") +
				"    stable_debt_token: \"nope\"\n",
			want: "invalid stable_debt_token",
		},
		{
			name: "duplicate reserve",
			doc: "reserves:\n" +
				reserve("0x00000000000000000000000000000000000000d1", "0x00000000000000000000000000000000000000a1", "0x00000000000000000000000000000000000000a2") +
				reserve("0x00000000000000000000000000000000000000D1", "0x00000000000000000000000000000000000000b1", "0x00000000000000000000000000000000000000b2"),
			want: "duplicates reserve 0",
		},
		{
			name: "instrument shared across reserves",
			doc: "reserves:\n" +
				reserve("0x00000000000000000000000000000000000000d1", "0x00000000000000000000000000000000000000a1", "0x00000000000000000000000000000000000000a2") +
				reserve("0x00000000000000000000000000000000000000d2", "0x00000000000000000000000000000000000000A1", "0x00000000000000000000000000000000000000b2"),
			want: "already mapped",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestImport_WritesReservesAndMappings(t *testing.T) {
	st := memory.New()
	im := NewImporter(st, st, slog.Default())

	res, err := im.Import(context.Background(), mustParse(t, seedYAML))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{ReservesCreated: 2, Mappings: 5}, res)

	dai, err := st.GetReserve(context.Background(), daiReserve)
	require.NoError(t, err)
	require.NotNil(t, dai)
	assert.Equal(t, "0x028171bca77440897b824ca71d1c56cac55b68a3", dai.Accrual.Token)
	assert.Equal(t, 0, dai.Accrual.Index.Sign())

	require.NoError(t, st.InTx(context.Background(), func(s store.Store) error {
		m, err := s.Registry().GetMapping(context.Background(), "0x6c3c78838c761c6ac7be9f59fe808ea2a6e4379d")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, daiReserve, m.ReserveID())

		m, err = s.Registry().GetMapping(context.Background(), "0x0000000000000000000000000000000000000000")
		require.NoError(t, err)
		assert.Nil(t, m)
		return nil
	}))
}

func TestImport_KeepsIncentiveStateOnReimport(t *testing.T) {
	st := memory.New()
	im := NewImporter(st, st, slog.Default())
	seed := mustParse(t, seedYAML)

	_, err := im.Import(context.Background(), seed)
	require.NoError(t, err)

	require.NoError(t, st.InTx(context.Background(), func(s store.Store) error {
		r, err := s.Reserves().Get(context.Background(), wethReserve)
		if err != nil {
			return err
		}
		r.Accrual.Index = big.NewInt(777)
		r.Accrual.EmissionPerSecond = big.NewInt(3)
		return s.Reserves().Save(context.Background(), r)
	}))

	res, err := im.Import(context.Background(), seed)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{ReservesUpdated: 2, Mappings: 5}, res)

	weth, err := st.GetReserve(context.Background(), wethReserve)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(777).Cmp(weth.Accrual.Index))
	assert.Equal(t, 0, big.NewInt(3).Cmp(weth.Accrual.EmissionPerSecond))
}

func TestImport_ReserveFailureWritesNoMappings(t *testing.T) {
	ctrl := gomock.NewController(t)
	tx := storemocks.NewMockTransactor(ctrl)
	writer := storemocks.NewMockRegistryWriter(ctrl)

	tx.EXPECT().InTx(gomock.Any(), gomock.Any()).Return(errors.New("serialization failure"))
	writer.EXPECT().UpsertMapping(gomock.Any(), gomock.Any()).Times(0)

	_, err := NewImporter(tx, writer, slog.Default()).Import(context.Background(), mustParse(t, seedYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import reserves")
}

func TestImport_MappingFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := memory.New()
	writer := storemocks.NewMockRegistryWriter(ctrl)
	writer.EXPECT().UpsertMapping(gomock.Any(), gomock.Any()).Return(nil)
	writer.EXPECT().UpsertMapping(gomock.Any(), gomock.Any()).Return(errors.New("conn reset"))

	res, err := NewImporter(st, writer, slog.Default()).Import(context.Background(), mustParse(t, seedYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert mapping")
	assert.Equal(t, 1, res.Mappings)
}
