package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// ReserveRepo reads and writes reserves. Role columns use the prefixes
// a (accrual), v (variable debt) and s (stable debt).
type ReserveRepo struct {
	q querier
}

func (r *ReserveRepo) Get(ctx context.Context, id string) (*model.Reserve, error) {
	var (
		res           model.Reserve
		aRate, aIndex string
		vRate, vIndex string
		sRate, sIndex string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, underlying_asset, pool,
			a_token, a_emission_per_second, a_incentives_index, a_incentives_last_update,
			v_token, v_emission_per_second, v_incentives_index, v_incentives_last_update,
			s_token, s_emission_per_second, s_incentives_index, s_incentives_last_update,
			updated_at
		FROM reserves
		WHERE id = $1
	`, id).Scan(
		&res.ID, &res.UnderlyingAsset, &res.Pool,
		&res.Accrual.Token, &aRate, &aIndex, &res.Accrual.LastUpdateTimestamp,
		&res.VariableDebt.Token, &vRate, &vIndex, &res.VariableDebt.LastUpdateTimestamp,
		&res.StableDebt.Token, &sRate, &sIndex, &res.StableDebt.LastUpdateTimestamp,
		&res.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reserve: %w", err)
	}

	for _, f := range []struct {
		column string
		raw    string
		dst    **big.Int
	}{
		{"a_emission_per_second", aRate, &res.Accrual.EmissionPerSecond},
		{"a_incentives_index", aIndex, &res.Accrual.Index},
		{"v_emission_per_second", vRate, &res.VariableDebt.EmissionPerSecond},
		{"v_incentives_index", vIndex, &res.VariableDebt.Index},
		{"s_emission_per_second", sRate, &res.StableDebt.EmissionPerSecond},
		{"s_incentives_index", sIndex, &res.StableDebt.Index},
	} {
		v, err := parseNumeric(f.column, f.raw)
		if err != nil {
			return nil, fmt.Errorf("get reserve: %w", err)
		}
		*f.dst = v
	}
	return &res, nil
}

func (r *ReserveRepo) Save(ctx context.Context, res *model.Reserve) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO reserves (
			id, underlying_asset, pool,
			a_token, a_emission_per_second, a_incentives_index, a_incentives_last_update,
			v_token, v_emission_per_second, v_incentives_index, v_incentives_last_update,
			s_token, s_emission_per_second, s_incentives_index, s_incentives_last_update
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			a_token = EXCLUDED.a_token,
			a_emission_per_second = EXCLUDED.a_emission_per_second,
			a_incentives_index = EXCLUDED.a_incentives_index,
			a_incentives_last_update = EXCLUDED.a_incentives_last_update,
			v_token = EXCLUDED.v_token,
			v_emission_per_second = EXCLUDED.v_emission_per_second,
			v_incentives_index = EXCLUDED.v_incentives_index,
			v_incentives_last_update = EXCLUDED.v_incentives_last_update,
			s_token = EXCLUDED.s_token,
			s_emission_per_second = EXCLUDED.s_emission_per_second,
			s_incentives_index = EXCLUDED.s_incentives_index,
			s_incentives_last_update = EXCLUDED.s_incentives_last_update,
			updated_at = now()
	`,
		res.ID, res.UnderlyingAsset, res.Pool,
		res.Accrual.Token, numeric(res.Accrual.EmissionPerSecond), numeric(res.Accrual.Index), res.Accrual.LastUpdateTimestamp,
		res.VariableDebt.Token, numeric(res.VariableDebt.EmissionPerSecond), numeric(res.VariableDebt.Index), res.VariableDebt.LastUpdateTimestamp,
		res.StableDebt.Token, numeric(res.StableDebt.EmissionPerSecond), numeric(res.StableDebt.Index), res.StableDebt.LastUpdateTimestamp,
	)
	if err != nil {
		return fmt.Errorf("save reserve: %w", err)
	}
	return nil
}
