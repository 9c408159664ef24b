package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

type UserReserveRepo struct {
	q querier
}

func (r *UserReserveRepo) Get(ctx context.Context, id string) (*model.UserReserve, error) {
	var (
		ur                     model.UserReserve
		aIndex, vIndex, sIndex string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_address, reserve_id,
			a_user_index, a_incentives_last_update,
			v_user_index, v_incentives_last_update,
			s_user_index, s_incentives_last_update,
			updated_at
		FROM user_reserves
		WHERE id = $1
	`, id).Scan(
		&ur.ID, &ur.User, &ur.ReserveID,
		&aIndex, &ur.Accrual.LastUpdateTimestamp,
		&vIndex, &ur.VariableDebt.LastUpdateTimestamp,
		&sIndex, &ur.StableDebt.LastUpdateTimestamp,
		&ur.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user reserve: %w", err)
	}

	if ur.Accrual.Index, err = parseNumeric("a_user_index", aIndex); err != nil {
		return nil, fmt.Errorf("get user reserve: %w", err)
	}
	if ur.VariableDebt.Index, err = parseNumeric("v_user_index", vIndex); err != nil {
		return nil, fmt.Errorf("get user reserve: %w", err)
	}
	if ur.StableDebt.Index, err = parseNumeric("s_user_index", sIndex); err != nil {
		return nil, fmt.Errorf("get user reserve: %w", err)
	}
	return &ur, nil
}

func (r *UserReserveRepo) Save(ctx context.Context, ur *model.UserReserve) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO user_reserves (
			id, user_address, reserve_id,
			a_user_index, a_incentives_last_update,
			v_user_index, v_incentives_last_update,
			s_user_index, s_incentives_last_update
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			a_user_index = EXCLUDED.a_user_index,
			a_incentives_last_update = EXCLUDED.a_incentives_last_update,
			v_user_index = EXCLUDED.v_user_index,
			v_incentives_last_update = EXCLUDED.v_incentives_last_update,
			s_user_index = EXCLUDED.s_user_index,
			s_incentives_last_update = EXCLUDED.s_incentives_last_update,
			updated_at = now()
	`,
		ur.ID, ur.User, ur.ReserveID,
		numeric(ur.Accrual.Index), ur.Accrual.LastUpdateTimestamp,
		numeric(ur.VariableDebt.Index), ur.VariableDebt.LastUpdateTimestamp,
		numeric(ur.StableDebt.Index), ur.StableDebt.LastUpdateTimestamp,
	)
	if err != nil {
		return fmt.Errorf("save user reserve: %w", err)
	}
	return nil
}
