package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// UserRepo reads and writes per-user reward totals.
type UserRepo struct {
	q querier
}

// Get returns (nil, nil) when the user has never been saved.
func (r *UserRepo) Get(ctx context.Context, address string) (*model.User, error) {
	var (
		u       model.User
		accrued string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, incentives_rewards_accrued, incentives_last_updated, updated_at
		FROM users
		WHERE id = $1
	`, model.NormalizeAddress(address)).Scan(&u.ID, &accrued, &u.IncentivesLastUpdated, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.IncentivesRewardsAccrued, err = parseNumeric("incentives_rewards_accrued", accrued); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetOrInit(ctx context.Context, address string) (*model.User, error) {
	u, err := r.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return model.NewUser(address), nil
	}
	return u, nil
}

func (r *UserRepo) Save(ctx context.Context, u *model.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, incentives_rewards_accrued, incentives_last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			incentives_rewards_accrued = EXCLUDED.incentives_rewards_accrued,
			incentives_last_updated = EXCLUDED.incentives_last_updated,
			updated_at = now()
	`, u.ID, numeric(u.IncentivesRewardsAccrued), u.IncentivesLastUpdated)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}
