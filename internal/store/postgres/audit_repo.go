package postgres

import (
	"context"
	"fmt"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// AuditRepo writes incentivized_actions and claim_incentive_calls. Records
// are keyed by transaction hash and a repeated hash overwrites the row.
type AuditRepo struct {
	q querier
}

func (r *AuditRepo) SaveIncentivizedAction(ctx context.Context, a *model.IncentivizedAction) error {
	if err := r.upsert(ctx, "incentivized_actions", a.ID, a.IncentivesController, a.User, numeric(a.Amount), a.BlockNumber, a.Timestamp); err != nil {
		return fmt.Errorf("save incentivized action: %w", err)
	}
	return nil
}

func (r *AuditRepo) SaveClaimIncentiveCall(ctx context.Context, c *model.ClaimIncentiveCall) error {
	if err := r.upsert(ctx, "claim_incentive_calls", c.ID, c.IncentivesController, c.User, numeric(c.Amount), c.BlockNumber, c.Timestamp); err != nil {
		return fmt.Errorf("save claim incentive call: %w", err)
	}
	return nil
}

// upsert writes one audit row; table is one of the two fixed audit tables.
func (r *AuditRepo) upsert(ctx context.Context, table, id, controller, user, amount string, block uint64, ts int32) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO `+table+` (id, incentives_controller, user_address, amount, block_number, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			incentives_controller = EXCLUDED.incentives_controller,
			user_address = EXCLUDED.user_address,
			amount = EXCLUDED.amount,
			block_number = EXCLUDED.block_number,
			block_timestamp = EXCLUDED.block_timestamp
	`, id, controller, user, amount, int64(block), ts)
	return err
}
