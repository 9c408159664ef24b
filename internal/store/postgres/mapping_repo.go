package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// MappingRepo reads and writes map_asset_pools.
type MappingRepo struct {
	q querier
}

func (r *MappingRepo) GetMapping(ctx context.Context, instrument string) (*model.InstrumentMapping, error) {
	var m model.InstrumentMapping
	err := r.q.QueryRowContext(ctx, `
		SELECT instrument, pool, underlying_asset, created_at
		FROM map_asset_pools
		WHERE instrument = $1
	`, model.NormalizeAddress(instrument)).Scan(&m.Instrument, &m.Pool, &m.UnderlyingAsset, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	return &m, nil
}

func (r *MappingRepo) UpsertMapping(ctx context.Context, m *model.InstrumentMapping) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO map_asset_pools (instrument, pool, underlying_asset)
		VALUES ($1, $2, $3)
		ON CONFLICT (instrument) DO UPDATE SET
			pool = EXCLUDED.pool,
			underlying_asset = EXCLUDED.underlying_asset
	`, model.NormalizeAddress(m.Instrument), model.NormalizeAddress(m.Pool), model.NormalizeAddress(m.UnderlyingAsset))
	if err != nil {
		return fmt.Errorf("upsert mapping: %w", err)
	}
	return nil
}
