package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// CursorRepo tracks the last applied notification per stream.
type CursorRepo struct {
	q querier
}

func (r *CursorRepo) Get(ctx context.Context, stream string) (*model.IngestCursor, error) {
	var (
		c     model.IngestCursor
		block int64
		index int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT stream, block_number, log_index, tx_hash, updated_at
		FROM ingest_cursors
		WHERE stream = $1
	`, stream).Scan(&c.Stream, &block, &index, &c.TxHash, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cursor: %w", err)
	}
	c.BlockNumber = uint64(block)
	c.LogIndex = uint32(index)
	return &c, nil
}

func (r *CursorRepo) Advance(ctx context.Context, c *model.IngestCursor) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO ingest_cursors (stream, block_number, log_index, tx_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (stream) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			log_index = EXCLUDED.log_index,
			tx_hash = EXCLUDED.tx_hash,
			updated_at = now()
	`, c.Stream, int64(c.BlockNumber), int64(c.LogIndex), c.TxHash)
	if err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}
