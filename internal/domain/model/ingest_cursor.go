package model

import "time"

// IngestCursor is the position of the last notification applied for a
// stream. Positions compare by (BlockNumber, LogIndex).
type IngestCursor struct {
	Stream      string    `db:"stream" json:"stream"`
	BlockNumber uint64    `db:"block_number" json:"block_number"`
	LogIndex    uint32    `db:"log_index" json:"log_index"`
	TxHash      string    `db:"tx_hash" json:"tx_hash"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the position (block, logIndex) was already applied.
func (c *IngestCursor) Covers(block uint64, logIndex uint32) bool {
	if c == nil {
		return false
	}
	if block != c.BlockNumber {
		return block < c.BlockNumber
	}
	return logIndex <= c.LogIndex
}
