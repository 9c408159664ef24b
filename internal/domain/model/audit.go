package model

import (
	"math/big"
	"time"
)

// IncentivizedAction records a RewardsAccrued emission. ID is the tx hash.
type IncentivizedAction struct {
	ID                   string    `db:"id" json:"id"`
	IncentivesController string    `db:"incentives_controller" json:"incentives_controller"`
	User                 string    `db:"user_address" json:"user"`
	Amount               *big.Int  `db:"amount" json:"amount"`
	BlockNumber          uint64    `db:"block_number" json:"block_number"`
	Timestamp            int32     `db:"block_timestamp" json:"timestamp"`
	CreatedAt            time.Time `db:"created_at" json:"-"`
}

// ClaimIncentiveCall records a RewardsClaimed emission. ID is the tx hash.
type ClaimIncentiveCall struct {
	ID                   string    `db:"id" json:"id"`
	IncentivesController string    `db:"incentives_controller" json:"incentives_controller"`
	User                 string    `db:"user_address" json:"user"`
	Amount               *big.Int  `db:"amount" json:"amount"`
	BlockNumber          uint64    `db:"block_number" json:"block_number"`
	Timestamp            int32     `db:"block_timestamp" json:"timestamp"`
	CreatedAt            time.Time `db:"created_at" json:"-"`
}
