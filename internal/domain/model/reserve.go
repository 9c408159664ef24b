package model

import (
	"math/big"
	"time"
)

// RoleIncentives is the per-role incentive state of a reserve.
type RoleIncentives struct {
	Token               string   `json:"token"`
	EmissionPerSecond   *big.Int `json:"emission_per_second"`
	Index               *big.Int `json:"index"`
	LastUpdateTimestamp int32    `json:"last_update_timestamp"`
}

// Reserve is the asset aggregate for one (underlying asset, pool) pair.
type Reserve struct {
	ID              string         `db:"id" json:"id"`
	UnderlyingAsset string         `db:"underlying_asset" json:"underlying_asset"`
	Pool            string         `db:"pool" json:"pool"`
	Accrual         RoleIncentives `json:"a"`
	VariableDebt    RoleIncentives `json:"v"`
	StableDebt      RoleIncentives `json:"s"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// NewReserve returns a reserve with zeroed amounts for every role.
func NewReserve(underlyingAsset, pool, aToken, vToken, sToken string) *Reserve {
	return &Reserve{
		ID:              ReserveID(underlyingAsset, pool),
		UnderlyingAsset: NormalizeAddress(underlyingAsset),
		Pool:            NormalizeAddress(pool),
		Accrual:         RoleIncentives{Token: NormalizeAddress(aToken), EmissionPerSecond: new(big.Int), Index: new(big.Int)},
		VariableDebt:    RoleIncentives{Token: NormalizeAddress(vToken), EmissionPerSecond: new(big.Int), Index: new(big.Int)},
		StableDebt:      RoleIncentives{Token: NormalizeAddress(sToken), EmissionPerSecond: new(big.Int), Index: new(big.Int)},
	}
}

// Role returns a pointer to the slot for role, or nil for RoleUnknown.
func (r *Reserve) Role(role Role) *RoleIncentives {
	switch role {
	case RoleAccrual:
		return &r.Accrual
	case RoleVariableDebt:
		return &r.VariableDebt
	case RoleStableDebt:
		return &r.StableDebt
	default:
		return nil
	}
}

// Clone returns a deep copy; big.Int values are not shared.
func (r *Reserve) Clone() *Reserve {
	if r == nil {
		return nil
	}
	c := *r
	c.Accrual = r.Accrual.clone()
	c.VariableDebt = r.VariableDebt.clone()
	c.StableDebt = r.StableDebt.clone()
	return &c
}

func (ri RoleIncentives) clone() RoleIncentives {
	ri.EmissionPerSecond = cloneInt(ri.EmissionPerSecond)
	ri.Index = cloneInt(ri.Index)
	return ri
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
