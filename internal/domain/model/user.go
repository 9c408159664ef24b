package model

import (
	"math/big"
	"time"
)

// User holds the running net total of accrued-but-unclaimed incentives.
type User struct {
	ID                       string    `db:"id" json:"id"`
	IncentivesRewardsAccrued *big.Int  `db:"incentives_rewards_accrued" json:"incentives_rewards_accrued"`
	IncentivesLastUpdated    int32     `db:"incentives_last_updated" json:"incentives_last_updated"`
	UpdatedAt                time.Time `db:"updated_at" json:"updated_at"`
}

// NewUser returns a user with a zero total.
func NewUser(address string) *User {
	return &User{
		ID:                       NormalizeAddress(address),
		IncentivesRewardsAccrued: new(big.Int),
	}
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.IncentivesRewardsAccrued = cloneInt(u.IncentivesRewardsAccrued)
	return &c
}

// UserRoleIndex is a user's last-seen index for one role.
type UserRoleIndex struct {
	Index               *big.Int `json:"index"`
	LastUpdateTimestamp int32    `json:"last_update_timestamp"`
}

// UserReserve is the user aggregate for one (user, reserve) pair.
type UserReserve struct {
	ID           string        `db:"id" json:"id"`
	User         string        `db:"user_address" json:"user"`
	ReserveID    string        `db:"reserve_id" json:"reserve_id"`
	Accrual      UserRoleIndex `json:"a"`
	VariableDebt UserRoleIndex `json:"v"`
	StableDebt   UserRoleIndex `json:"s"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// NewUserReserve returns a user reserve with zero indexes.
func NewUserReserve(user, reserveID string) *UserReserve {
	return &UserReserve{
		ID:           UserReserveID(user, reserveID),
		User:         NormalizeAddress(user),
		ReserveID:    reserveID,
		Accrual:      UserRoleIndex{Index: new(big.Int)},
		VariableDebt: UserRoleIndex{Index: new(big.Int)},
		StableDebt:   UserRoleIndex{Index: new(big.Int)},
	}
}

func (ur *UserReserve) Role(role Role) *UserRoleIndex {
	switch role {
	case RoleAccrual:
		return &ur.Accrual
	case RoleVariableDebt:
		return &ur.VariableDebt
	case RoleStableDebt:
		return &ur.StableDebt
	default:
		return nil
	}
}

func (ur *UserReserve) Clone() *UserReserve {
	if ur == nil {
		return nil
	}
	c := *ur
	c.Accrual.Index = cloneInt(ur.Accrual.Index)
	c.VariableDebt.Index = cloneInt(ur.VariableDebt.Index)
	c.StableDebt.Index = cloneInt(ur.StableDebt.Index)
	return &c
}
