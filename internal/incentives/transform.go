package incentives

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// UserIndexMode selects which user-reserve field a user index update writes.
type UserIndexMode string

const (
	// UserIndexModeRole writes the index of the resolved role.
	UserIndexModeRole UserIndexMode = "role"
	// UserIndexModeLegacy always writes the accrual-role index, as the
	// snapshot did historically. Timestamps stay role-specific.
	UserIndexModeLegacy UserIndexMode = "legacy"
)

// ParseUserIndexMode parses a configuration value; empty means role.
func ParseUserIndexMode(v string) (UserIndexMode, error) {
	switch UserIndexMode(strings.ToLower(strings.TrimSpace(v))) {
	case "", UserIndexModeRole:
		return UserIndexModeRole, nil
	case UserIndexModeLegacy:
		return UserIndexModeLegacy, nil
	default:
		return "", fmt.Errorf("unsupported user index mode %q", v)
	}
}

// ApplyEmissionRate returns a copy of r with role's emission rate and
// timestamp set. The copy is unchanged for RoleUnknown.
func ApplyEmissionRate(r *model.Reserve, role model.Role, rate *big.Int, ts int32) *model.Reserve {
	next := r.Clone()
	if slot := next.Role(role); slot != nil {
		slot.EmissionPerSecond = new(big.Int).Set(orZero(rate))
		slot.LastUpdateTimestamp = ts
	}
	return next
}

// ApplyAssetIndex returns a copy of r with role's index and timestamp set.
func ApplyAssetIndex(r *model.Reserve, role model.Role, index *big.Int, ts int32) *model.Reserve {
	next := r.Clone()
	if slot := next.Role(role); slot != nil {
		slot.Index = new(big.Int).Set(orZero(index))
		slot.LastUpdateTimestamp = ts
	}
	return next
}

// ApplyUserIndex returns a copy of ur with the user index and role timestamp
// set according to mode.
func ApplyUserIndex(ur *model.UserReserve, role model.Role, index *big.Int, ts int32, mode UserIndexMode) *model.UserReserve {
	next := ur.Clone()
	slot := next.Role(role)
	if slot == nil {
		return next
	}
	indexSlot := slot
	if mode == UserIndexModeLegacy {
		indexSlot = &next.Accrual
	}
	indexSlot.Index = new(big.Int).Set(orZero(index))
	slot.LastUpdateTimestamp = ts
	return next
}

// ApplyAccrual returns a copy of u with amount added to the running total.
func ApplyAccrual(u *model.User, amount *big.Int, ts int32) *model.User {
	next := u.Clone()
	next.IncentivesRewardsAccrued = new(big.Int).Add(total(next), orZero(amount))
	next.IncentivesLastUpdated = ts
	return next
}

// ApplyClaim returns a copy of u with amount subtracted from the running
// total. The result may be negative when a claim is seen before its accrual.
func ApplyClaim(u *model.User, amount *big.Int, ts int32) *model.User {
	next := u.Clone()
	next.IncentivesRewardsAccrued = new(big.Int).Sub(total(next), orZero(amount))
	next.IncentivesLastUpdated = ts
	return next
}

func total(u *model.User) *big.Int {
	if u.IncentivesRewardsAccrued == nil {
		return new(big.Int)
	}
	return u.IncentivesRewardsAccrued
}

// orZero reads a nil value as zero.
func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
