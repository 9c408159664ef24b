package incentives

import (
	"github.com/emperorhan/incentives-indexer/internal/domain/model"
)

// ResolveRole matches instrument against the reserve's three role tokens in
// the fixed order accrual, variable debt, stable debt. It returns the first
// matching role (RoleUnknown if none) and how many slots matched; more than
// one match means the reserve violates the one-slot-per-address invariant.
func ResolveRole(instrument string, reserve *model.Reserve) (model.Role, int) {
	if reserve == nil {
		return model.RoleUnknown, 0
	}
	addr := model.NormalizeAddress(instrument)
	if addr == "" {
		return model.RoleUnknown, 0
	}

	resolved := model.RoleUnknown
	matches := 0
	for _, role := range model.Roles {
		if model.NormalizeAddress(reserve.Role(role).Token) != addr {
			continue
		}
		if matches == 0 {
			resolved = role
		}
		matches++
	}
	return resolved, matches
}
