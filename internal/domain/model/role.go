package model

// Role is the part an instrument plays for its underlying reserve.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAccrual
	RoleVariableDebt
	RoleStableDebt
)

// Roles lists the known roles in resolution order.
var Roles = [...]Role{RoleAccrual, RoleVariableDebt, RoleStableDebt}

func (r Role) String() string {
	switch r {
	case RoleAccrual:
		return "accrual"
	case RoleVariableDebt:
		return "variable_debt"
	case RoleStableDebt:
		return "stable_debt"
	default:
		return "unknown"
	}
}

func (r Role) Known() bool {
	return r != RoleUnknown
}
