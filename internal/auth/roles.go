package auth

// Role represents a user role.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleViewer, RoleDispatcher, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

// CanOverrideOverage reports whether the role may post a waybill whose
// consumption exceeds the planned figure beyond the allowed threshold.
func CanOverrideOverage(role Role) bool {
	return RoleAtLeast(role, RoleAdmin)
}

func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleDispatcher:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
