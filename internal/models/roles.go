package models

const (
	RoleUser     = "USER"
	RoleOperator = "OPERATOR"
	RoleAuditor  = "AUDITOR"
	RoleAdmin    = "ADMIN"
)

// AdminRoles may reach the /admin routes of the event service.
var AdminRoles = []string{RoleOperator, RoleAuditor, RoleAdmin}

// ValidRole reports whether role is one of the known role tags.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleOperator, RoleAuditor, RoleAdmin:
		return true
	}
	return false
}
