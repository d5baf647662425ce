package constants

import "strings"

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// ValidRoles is the set of allowed user roles.
var ValidRoles = []string{RoleUser, RoleAdmin, RoleSuperAdmin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeRole lowercases role; anything unknown becomes RoleUser.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if IsValidRole(r) {
		return r
	}
	return RoleUser
}
