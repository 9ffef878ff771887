package auth

// UserRole is a role name
type UserRole = string

const (
	// RoleUser is the default role assigned at registration
	RoleUser UserRole = "User"
	// RoleAdmin can manage other users' roles
	RoleAdmin UserRole = "Admin"
)

// DefaultRoles returns the roles seeded into a fresh roles store.
func DefaultRoles() []UserRole {
	return []UserRole{RoleUser, RoleAdmin}
}

// ContainsRole reports whether the role name is present in the set.
// Role names are matched exactly, case sensitive.
func ContainsRole(roles []string, name string) bool {
	for _, r := range roles {
		if r == name {
			return true
		}
	}
	return false
}
