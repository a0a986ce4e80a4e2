package domain

import "fmt"

// Role is the closed set of actor roles. Route visibility and provisioning
// rules dispatch on it exhaustively; adding a role is a compile-visible
// change at every switch.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleTechnician Role = "TECHNICIAN"
	RoleUser       Role = "USER"
)

// AllRoles returns every valid role, in seniority order.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleTechnician, RoleUser}
}

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleTechnician, RoleUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// CanProvision reports whether an actor with role r may create an account
// with role target. Only ADMIN and MANAGER provision at all, and a MANAGER
// may create neither ADMIN nor MANAGER accounts.
func (r Role) CanProvision(target Role) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleManager:
		return target != RoleAdmin && target != RoleManager
	case RoleTechnician, RoleUser:
		return false
	}
	return false
}
