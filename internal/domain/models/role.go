// internal/domain/models/role.go
package models

import "strings"

// Role is the closed set of account kinds.
type Role string

const (
	RoleStudent    Role = "student"
	RoleSupervisor Role = "supervisor"
	RoleRecruiter  Role = "recruiter"
	RoleAdmin      Role = "admin"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleStudent, RoleSupervisor, RoleRecruiter, RoleAdmin}

// ParseRole converts s into a Role. It trims and lowercases the input and
// reports false for anything outside the closed set.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleSupervisor, RoleRecruiter, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
