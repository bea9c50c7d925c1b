package role

import "fmt"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSuperAdmin   Role = "superadmin"
	RoleRep          Role = "rep"
	RolePhotographer Role = "photographer"
	RoleEditor       Role = "editor"
	RoleClient       Role = "client"
)

func Parse(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSuperAdmin, RoleRep, RolePhotographer, RoleEditor, RoleClient:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

// AdminClass covers roles with full administrative authority over shoots.
func (r Role) AdminClass() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// RepClass covers staff roles that may act on behalf of the company
// (direct holds, hold-request decisions). Admin-class implies rep-class.
func (r Role) RepClass() bool {
	return r.AdminClass() || r == RoleRep
}

func (r Role) IsClient() bool {
	return r == RoleClient
}
