package domain

import "time"

// Role enumerates the closed set of dashboard roles.
type Role string

const (
	RoleOrgAdmin      Role = "org_admin"
	RolePropertyAdmin Role = "property_admin"
	RoleSecurity      Role = "security"
	RoleMST           Role = "mst"
)

// Valid reports whether the value is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOrgAdmin, RolePropertyAdmin, RoleSecurity, RoleMST:
		return true
	}
	return false
}

// Resolver reports whether members with this role may be assigned tickets.
func (r Role) Resolver() bool {
	return r == RoleSecurity || r == RoleMST
}

// Member models a user of the facility platform. Org admins have no
// property binding; every other role is scoped to a single property.
type Member struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	OrganizationID string
	PropertyID     *string
	IsAvailable    bool
	CurrentFloor   string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
