package domain

import dErrors "homeward/pkg/domain-errors"

// Role identifies which of the three actor kinds is invoking an operation.
// The engine trusts the role supplied by the authentication layer; every
// role-gated transition is validated against it.
type Role string

const (
	RoleAdopter      Role = "adopter"
	RoleOrganization Role = "organization"
	RoleAdmin        Role = "admin"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RoleAdopter:      true,
	RoleOrganization: true,
	RoleAdmin:        true,
}

// ParseRole constructs a Role from external input (JWT claims, test setup).
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown role")
	}
	return r, nil
}

func (r Role) IsValid() bool  { return validRoles[r] }
func (r Role) String() string { return string(r) }

// Actor is the authenticated caller of an engine operation. ID is the
// actor's entity id rendered as a string so one type covers all three roles.
type Actor struct {
	ID   string
	Role Role
}

// IsZero reports whether no actor was supplied.
func (a Actor) IsZero() bool {
	return a.ID == "" && a.Role == ""
}
