package enums

import "fmt"

// Role represents a staff role granted through group membership. Customers
// hold no membership and fall through to RoleCustomer.
type Role string

const (
	RoleManager      Role = "Manager"
	RoleDeliveryCrew Role = "Delivery crew"
	RoleCustomer     Role = "Customer"
)

// membershipRoles are the roles stored as group membership rows. RoleCustomer
// is implicit and never persisted.
var membershipRoles = []Role{
	RoleManager,
	RoleDeliveryCrew,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known membership role.
func (r Role) IsValid() bool {
	for _, candidate := range membershipRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a membership Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range membershipRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
