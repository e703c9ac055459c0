package enums

import "fmt"

// ActorRole identifies what kind of principal is invoking the engine.
type ActorRole string

const (
	ActorRoleCustomer    ActorRole = "customer"
	ActorRoleDistributor ActorRole = "distributor"
	ActorRoleStore       ActorRole = "store"
	ActorRoleCompany     ActorRole = "company"
	ActorRoleAdmin       ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleCustomer,
	ActorRoleDistributor,
	ActorRoleStore,
	ActorRoleCompany,
	ActorRoleAdmin,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into a ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
