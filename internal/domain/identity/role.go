package identity

// Role represents the single business role assigned to a user.
// The set is closed: authorization decisions switch exhaustively over
// these four values and treat anything else as a denial.
type Role string

const (
	RoleAdmin   Role = "admin"   // Platform staff, cross-company access
	RoleOwner   Role = "owner"   // Owns exactly one company
	RoleManager Role = "manager" // Employed by one company via membership
	RoleClient  Role = "client"  // End customer, no company scope
)

// IsValid reports whether the role is one of the known values
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleManager, RoleClient:
		return true
	}
	return false
}

// IsCompanyStaff reports whether the role operates on behalf of a company
func (r Role) IsCompanyStaff() bool {
	return r == RoleOwner || r == RoleManager
}

// OneOf reports whether the role is in the given set
func (r Role) OneOf(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// AllRoles returns every valid role, in privilege order
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleOwner, RoleManager, RoleClient}
}
