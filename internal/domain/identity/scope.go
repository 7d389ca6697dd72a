package identity

import (
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Scope is the resolved authority of a request. It is computed fresh
// for every request from the database, never cached across requests
// and never derived from token claims.
//
// CompanyID is set for owners and managers (their own company) and for
// admins acting in company mode (the impersonated company). For plain
// admins and clients it is nil.
type Scope struct {
	UserID       uuid.UUID
	Role         Role
	CompanyID    *uuid.UUID
	Impersonated bool
}

// NewUserScope builds the scope of a client or plain admin
func NewUserScope(userID uuid.UUID, role Role) Scope {
	return Scope{UserID: userID, Role: role}
}

// NewCompanyScope builds the scope of an owner or manager
func NewCompanyScope(userID uuid.UUID, role Role, companyID uuid.UUID) Scope {
	return Scope{UserID: userID, Role: role, CompanyID: &companyID}
}

// NewImpersonatedScope builds the scope of an admin acting as a company
func NewImpersonatedScope(adminID, companyID uuid.UUID) Scope {
	return Scope{UserID: adminID, Role: RoleAdmin, CompanyID: &companyID, Impersonated: true}
}

// IsAdmin reports whether the scope carries platform-admin authority
func (s Scope) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// AllowsCompany reports whether the scope may operate on the given
// company's data. Admins pass unconditionally; staff pass only for
// their own company.
func (s Scope) AllowsCompany(companyID uuid.UUID) bool {
	if s.Role == RoleAdmin && !s.Impersonated {
		return true
	}
	return s.CompanyID != nil && *s.CompanyID == companyID
}

// RequireCompany returns the company the scope is bound to, or an
// error when the scope carries no company at all.
func (s Scope) RequireCompany() (uuid.UUID, error) {
	if s.CompanyID == nil {
		return uuid.Nil, shared.ErrForbidden
	}
	return *s.CompanyID, nil
}
