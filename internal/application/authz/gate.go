package authz

import (
	"context"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/fleetrent/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gate errors. Forbidden is deliberately opaque: it never reveals
// whether the target entity exists.
var (
	ErrUnauthenticated = shared.NewDomainError("UNAUTHORIZED", "Authentication required")
	ErrForbidden       = shared.NewDomainError("FORBIDDEN", "Access denied")
)

// ScopeResolver derives the caller's effective scope from the database
type ScopeResolver interface {
	ResolveScope(ctx context.Context, principalID uuid.UUID) (identity.Scope, error)
}

// Request describes one authorization check
type Request struct {
	// PrincipalID is the authenticated user, uuid.Nil when anonymous
	PrincipalID uuid.UUID

	// AllowedRoles is the set of roles the operation accepts
	AllowedRoles []identity.Role

	// TargetCompanyID is the company whose data the operation touches,
	// nil for global operations
	TargetCompanyID *uuid.UUID

	// AdminMode and AdminModeCompanyID are the explicit impersonation
	// inputs. Both must be present for an overlay; either alone is
	// ignored.
	AdminMode          bool
	AdminModeCompanyID *uuid.UUID
}

// Grant is the proof that a check passed. Handlers receive the
// effective scope and never re-derive roles themselves.
type Grant struct {
	Principal uuid.UUID
	Scope     identity.Scope
}

// Gate is the single authorization chokepoint. Check is side-effect
// free and safe to call repeatedly for the same request.
type Gate struct {
	resolver    ScopeResolver
	companyRepo identity.CompanyRepository
	markers     auth.ImpersonationStore
	logger      *zap.Logger
}

// NewGate creates a new Gate
func NewGate(
	resolver ScopeResolver,
	companyRepo identity.CompanyRepository,
	markers auth.ImpersonationStore,
	logger *zap.Logger,
) *Gate {
	return &Gate{
		resolver:    resolver,
		companyRepo: companyRepo,
		markers:     markers,
		logger:      logger,
	}
}

// Check authorizes one request: authentication, fresh role lookup,
// optional admin-mode overlay, role set membership, then company
// match. Failures order 401 before 403; no store mutation happens on
// any failure path.
func (g *Gate) Check(ctx context.Context, req Request) (*Grant, error) {
	if req.PrincipalID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	scope, err := g.resolver.ResolveScope(ctx, req.PrincipalID)
	if err != nil {
		return nil, err
	}

	if req.AdminMode && req.AdminModeCompanyID != nil {
		overlaid, err := g.overlayCompanyMode(ctx, scope, *req.AdminModeCompanyID)
		if err != nil {
			return nil, err
		}
		scope = overlaid
	}

	if len(req.AllowedRoles) > 0 && !scope.Role.OneOf(req.AllowedRoles...) {
		g.logger.Debug("Role rejected",
			zap.String("principal_id", req.PrincipalID.String()),
			zap.String("role", string(scope.Role)))
		return nil, ErrForbidden
	}

	if req.TargetCompanyID != nil && !scope.AllowsCompany(*req.TargetCompanyID) {
		g.logger.Debug("Company scope rejected",
			zap.String("principal_id", req.PrincipalID.String()),
			zap.String("target_company_id", req.TargetCompanyID.String()))
		return nil, ErrForbidden
	}

	return &Grant{Principal: req.PrincipalID, Scope: scope}, nil
}

// overlayCompanyMode narrows an admin's global scope onto one company.
// Only the freshly resolved role decides: a non-admin asking for the
// overlay is refused outright, whatever marker exists in redis. The
// marker itself is context for the UI and the audit trail, never an
// authority source.
func (g *Gate) overlayCompanyMode(ctx context.Context, scope identity.Scope, target uuid.UUID) (identity.Scope, error) {
	if scope.Role != identity.RoleAdmin || scope.Impersonated {
		return identity.Scope{}, ErrForbidden
	}

	if _, err := g.companyRepo.FindByID(ctx, target); err != nil {
		// Opaque: the admin asked for a company that does not exist
		return identity.Scope{}, ErrForbidden
	}

	marker, err := g.markers.Get(ctx, scope.UserID)
	if err != nil {
		g.logger.Warn("Company-mode marker lookup failed",
			zap.String("admin_id", scope.UserID.String()), zap.Error(err))
	} else if marker == nil || marker.CompanyID != target {
		g.logger.Info("Company-mode request without matching marker",
			zap.String("admin_id", scope.UserID.String()),
			zap.String("target_company_id", target.String()))
	}

	return identity.NewImpersonatedScope(scope.UserID, target), nil
}
