package identity

import (
	"context"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver errors. Lookup failures fail closed: a caller whose scope
// cannot be derived gets no scope at all.
var (
	ErrNoSession       = shared.NewDomainError("UNAUTHORIZED", "No authenticated session")
	ErrScopeResolution = shared.NewDomainError("FORBIDDEN", "Scope could not be resolved")
)

// ScopeResolver derives the effective data scope of a principal from
// the database. The token only names the principal; the role and any
// company binding are read fresh on every call, so a stale token can
// never carry stale authority.
type ScopeResolver struct {
	userRepo       identity.UserRepository
	companyRepo    identity.CompanyRepository
	membershipRepo identity.MembershipRepository
	logger         *zap.Logger
}

// NewScopeResolver creates a new ScopeResolver
func NewScopeResolver(
	userRepo identity.UserRepository,
	companyRepo identity.CompanyRepository,
	membershipRepo identity.MembershipRepository,
	logger *zap.Logger,
) *ScopeResolver {
	return &ScopeResolver{
		userRepo:       userRepo,
		companyRepo:    companyRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
	}
}

// ResolveScope loads the principal and derives their scope:
// admin → global, owner → their company, manager → the company of
// their membership, client → themselves. Idempotent; repeated calls
// with the same principal yield the same scope.
func (r *ScopeResolver) ResolveScope(ctx context.Context, principalID uuid.UUID) (identity.Scope, error) {
	if principalID == uuid.Nil {
		return identity.Scope{}, ErrNoSession
	}

	user, err := r.userRepo.FindByID(ctx, principalID)
	if err != nil {
		r.logger.Warn("Scope resolution failed: user lookup",
			zap.String("principal_id", principalID.String()), zap.Error(err))
		return identity.Scope{}, ErrScopeResolution
	}
	if user.Status != identity.UserStatusActive {
		r.logger.Warn("Scope resolution refused for inactive account",
			zap.String("principal_id", principalID.String()),
			zap.String("status", string(user.Status)))
		return identity.Scope{}, ErrScopeResolution
	}

	switch user.Role {
	case identity.RoleAdmin:
		return identity.NewUserScope(user.ID, identity.RoleAdmin), nil

	case identity.RoleOwner:
		company, err := r.companyRepo.FindByOwnerID(ctx, user.ID)
		if err != nil {
			r.logger.Warn("Scope resolution failed: owner without company",
				zap.String("principal_id", principalID.String()), zap.Error(err))
			return identity.Scope{}, ErrScopeResolution
		}
		return identity.NewCompanyScope(user.ID, identity.RoleOwner, company.ID), nil

	case identity.RoleManager:
		membership, err := r.membershipRepo.FindByUserID(ctx, user.ID)
		if err != nil {
			r.logger.Warn("Scope resolution failed: manager without membership",
				zap.String("principal_id", principalID.String()), zap.Error(err))
			return identity.Scope{}, ErrScopeResolution
		}
		return identity.NewCompanyScope(user.ID, identity.RoleManager, membership.CompanyID), nil

	case identity.RoleClient:
		return identity.NewUserScope(user.ID, identity.RoleClient), nil

	default:
		r.logger.Error("Scope resolution failed: unknown role",
			zap.String("principal_id", principalID.String()),
			zap.String("role", string(user.Role)))
		return identity.Scope{}, ErrScopeResolution
	}
}
