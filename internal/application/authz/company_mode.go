package authz

import (
	"context"
	"time"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyModeService manages the admin company-mode marker. The marker
// lets the UI and the audit trail show which company an admin stepped
// into; authority always comes from the Gate re-checking the admin
// role and the explicit per-request inputs.
type CompanyModeService struct {
	companyRepo identity.CompanyRepository
	markers     auth.ImpersonationStore
	markerTTL   time.Duration
	logger      *zap.Logger
}

// NewCompanyModeService creates a new CompanyModeService
func NewCompanyModeService(
	companyRepo identity.CompanyRepository,
	markers auth.ImpersonationStore,
	markerTTL time.Duration,
	logger *zap.Logger,
) *CompanyModeService {
	return &CompanyModeService{
		companyRepo: companyRepo,
		markers:     markers,
		markerTTL:   markerTTL,
		logger:      logger,
	}
}

// Enter records that the admin stepped into the given company
func (s *CompanyModeService) Enter(ctx context.Context, grant *Grant, companyID uuid.UUID) (*auth.ImpersonationMarker, error) {
	if grant.Scope.Role != identity.RoleAdmin {
		return nil, ErrForbidden
	}

	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, ErrForbidden
	}

	marker := auth.ImpersonationMarker{
		AdminID:   grant.Principal,
		CompanyID: company.ID,
		IssuedAt:  time.Now(),
	}
	if err := s.markers.Set(ctx, marker, s.markerTTL); err != nil {
		s.logger.Error("Failed to store company-mode marker",
			zap.String("admin_id", grant.Principal.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Admin entered company mode",
		zap.String("admin_id", grant.Principal.String()),
		zap.String("company_id", company.ID.String()))

	return &marker, nil
}

// Leave clears the admin's marker. Clearing an absent marker is fine.
func (s *CompanyModeService) Leave(ctx context.Context, grant *Grant) error {
	if grant.Scope.Role != identity.RoleAdmin {
		return ErrForbidden
	}

	if err := s.markers.Clear(ctx, grant.Principal); err != nil {
		s.logger.Error("Failed to clear company-mode marker",
			zap.String("admin_id", grant.Principal.String()), zap.Error(err))
		return err
	}

	s.logger.Info("Admin left company mode",
		zap.String("admin_id", grant.Principal.String()))
	return nil
}

// Current returns the admin's marker, nil when none is set
func (s *CompanyModeService) Current(ctx context.Context, grant *Grant) (*auth.ImpersonationMarker, error) {
	if grant.Scope.Role != identity.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.markers.Get(ctx, grant.Principal)
}
