package identity

import (
	"context"
	"errors"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegistrationService handles account onboarding: client
// self-registration, company registration, and manager membership.
type RegistrationService struct {
	userRepo       identity.UserRepository
	companyRepo    identity.CompanyRepository
	membershipRepo identity.MembershipRepository
	logger         *zap.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	userRepo identity.UserRepository,
	companyRepo identity.CompanyRepository,
	membershipRepo identity.MembershipRepository,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		userRepo:       userRepo,
		companyRepo:    companyRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
	}
}

// RegisterClient creates a client account
func (s *RegistrationService) RegisterClient(ctx context.Context, input RegisterClientInput) (*UserInfo, error) {
	user, err := identity.NewUser(input.Email, input.Password, input.Name, identity.RoleClient)
	if err != nil {
		return nil, err
	}
	if input.Phone != "" {
		if err := user.SetPhone(input.Phone); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("EMAIL_TAKEN", "Email is already registered")
		}
		return nil, err
	}

	s.logger.Info("Client registered", zap.String("user_id", user.ID.String()))
	info := newUserInfo(user)
	return &info, nil
}

// RegisterCompany creates an owner account and its company in one
// step. The company row is keyed on the owner, so a second company for
// the same owner is rejected by the store.
func (s *RegistrationService) RegisterCompany(ctx context.Context, input RegisterCompanyInput) (*RegisterCompanyResult, error) {
	owner, err := identity.NewUser(input.OwnerEmail, input.OwnerPassword, input.OwnerName, identity.RoleOwner)
	if err != nil {
		return nil, err
	}

	company, err := identity.NewCompany(input.CompanyName, owner.ID)
	if err != nil {
		return nil, err
	}
	company.Address = input.Address
	company.Phone = input.Phone

	if err := s.userRepo.Create(ctx, owner); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("EMAIL_TAKEN", "Email is already registered")
		}
		return nil, err
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		// Leaves an owner account without a company; scope resolution
		// fails closed for it until registration is retried.
		s.logger.Error("Company creation failed after owner was created",
			zap.String("owner_id", owner.ID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Company registered",
		zap.String("company_id", company.ID.String()),
		zap.String("owner_id", owner.ID.String()))

	return &RegisterCompanyResult{
		Owner:   newUserInfo(owner),
		Company: newCompanyInfo(company),
	}, nil
}

// AddManager promotes an existing client account to manager of the
// given company
func (s *RegistrationService) AddManager(ctx context.Context, input AddManagerInput) (*UserInfo, error) {
	company, err := s.companyRepo.FindByID(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	if !company.IsActive() {
		return nil, shared.NewDomainError("COMPANY_SUSPENDED", "Company is suspended")
	}

	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user.Role != identity.RoleClient {
		return nil, shared.NewDomainError("INVALID_ROLE", "Only client accounts can become managers")
	}

	membership, err := identity.NewManagerMembership(user.ID, company.ID)
	if err != nil {
		return nil, err
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_MANAGER", "User already manages a company")
		}
		return nil, err
	}

	user.Role = identity.RoleManager
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to promote user after membership create",
			zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Manager added",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", company.ID.String()))

	info := newUserInfo(user)
	return &info, nil
}

// RemoveManager detaches a manager from the given company and demotes
// the account back to client. A manager of a different company comes
// back as not found.
func (s *RegistrationService) RemoveManager(ctx context.Context, companyID, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != identity.RoleManager {
		return shared.NewDomainError("INVALID_ROLE", "User is not a manager")
	}

	membership, err := s.membershipRepo.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if membership.CompanyID != companyID {
		return shared.ErrNotFound
	}

	if err := s.membershipRepo.Delete(ctx, userID); err != nil {
		return err
	}

	user.Role = identity.RoleClient
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to demote user after membership delete",
			zap.String("user_id", userID.String()), zap.Error(err))
		return err
	}

	s.logger.Info("Manager removed", zap.String("user_id", userID.String()))
	return nil
}

// ListManagers returns the manager memberships of a company
func (s *RegistrationService) ListManagers(ctx context.Context, companyID uuid.UUID) ([]*identity.ManagerMembership, error) {
	return s.membershipRepo.FindByCompanyID(ctx, companyID)
}
