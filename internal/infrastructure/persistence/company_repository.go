package persistence

import (
	"context"
	"errors"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements identity.CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create creates a new company
func (r *GormCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update updates an existing company
func (r *GormCompanyRepository) Update(ctx context.Context, company *identity.Company) error {
	result := r.db.WithContext(ctx).Save(company)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	var company identity.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

// FindByOwnerID finds the company owned by the given user
func (r *GormCompanyRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*identity.Company, error) {
	var company identity.Company
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &company, nil
}

// FindAll returns all companies with pagination
func (r *GormCompanyRepository) FindAll(ctx context.Context, page, pageSize int) ([]*identity.Company, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&identity.Company{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var companies []*identity.Company
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&companies).Error; err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

var _ identity.CompanyRepository = (*GormCompanyRepository)(nil)

// GormMembershipRepository implements identity.MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Create attaches a manager to a company
func (r *GormMembershipRepository) Create(ctx context.Context, membership *identity.ManagerMembership) error {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete detaches a manager from their company
func (r *GormMembershipRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&identity.ManagerMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByUserID finds the membership of the given manager
func (r *GormMembershipRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.ManagerMembership, error) {
	var membership identity.ManagerMembership
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &membership, nil
}

// FindByCompanyID lists all managers of a company
func (r *GormMembershipRepository) FindByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*identity.ManagerMembership, error) {
	var memberships []*identity.ManagerMembership
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

var _ identity.MembershipRepository = (*GormMembershipRepository)(nil)
