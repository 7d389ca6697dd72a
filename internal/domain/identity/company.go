package identity

import (
	"strings"
	"time"

	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CompanyStatus represents the status of a rental company
type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

// Company is the aggregate root for a rental company. Each company is
// owned by exactly one user with the owner role; managers are attached
// through ManagerMembership records.
type Company struct {
	shared.BaseAggregateRoot
	Name    string
	OwnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Status  CompanyStatus
	Address string
	Phone   string
}

// TableName returns the database table name
func (Company) TableName() string {
	return "companies"
}

// NewCompany creates an active company owned by the given user
func NewCompany(name string, ownerID uuid.UUID) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot exceed 200 characters")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}

	return &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		OwnerID:           ownerID,
		Status:            CompanyStatusActive,
	}, nil
}

// Suspend suspends the company, blocking all staff operations
func (c *Company) Suspend() error {
	if c.Status == CompanyStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Company is already suspended")
	}

	c.Status = CompanyStatusSuspended
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Reactivate reverses a suspension
func (c *Company) Reactivate() error {
	if c.Status == CompanyStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Company is already active")
	}

	c.Status = CompanyStatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// IsActive reports whether the company can be operated on
func (c *Company) IsActive() bool {
	return c.Status == CompanyStatusActive
}

// ManagerMembership links a manager user to the company that employs
// them. A manager belongs to at most one company; the unique index on
// user_id enforces this at the persistence layer.
type ManagerMembership struct {
	shared.BaseEntity
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the database table name
func (ManagerMembership) TableName() string {
	return "managers"
}

// NewManagerMembership attaches a manager to a company
func NewManagerMembership(userID, companyID uuid.UUID) (*ManagerMembership, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}

	return &ManagerMembership{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		CompanyID:  companyID,
	}, nil
}
