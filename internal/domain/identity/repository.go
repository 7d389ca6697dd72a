package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindAll returns users matching the filter with pagination
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)

	// ExistsByEmail checks if an email is already registered
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// CompanyRepository defines the interface for company persistence
type CompanyRepository interface {
	// Create creates a new company
	Create(ctx context.Context, company *Company) error

	// Update updates an existing company
	Update(ctx context.Context, company *Company) error

	// FindByID finds a company by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)

	// FindByOwnerID finds the company owned by the given user
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*Company, error)

	// FindAll returns all companies with pagination
	FindAll(ctx context.Context, page, pageSize int) ([]*Company, int64, error)
}

// MembershipRepository defines the interface for manager memberships
type MembershipRepository interface {
	// Create attaches a manager to a company
	Create(ctx context.Context, membership *ManagerMembership) error

	// Delete detaches a manager from their company
	Delete(ctx context.Context, userID uuid.UUID) error

	// FindByUserID finds the membership of the given manager
	FindByUserID(ctx context.Context, userID uuid.UUID) (*ManagerMembership, error)

	// FindByCompanyID lists all managers of a company
	FindByCompanyID(ctx context.Context, companyID uuid.UUID) ([]*ManagerMembership, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	// Search keyword for email or name
	Keyword string

	// Filter by role
	Role *Role

	// Filter by status
	Status *UserStatus

	// Pagination
	Page     int
	PageSize int
}

// NewUserFilter creates a new UserFilter with default values
func NewUserFilter() UserFilter {
	return UserFilter{
		Page:     1,
		PageSize: 20,
	}
}

// WithKeyword sets the search keyword
func (f UserFilter) WithKeyword(keyword string) UserFilter {
	f.Keyword = keyword
	return f
}

// WithRole sets the role filter
func (f UserFilter) WithRole(role Role) UserFilter {
	f.Role = &role
	return f
}

// WithStatus sets the status filter
func (f UserFilter) WithStatus(status UserStatus) UserFilter {
	f.Status = &status
	return f
}

// WithPagination sets pagination parameters
func (f UserFilter) WithPagination(page, pageSize int) UserFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f UserFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f UserFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
