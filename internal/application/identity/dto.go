package identity

import (
	"time"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID    uuid.UUID
	Email string
	Name  string
	Phone string
	Role  identity.Role
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	TokenTTL time.Duration
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// RegisterClientInput contains the input for client self-registration
type RegisterClientInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// RegisterCompanyInput creates an owner account together with its company
type RegisterCompanyInput struct {
	OwnerEmail    string
	OwnerPassword string
	OwnerName     string
	CompanyName   string
	Address       string
	Phone         string
}

// RegisterCompanyResult contains the created owner and company
type RegisterCompanyResult struct {
	Owner   UserInfo
	Company CompanyInfo
}

// CompanyInfo contains basic company information
type CompanyInfo struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
	Status  identity.CompanyStatus
	Address string
	Phone   string
}

// AddManagerInput attaches an existing user to a company as manager
type AddManagerInput struct {
	CompanyID uuid.UUID
	Email     string
}

func newUserInfo(user *identity.User) UserInfo {
	return UserInfo{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Phone: user.Phone,
		Role:  user.Role,
	}
}

func newCompanyInfo(company *identity.Company) CompanyInfo {
	return CompanyInfo{
		ID:      company.ID,
		Name:    company.Name,
		OwnerID: company.OwnerID,
		Status:  company.Status,
		Address: company.Address,
		Phone:   company.Phone,
	}
}
