package handler

import (
	"time"

	identityapp "github.com/fleetrent/backend/internal/application/identity"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents a token pair in responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// AuthUserResponse represents the authenticated user in responses
type AuthUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

// LoginResponse represents the login response body
type LoginResponse struct {
	Token TokenResponse    `json:"token"`
	User  AuthUserResponse `json:"user"`
}

// RefreshTokenRequest represents the token refresh request body
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse represents the token refresh response body
type RefreshTokenResponse struct {
	Token TokenResponse `json:"token"`
}

// LogoutResponse represents the logout response body
type LogoutResponse struct {
	Message string `json:"message"`
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// RegisterClientRequest represents the client signup request body
type RegisterClientRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

// RegisterCompanyRequest creates an owner account together with its company
type RegisterCompanyRequest struct {
	OwnerEmail    string `json:"owner_email" binding:"required,email"`
	OwnerPassword string `json:"owner_password" binding:"required,min=8"`
	OwnerName     string `json:"owner_name" binding:"required"`
	CompanyName   string `json:"company_name" binding:"required"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
}

// CompanyResponse represents a company in responses
type CompanyResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
	Status  string `json:"status"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// RegisterCompanyResponse represents the company signup response body
type RegisterCompanyResponse struct {
	Owner   AuthUserResponse `json:"owner"`
	Company CompanyResponse  `json:"company"`
}

// CurrentUserResponse describes the caller's effective scope
type CurrentUserResponse struct {
	UserID       string  `json:"user_id"`
	Role         string  `json:"role"`
	CompanyID    *string `json:"company_id,omitempty"`
	Impersonated bool    `json:"impersonated"`
}

func newAuthUserResponse(user identityapp.UserInfo) AuthUserResponse {
	return AuthUserResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Phone: user.Phone,
		Role:  string(user.Role),
	}
}

func newCompanyResponse(company identityapp.CompanyInfo) CompanyResponse {
	return CompanyResponse{
		ID:      company.ID.String(),
		Name:    company.Name,
		OwnerID: company.OwnerID.String(),
		Status:  string(company.Status),
		Address: company.Address,
		Phone:   company.Phone,
	}
}
