package handler

import (
	"time"

	identityapp "github.com/fleetrent/backend/internal/application/identity"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CompanyHandler handles company profile and manager roster requests
type CompanyHandler struct {
	BaseHandler
	registrationService *identityapp.RegistrationService
	companyRepo         identity.CompanyRepository
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(
	registrationService *identityapp.RegistrationService,
	companyRepo identity.CompanyRepository,
) *CompanyHandler {
	return &CompanyHandler{
		registrationService: registrationService,
		companyRepo:         companyRepo,
	}
}

// AddManagerRequest promotes an existing client account by email
type AddManagerRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ManagerResponse represents a manager membership in responses
type ManagerResponse struct {
	UserID    string    `json:"user_id"`
	CompanyID string    `json:"company_id"`
	Since     time.Time `json:"since"`
}

// Get returns the caller's company profile
func (h *CompanyHandler) Get(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	company, err := h.companyRepo.FindByID(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CompanyResponse{
		ID:      company.ID.String(),
		Name:    company.Name,
		OwnerID: company.OwnerID.String(),
		Status:  string(company.Status),
		Address: company.Address,
		Phone:   company.Phone,
	})
}

// ListManagers returns the company's manager roster
func (h *CompanyHandler) ListManagers(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	memberships, err := h.registrationService.ListManagers(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ManagerResponse, len(memberships))
	for i, m := range memberships {
		out[i] = ManagerResponse{
			UserID:    m.UserID.String(),
			CompanyID: m.CompanyID.String(),
			Since:     m.CreatedAt,
		}
	}

	h.Success(c, out)
}

// AddManager promotes an existing client account to manager
func (h *CompanyHandler) AddManager(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req AddManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	user, err := h.registrationService.AddManager(c.Request.Context(), identityapp.AddManagerInput{
		CompanyID: companyID,
		Email:     req.Email,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, newAuthUserResponse(*user))
}

// RemoveManager detaches a manager and demotes the account to client
func (h *CompanyHandler) RemoveManager(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	userID, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	if err := h.registrationService.RemoveManager(c.Request.Context(), companyID, userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
