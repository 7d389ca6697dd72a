package handler

import (
	"encoding/json"
	"time"

	auditapp "github.com/fleetrent/backend/internal/application/audit"
	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/audit"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/interfaces/http/dto"
	"github.com/fleetrent/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles platform administration: company mode, the
// company directory, and the audit trail
type AdminHandler struct {
	BaseHandler
	companyMode *authz.CompanyModeService
	recorder    *auditapp.Recorder
	companyRepo identity.CompanyRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	companyMode *authz.CompanyModeService,
	recorder *auditapp.Recorder,
	companyRepo identity.CompanyRepository,
) *AdminHandler {
	return &AdminHandler{
		companyMode: companyMode,
		recorder:    recorder,
		companyRepo: companyRepo,
	}
}

// EnterCompanyModeRequest names the company to act as
type EnterCompanyModeRequest struct {
	CompanyID string `json:"company_id" binding:"required,uuid"`
}

// CompanyModeResponse represents the active impersonation marker
type CompanyModeResponse struct {
	AdminID   string    `json:"admin_id"`
	CompanyID string    `json:"company_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// AuditRecordResponse represents one audit trail entry
type AuditRecordResponse struct {
	ID           string          `json:"id"`
	ActorID      string          `json:"actor_id"`
	ActorRole    string          `json:"actor_role"`
	CompanyID    *string         `json:"company_id,omitempty"`
	Impersonated bool            `json:"impersonated"`
	Action       string          `json:"action"`
	EntityType   string          `json:"entity_type,omitempty"`
	EntityID     *string         `json:"entity_id,omitempty"`
	Detail       json.RawMessage `json:"detail,omitempty"`
	BeforeState  json.RawMessage `json:"before_state,omitempty"`
	AfterState   json.RawMessage `json:"after_state,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ClearAuditRequest optionally narrows the wipe to one company
type ClearAuditRequest struct {
	CompanyID *string `json:"company_id" binding:"omitempty,uuid"`
}

func newAuditRecordResponse(r *audit.Record) AuditRecordResponse {
	resp := AuditRecordResponse{
		ID:           r.ID.String(),
		ActorID:      r.ActorID.String(),
		ActorRole:    string(r.ActorRole),
		Impersonated: r.Impersonated,
		Action:       r.Action,
		EntityType:   r.EntityType,
		Detail:       r.Detail,
		BeforeState:  r.BeforeState,
		AfterState:   r.AfterState,
		CreatedAt:    r.CreatedAt,
	}
	if r.CompanyID != nil {
		id := r.CompanyID.String()
		resp.CompanyID = &id
	}
	if r.EntityID != nil {
		id := r.EntityID.String()
		resp.EntityID = &id
	}
	return resp
}

// EnterCompanyMode records that the admin is acting as a company. The
// marker is UI and audit context; authority still comes from the
// per-request headers checked by the gate.
func (h *AdminHandler) EnterCompanyMode(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	var req EnterCompanyModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		h.BadRequest(c, "Invalid company ID format")
		return
	}

	marker, err := h.companyMode.Enter(c.Request.Context(), grant, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CompanyModeResponse{
		AdminID:   marker.AdminID.String(),
		CompanyID: marker.CompanyID.String(),
		IssuedAt:  marker.IssuedAt,
	})
}

// LeaveCompanyMode clears the admin's impersonation marker
func (h *AdminHandler) LeaveCompanyMode(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	if err := h.companyMode.Leave(c.Request.Context(), grant); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// CurrentCompanyMode returns the active marker, if any
func (h *AdminHandler) CurrentCompanyMode(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	marker, err := h.companyMode.Current(c.Request.Context(), grant)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if marker == nil {
		h.Success(c, nil)
		return
	}

	h.Success(c, CompanyModeResponse{
		AdminID:   marker.AdminID.String(),
		CompanyID: marker.CompanyID.String(),
		IssuedAt:  marker.IssuedAt,
	})
}

// ListCompanies returns the company directory with pagination
func (h *AdminHandler) ListCompanies(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.Normalize()

	companies, total, err := h.companyRepo.FindAll(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]CompanyResponse, len(companies))
	for i, company := range companies {
		out[i] = CompanyResponse{
			ID:      company.ID.String(),
			Name:    company.Name,
			OwnerID: company.OwnerID.String(),
			Status:  string(company.Status),
			Address: company.Address,
			Phone:   company.Phone,
		}
	}

	h.SuccessWithMeta(c, out, total, req.Page, req.PageSize)
}

// ListAudit returns the audit trail visible to the caller. Staff see
// their company's records; a plain admin sees everything.
func (h *AdminHandler) ListAudit(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.Normalize()

	filter := audit.NewFilter()
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	filter.Action = c.Query("action")
	if raw := c.Query("actor_id"); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid actor ID format")
			return
		}
		filter.ActorID = &actorID
	}

	records, total, err := h.recorder.List(c.Request.Context(), grant, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]AuditRecordResponse, len(records))
	for i, r := range records {
		out[i] = newAuditRecordResponse(r)
	}

	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// ClearAudit wipes the audit trail, optionally for one company. The
// wipe is itself recorded.
func (h *AdminHandler) ClearAudit(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	var req ClearAuditRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	var companyID *uuid.UUID
	if req.CompanyID != nil {
		id, err := uuid.Parse(*req.CompanyID)
		if err != nil {
			h.BadRequest(c, "Invalid company ID format")
			return
		}
		companyID = &id
	}

	deleted, err := h.recorder.Clear(c.Request.Context(), grant, companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"deleted": deleted})
}
