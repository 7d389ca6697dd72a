package handler

import (
	"context"
	"time"

	"github.com/fleetrent/backend/internal/application/authz"
	fleetapp "github.com/fleetrent/backend/internal/application/fleet"
	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/fleetrent/backend/internal/interfaces/http/dto"
	"github.com/fleetrent/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleHandler handles fleet management requests
type VehicleHandler struct {
	BaseHandler
	vehicleService *fleetapp.VehicleService
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(vehicleService *fleetapp.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// CreateVehicleRequest represents the vehicle registration request body
type CreateVehicleRequest struct {
	Make         string          `json:"make" binding:"required"`
	Model        string          `json:"model" binding:"required"`
	LicensePlate string          `json:"license_plate" binding:"required"`
	Year         int             `json:"year" binding:"required"`
	Mileage      int             `json:"mileage" binding:"omitempty,gte=0"`
	DailyRate    decimal.Decimal `json:"daily_rate" binding:"required"`
}

// UpdateVehicleRequest represents the vehicle edit request body.
// Version pins the revision the caller last saw; omit to skip the
// staleness check.
type UpdateVehicleRequest struct {
	Make      *string          `json:"make"`
	Model     *string          `json:"model"`
	Year      *int             `json:"year"`
	Mileage   *int             `json:"mileage"`
	DailyRate *decimal.Decimal `json:"daily_rate"`
	Version   *int             `json:"version"`
}

// VehicleTransitionRequest carries the optional version pin for a
// status transition
type VehicleTransitionRequest struct {
	Version *int `json:"version"`
}

// VehicleResponse represents a vehicle in responses
type VehicleResponse struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	LicensePlate string    `json:"license_plate"`
	Year         int       `json:"year"`
	Mileage      int       `json:"mileage"`
	DailyRate    string    `json:"daily_rate"`
	Status       string    `json:"status"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newVehicleResponse(v *fleet.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:           v.ID.String(),
		CompanyID:    v.CompanyID.String(),
		Make:         v.Make,
		Model:        v.Model,
		LicensePlate: v.LicensePlate,
		Year:         v.Year,
		Mileage:      v.Mileage,
		DailyRate:    v.DailyRate.StringFixed(2),
		Status:       string(v.Status),
		Version:      v.Version,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func newVehicleListResponse(vehicles []*fleet.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, len(vehicles))
	for i, v := range vehicles {
		out[i] = newVehicleResponse(v)
	}
	return out
}

// Create registers a vehicle in the caller's company
func (h *VehicleHandler) Create(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), grant, fleetapp.CreateVehicleInput{
		Make:         req.Make,
		Model:        req.Model,
		LicensePlate: req.LicensePlate,
		Year:         req.Year,
		Mileage:      req.Mileage,
		DailyRate:    req.DailyRate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, newVehicleResponse(vehicle))
}

// Get returns a single vehicle of the caller's company
func (h *VehicleHandler) Get(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	vehicle, err := h.vehicleService.Get(c.Request.Context(), grant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newVehicleResponse(vehicle))
}

// List returns the company's vehicles with pagination
func (h *VehicleHandler) List(c *gin.Context) {
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

	filter := fleet.NewVehicleFilter()
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	filter.Keyword = req.Search
	if req.Status != "" {
		status := fleet.VehicleStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "Unknown vehicle status")
			return
		}
		filter.Status = &status
	}

	vehicles, total, err := h.vehicleService.List(c.Request.Context(), grant, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, newVehicleListResponse(vehicles), total, filter.Page, filter.PageSize)
}

// Update edits a vehicle's details
func (h *VehicleHandler) Update(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), grant, fleetapp.UpdateVehicleInput{
		VehicleID: id,
		Make:      req.Make,
		Model:     req.Model,
		Year:      req.Year,
		Mileage:   req.Mileage,
		DailyRate: req.DailyRate,
		Version:   req.Version,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newVehicleResponse(vehicle))
}

// SendToMaintenance takes an available vehicle out of service
func (h *VehicleHandler) SendToMaintenance(c *gin.Context) {
	h.transition(c, h.vehicleService.SendToMaintenance)
}

// ReturnToService brings a vehicle back from maintenance
func (h *VehicleHandler) ReturnToService(c *gin.Context) {
	h.transition(c, h.vehicleService.ReturnToService)
}

// Retire permanently removes a vehicle from the rentable fleet
func (h *VehicleHandler) Retire(c *gin.Context) {
	h.transition(c, h.vehicleService.Retire)
}

func (h *VehicleHandler) transition(
	c *gin.Context,
	apply func(ctx context.Context, grant *authz.Grant, vehicleID uuid.UUID, version *int) (*fleet.Vehicle, error),
) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req VehicleTransitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	vehicle, err := apply(c.Request.Context(), grant, id, req.Version)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newVehicleResponse(vehicle))
}
