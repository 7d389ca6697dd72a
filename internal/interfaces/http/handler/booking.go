package handler

import (
	"time"

	rentalapp "github.com/fleetrent/backend/internal/application/rental"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/interfaces/http/dto"
	"github.com/fleetrent/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BookingHandler handles reservation requests
type BookingHandler struct {
	BaseHandler
	bookingService *rentalapp.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *rentalapp.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest represents the booking request body
type CreateBookingRequest struct {
	VehicleID string    `json:"vehicle_id" binding:"required,uuid"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// BookingResponse represents a booking in responses
type BookingResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	ClientID  string    `json:"client_id"`
	VehicleID string    `json:"vehicle_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newBookingResponse(b *rental.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID.String(),
		CompanyID: b.CompanyID.String(),
		ClientID:  b.ClientID.String(),
		VehicleID: b.VehicleID.String(),
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
	}
}

// Create places a reservation for the calling client
func (h *BookingHandler) Create(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		h.BadRequest(c, "Invalid vehicle ID format")
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), grant, rentalapp.CreateBookingInput{
		VehicleID: vehicleID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, newBookingResponse(booking))
}

// Confirm accepts a pending booking (staff only)
func (h *BookingHandler) Confirm(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.Confirm(c.Request.Context(), grant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newBookingResponse(booking))
}

// Cancel withdraws a booking. Clients can only cancel their own;
// staff can cancel any booking of their company.
func (h *BookingHandler) Cancel(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), grant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newBookingResponse(booking))
}

// List returns bookings visible to the caller: their own for clients,
// the company's for staff
func (h *BookingHandler) List(c *gin.Context) {
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

	filter := rental.NewBookingFilter()
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.Status != "" {
		status := rental.BookingStatus(req.Status)
		filter.Status = &status
	}

	bookings, total, err := h.bookingService.List(c.Request.Context(), grant, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = newBookingResponse(b)
	}

	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}
