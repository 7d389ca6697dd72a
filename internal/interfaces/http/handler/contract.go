package handler

import (
	"context"
	"time"

	"github.com/fleetrent/backend/internal/application/authz"
	rentalapp "github.com/fleetrent/backend/internal/application/rental"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/interfaces/http/dto"
	"github.com/fleetrent/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractHandler handles the rental contract workflow
type ContractHandler struct {
	BaseHandler
	workflow       *rentalapp.ContractWorkflow
	paymentService *rentalapp.PaymentService
}

// NewContractHandler creates a new contract handler
func NewContractHandler(
	workflow *rentalapp.ContractWorkflow,
	paymentService *rentalapp.PaymentService,
) *ContractHandler {
	return &ContractHandler{
		workflow:       workflow,
		paymentService: paymentService,
	}
}

// CreateContractRequest represents the contract creation request body.
// VehicleVersion pins the vehicle revision the caller last saw; omit
// to let the transaction read the current revision.
type CreateContractRequest struct {
	VehicleID      string          `json:"vehicle_id" binding:"required,uuid"`
	ClientID       string          `json:"client_id" binding:"required,uuid"`
	BookingID      *string         `json:"booking_id" binding:"omitempty,uuid"`
	StartDate      time.Time       `json:"start_date" binding:"required"`
	EndDate        time.Time       `json:"end_date" binding:"required"`
	Deposit        decimal.Decimal `json:"deposit"`
	VehicleVersion *int            `json:"vehicle_version"`
}

// ClosingFeeRequest is one charge collected when a contract closes
type ClosingFeeRequest struct {
	Label  string          `json:"label" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CloseContractRequest represents the contract close request body
type CloseContractRequest struct {
	ClosingFees []ClosingFeeRequest `json:"closing_fees" binding:"omitempty,dive"`
}

// CancelContractRequest represents the contract cancel request body
type CancelContractRequest struct {
	Reason      string              `json:"reason"`
	ClosingFees []ClosingFeeRequest `json:"closing_fees" binding:"omitempty,dive"`
}

// ContractResponse represents a contract in responses
type ContractResponse struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	VehicleID   string     `json:"vehicle_id"`
	ClientID    string     `json:"client_id"`
	BookingID   *string    `json:"booking_id,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	DailyRate   string     `json:"daily_rate"`
	TotalAmount string     `json:"total_amount"`
	Deposit     string     `json:"deposit"`
	Status      string     `json:"status"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ContractResultResponse carries a contract plus any post-commit
// warnings. Warnings describe side effects that failed after the
// transaction committed; the contract itself is final.
type ContractResultResponse struct {
	Contract ContractResponse `json:"contract"`
	Warnings []string         `json:"warnings,omitempty"`
}

// PaymentResponse represents a payment in responses
type PaymentResponse struct {
	ID         string     `json:"id"`
	ContractID string     `json:"contract_id"`
	Type       string     `json:"type"`
	Label      string     `json:"label"`
	Amount     string     `json:"amount"`
	Status     string     `json:"status"`
	SettledAt  *time.Time `json:"settled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func newContractResponse(contract *rental.Contract) ContractResponse {
	resp := ContractResponse{
		ID:          contract.ID.String(),
		CompanyID:   contract.CompanyID.String(),
		VehicleID:   contract.VehicleID.String(),
		ClientID:    contract.ClientID.String(),
		StartDate:   contract.StartDate,
		EndDate:     contract.EndDate,
		DailyRate:   contract.DailyRate.StringFixed(2),
		TotalAmount: contract.TotalAmount.StringFixed(2),
		Deposit:     contract.Deposit.StringFixed(2),
		Status:      string(contract.Status),
		ClosedAt:    contract.ClosedAt,
		CreatedAt:   contract.CreatedAt,
	}
	if contract.BookingID != nil {
		id := contract.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}

func newContractResultResponse(result *rentalapp.ContractResult) ContractResultResponse {
	return ContractResultResponse{
		Contract: newContractResponse(result.Contract),
		Warnings: result.Warnings,
	}
}

func newPaymentResponse(p *rental.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID.String(),
		ContractID: p.ContractID.String(),
		Type:       string(p.Type),
		Label:      p.Label,
		Amount:     p.Amount.StringFixed(2),
		Status:     string(p.Status),
		SettledAt:  p.SettledAt,
		CreatedAt:  p.CreatedAt,
	}
}

func closingFees(reqs []ClosingFeeRequest) []rentalapp.ClosingFee {
	fees := make([]rentalapp.ClosingFee, len(reqs))
	for i, f := range reqs {
		fees[i] = rentalapp.ClosingFee{Label: f.Label, Amount: f.Amount}
	}
	return fees
}

// Create opens a contract and hands the vehicle to the client
func (h *ContractHandler) Create(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}

	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		h.BadRequest(c, "Invalid vehicle ID format")
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	input := rentalapp.CreateContractInput{
		VehicleID:      vehicleID,
		ClientID:       clientID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Deposit:        req.Deposit,
		VehicleVersion: req.VehicleVersion,
	}
	if req.BookingID != nil {
		bookingID, err := uuid.Parse(*req.BookingID)
		if err != nil {
			h.BadRequest(c, "Invalid booking ID format")
			return
		}
		input.BookingID = &bookingID
	}

	result, err := h.workflow.CreateContract(c.Request.Context(), grant, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, newContractResultResponse(result))
}

// Close completes a contract and frees its vehicle
func (h *ContractHandler) Close(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req CloseContractRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	result, err := h.workflow.CloseContract(c.Request.Context(), grant, rentalapp.CloseContractInput{
		ContractID:  id,
		ClosingFees: closingFees(req.ClosingFees),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newContractResultResponse(result))
}

// Cancel voids a contract and frees its vehicle
func (h *ContractHandler) Cancel(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req CancelContractRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	result, err := h.workflow.CancelContract(c.Request.Context(), grant, rentalapp.CancelContractInput{
		ContractID:  id,
		Reason:      req.Reason,
		ClosingFees: closingFees(req.ClosingFees),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newContractResultResponse(result))
}

// Get returns a single contract visible to the caller
func (h *ContractHandler) Get(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	contract, err := h.workflow.GetContract(c.Request.Context(), grant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newContractResponse(contract))
}

// List returns contracts visible to the caller: their own for
// clients, the company's for staff
func (h *ContractHandler) List(c *gin.Context) {
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

	filter := rental.NewContractFilter()
	filter.Page = req.Page
	filter.PageSize = req.PageSize
	if req.Status != "" {
		status := rental.ContractStatus(req.Status)
		filter.Status = &status
	}

	contracts, total, err := h.workflow.ListContracts(c.Request.Context(), grant, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]ContractResponse, len(contracts))
	for i, contract := range contracts {
		out[i] = newContractResponse(contract)
	}

	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// ListPayments returns the payment rows attached to a contract
func (h *ContractHandler) ListPayments(c *gin.Context) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListForContract(c.Request.Context(), grant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = newPaymentResponse(p)
	}

	h.Success(c, out)
}

// SettlePayment marks a pending payment as collected
func (h *ContractHandler) SettlePayment(c *gin.Context) {
	h.paymentAction(c, h.paymentService.Settle)
}

// VoidPayment cancels a pending payment
func (h *ContractHandler) VoidPayment(c *gin.Context) {
	h.paymentAction(c, h.paymentService.Void)
}

func (h *ContractHandler) paymentAction(
	c *gin.Context,
	apply func(ctx context.Context, grant *authz.Grant, paymentID uuid.UUID) (*rental.Payment, error),
) {
	grant, ok := h.getGrant(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	payment, err := apply(c.Request.Context(), grant, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, newPaymentResponse(payment))
}
