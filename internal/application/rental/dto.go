package rental

import (
	"time"

	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateContractInput contains the input for opening a contract.
// VehicleVersion pins the vehicle revision the caller last saw; nil
// lets the transaction read the current revision itself, which is
// still atomic but not protected against a stale read on the caller's
// side.
type CreateContractInput struct {
	VehicleID      uuid.UUID
	ClientID       uuid.UUID
	BookingID      *uuid.UUID
	StartDate      time.Time
	EndDate        time.Time
	Deposit        decimal.Decimal
	VehicleVersion *int
}

// CloseContractInput contains the input for completing a contract.
// Closing fees carry free-form labels classified into payment types.
type CloseContractInput struct {
	ContractID  uuid.UUID
	ClosingFees []ClosingFee
}

// CancelContractInput contains the input for cancelling a contract.
// Closing fees cover cancellation penalties; the reason lands in the
// audit trail.
type CancelContractInput struct {
	ContractID  uuid.UUID
	Reason      string
	ClosingFees []ClosingFee
}

// ClosingFee is one charge collected when a contract closes
type ClosingFee struct {
	Label  string
	Amount decimal.Decimal
}

// ContractResult carries the contract and any post-commit warnings.
// Warnings describe side effects that failed after the transaction
// committed; the contract itself is final.
type ContractResult struct {
	Contract *rental.Contract
	Warnings []string
}

// CreateBookingInput contains the input for a client booking request
type CreateBookingInput struct {
	VehicleID uuid.UUID
	StartDate time.Time
	EndDate   time.Time
}
