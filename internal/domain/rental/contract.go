package rental

import (
	"time"

	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractStatus represents the lifecycle state of a rental contract
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// IsTerminal reports whether the status is a final state
func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusCompleted || s == ContractStatusCancelled
}

// Contract is the aggregate root for an active rental. Creating a
// contract and flipping its vehicle to rented happens in a single
// database transaction; the contract itself only tracks its own
// lifecycle.
type Contract struct {
	shared.CompanyAggregateRoot
	VehicleID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	BookingID   *uuid.UUID `gorm:"type:uuid;index"` // Set when created from a booking
	StartDate   time.Time
	EndDate     time.Time
	DailyRate   decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2)"`
	Deposit     decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status      ContractStatus
	ClosedAt    *time.Time
}

// TableName returns the database table name
func (Contract) TableName() string {
	return "contracts"
}

// NewContract creates an active contract. The total is derived from
// the daily rate and the rental length in whole days, rounding up.
func NewContract(companyID, vehicleID, clientID uuid.UUID, start, end time.Time, dailyRate, deposit decimal.Decimal) (*Contract, error) {
	if vehicleID == uuid.Nil || clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Vehicle and client are required")
	}
	if !end.After(start) {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "End date must be after start date")
	}
	if dailyRate.IsNegative() || deposit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Amounts cannot be negative")
	}

	days := int64(end.Sub(start).Hours() / 24)
	if end.Sub(start)%(24*time.Hour) != 0 {
		days++
	}

	return &Contract{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		VehicleID:            vehicleID,
		ClientID:             clientID,
		StartDate:            start,
		EndDate:              end,
		DailyRate:            dailyRate,
		TotalAmount:          dailyRate.Mul(decimal.NewFromInt(days)),
		Deposit:              deposit,
		Status:               ContractStatusActive,
	}, nil
}

// AttachBooking records the booking this contract was created from
func (c *Contract) AttachBooking(bookingID uuid.UUID) {
	c.BookingID = &bookingID
}

// Complete closes the contract normally
func (c *Contract) Complete() error {
	return c.close(ContractStatusCompleted)
}

// Cancel closes the contract without completion
func (c *Contract) Cancel() error {
	return c.close(ContractStatusCancelled)
}

func (c *Contract) close(status ContractStatus) error {
	if c.Status.IsTerminal() {
		return shared.ErrContractClosed
	}

	now := time.Now()
	c.Status = status
	c.ClosedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	return nil
}

// RentalDays returns the billed length of the contract in days
func (c *Contract) RentalDays() int64 {
	if c.DailyRate.IsZero() {
		return 0
	}
	return c.TotalAmount.Div(c.DailyRate).IntPart()
}
