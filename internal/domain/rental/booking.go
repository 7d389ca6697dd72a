package rental

import (
	"time"

	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFulfilled BookingStatus = "fulfilled" // Converted into a contract
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a client's reservation of a vehicle for a date range. A
// booking holds no vehicle state; the vehicle only changes status when
// the booking is fulfilled into a contract.
type Booking struct {
	shared.CompanyAggregateRoot
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index"`
	VehicleID uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate time.Time
	EndDate   time.Time
	Status    BookingStatus
}

// TableName returns the database table name
func (Booking) TableName() string {
	return "bookings"
}

// NewBooking creates a pending booking
func NewBooking(companyID, clientID, vehicleID uuid.UUID, start, end time.Time) (*Booking, error) {
	if clientID == uuid.Nil || vehicleID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BOOKING", "Client and vehicle are required")
	}
	if !end.After(start) {
		return nil, shared.NewDomainError("INVALID_BOOKING", "End date must be after start date")
	}

	return &Booking{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		ClientID:             clientID,
		VehicleID:            vehicleID,
		StartDate:            start,
		EndDate:              end,
		Status:               BookingStatusPending,
	}, nil
}

// Confirm accepts a pending booking
func (b *Booking) Confirm() error {
	if b.Status != BookingStatusPending {
		return shared.ErrInvalidState
	}

	b.Status = BookingStatusConfirmed
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// Fulfill marks the booking as converted into a contract
func (b *Booking) Fulfill() error {
	if b.Status != BookingStatusPending && b.Status != BookingStatusConfirmed {
		return shared.ErrInvalidState
	}

	b.Status = BookingStatusFulfilled
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// Cancel cancels a booking that has not been fulfilled
func (b *Booking) Cancel() error {
	if b.Status == BookingStatusFulfilled {
		return shared.NewDomainError("BOOKING_FULFILLED", "Fulfilled bookings cannot be cancelled")
	}
	if b.Status == BookingStatusCancelled {
		return shared.ErrInvalidState
	}

	b.Status = BookingStatusCancelled
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// IsOpen reports whether the booking can still be fulfilled
func (b *Booking) IsOpen() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}
