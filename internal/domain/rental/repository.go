package rental

import (
	"context"

	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/google/uuid"
)

// ContractRepository defines the interface for contract persistence.
// The write methods that touch the vehicle are transactional: contract
// and vehicle change together or not at all.
type ContractRepository interface {
	// CreateWithVehicle atomically inserts the contract, flips its
	// vehicle from available to rented, and fulfills the originating
	// booking when the contract carries one. The vehicle swap is
	// guarded by the version token; a stale token or an unavailable
	// vehicle fails the whole transaction.
	CreateWithVehicle(ctx context.Context, contract *Contract, expected fleet.VersionToken) error

	// CloseWithVehicle atomically persists a contract that reached a
	// terminal state and returns its vehicle to the available pool.
	CloseWithVehicle(ctx context.Context, contract *Contract) error

	// FindByID finds a contract by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// FindByIDForCompany finds a contract scoped to a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Contract, error)

	// FindAllForCompany lists a company's contracts with pagination
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter ContractFilter) ([]*Contract, int64, error)

	// FindAllForClient lists a client's own contracts with pagination
	FindAllForClient(ctx context.Context, clientID uuid.UUID, filter ContractFilter) ([]*Contract, int64, error)

	// FindActiveByVehicleID finds the active contract on a vehicle, if any
	FindActiveByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*Contract, error)
}

// BookingRepository defines the interface for booking persistence
type BookingRepository interface {
	// Create creates a new booking
	Create(ctx context.Context, booking *Booking) error

	// Update updates an existing booking
	Update(ctx context.Context, booking *Booking) error

	// FindByID finds a booking by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByIDForCompany finds a booking scoped to a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Booking, error)

	// FindAllForCompany lists a company's bookings with pagination
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter BookingFilter) ([]*Booking, int64, error)

	// FindAllForClient lists a client's own bookings with pagination
	FindAllForClient(ctx context.Context, clientID uuid.UUID, filter BookingFilter) ([]*Booking, int64, error)
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// Create creates a new payment
	Create(ctx context.Context, payment *Payment) error

	// Update updates an existing payment
	Update(ctx context.Context, payment *Payment) error

	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByContractID lists all payments attached to a contract
	FindByContractID(ctx context.Context, contractID uuid.UUID) ([]*Payment, error)
}

// ContractFilter contains filter options for querying contracts
type ContractFilter struct {
	Status   *ContractStatus
	Page     int
	PageSize int
}

// NewContractFilter creates a filter with default pagination
func NewContractFilter() ContractFilter {
	return ContractFilter{Page: 1, PageSize: 20}
}

// Offset returns the offset for pagination
func (f ContractFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f ContractFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// BookingFilter contains filter options for querying bookings
type BookingFilter struct {
	Status   *BookingStatus
	Page     int
	PageSize int
}

// NewBookingFilter creates a filter with default pagination
func NewBookingFilter() BookingFilter {
	return BookingFilter{Page: 1, PageSize: 20}
}

// Offset returns the offset for pagination
func (f BookingFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f BookingFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
