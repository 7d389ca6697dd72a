package fleet

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines the interface for vehicle persistence
type VehicleRepository interface {
	// Create creates a new vehicle
	Create(ctx context.Context, vehicle *Vehicle) error

	// FindByID finds a vehicle by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindByIDForCompany finds a vehicle scoped to a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Vehicle, error)

	// FindAllForCompany lists a company's vehicles with pagination
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter VehicleFilter) ([]*Vehicle, int64, error)

	// SaveWithLock persists the vehicle only if its stored version
	// still matches the given token. Returns a concurrency conflict
	// error when the swap fails.
	SaveWithLock(ctx context.Context, vehicle *Vehicle, expected VersionToken) error

	// Delete removes a vehicle
	Delete(ctx context.Context, id uuid.UUID) error
}

// VehicleFilter contains filter options for querying vehicles
type VehicleFilter struct {
	// Search keyword for make, model, or plate
	Keyword string

	// Filter by status
	Status *VehicleStatus

	// Pagination
	Page     int
	PageSize int
}

// NewVehicleFilter creates a filter with default pagination
func NewVehicleFilter() VehicleFilter {
	return VehicleFilter{Page: 1, PageSize: 20}
}

// Offset returns the offset for pagination
func (f VehicleFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Limit returns the limit for pagination
func (f VehicleFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
