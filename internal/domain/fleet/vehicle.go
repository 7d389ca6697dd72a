package fleet

import (
	"strings"
	"time"

	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleStatus represents the rental availability of a vehicle
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusRented      VehicleStatus = "rented"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusRetired     VehicleStatus = "retired"
)

// IsValid reports whether the status is a known value
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusRented, VehicleStatusMaintenance, VehicleStatusRetired:
		return true
	}
	return false
}

// Vehicle is the aggregate root for a company car. Status transitions
// that hand the car to a customer go through the contract workflow and
// are guarded by the aggregate version; direct transitions here cover
// maintenance and retirement.
type Vehicle struct {
	shared.CompanyAggregateRoot
	Make         string
	Model        string
	LicensePlate string
	Year         int
	Mileage      int
	DailyRate    decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status       VehicleStatus
}

// TableName returns the database table name
func (Vehicle) TableName() string {
	return "company_cars"
}

// NewVehicle creates an available vehicle for the given company
func NewVehicle(companyID uuid.UUID, make, model, plate string, year int, dailyRate decimal.Decimal) (*Vehicle, error) {
	make = strings.TrimSpace(make)
	model = strings.TrimSpace(model)
	plate = strings.ToUpper(strings.TrimSpace(plate))

	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if make == "" || model == "" {
		return nil, shared.NewDomainError("INVALID_VEHICLE", "Make and model cannot be empty")
	}
	if plate == "" {
		return nil, shared.NewDomainError("INVALID_VEHICLE", "License plate cannot be empty")
	}
	if year < 1950 || year > time.Now().Year()+1 {
		return nil, shared.NewDomainError("INVALID_VEHICLE", "Year is out of range")
	}
	if dailyRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_VEHICLE", "Daily rate cannot be negative")
	}

	return &Vehicle{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Make:                 make,
		Model:                model,
		LicensePlate:         plate,
		Year:                 year,
		DailyRate:            dailyRate,
		Status:               VehicleStatusAvailable,
	}, nil
}

// IsAvailable reports whether the vehicle can be handed to a customer
func (v *Vehicle) IsAvailable() bool {
	return v.Status == VehicleStatusAvailable
}

// MarkRented transitions the vehicle to rented. Only available
// vehicles can be rented out.
func (v *Vehicle) MarkRented() error {
	if v.Status != VehicleStatusAvailable {
		return shared.ErrVehicleUnavailable
	}

	v.Status = VehicleStatusRented
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	return nil
}

// MarkAvailable returns the vehicle to the available pool after a
// contract ends or maintenance completes.
func (v *Vehicle) MarkAvailable() error {
	if v.Status == VehicleStatusRetired {
		return shared.NewDomainError("VEHICLE_RETIRED", "Retired vehicles cannot return to the pool")
	}
	if v.Status == VehicleStatusAvailable {
		return shared.ErrInvalidState
	}

	v.Status = VehicleStatusAvailable
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	return nil
}

// SendToMaintenance takes the vehicle out of the rentable pool. A
// rented vehicle must come back through its contract first.
func (v *Vehicle) SendToMaintenance() error {
	if v.Status == VehicleStatusRented {
		return shared.NewDomainError("VEHICLE_RENTED", "Vehicle is currently on a contract")
	}
	if v.Status != VehicleStatusAvailable {
		return shared.ErrInvalidState
	}

	v.Status = VehicleStatusMaintenance
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	return nil
}

// Retire permanently removes the vehicle from service
func (v *Vehicle) Retire() error {
	if v.Status == VehicleStatusRented {
		return shared.NewDomainError("VEHICLE_RENTED", "Vehicle is currently on a contract")
	}
	if v.Status == VehicleStatusRetired {
		return shared.ErrInvalidState
	}

	v.Status = VehicleStatusRetired
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	return nil
}

// SetDailyRate updates the rental price
func (v *Vehicle) SetDailyRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_VEHICLE", "Daily rate cannot be negative")
	}

	v.DailyRate = rate
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	return nil
}

// SetMileage records the current odometer reading
func (v *Vehicle) SetMileage(mileage int) error {
	if mileage < v.Mileage {
		return shared.NewDomainError("INVALID_VEHICLE", "Mileage cannot decrease")
	}

	v.Mileage = mileage
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	return nil
}
