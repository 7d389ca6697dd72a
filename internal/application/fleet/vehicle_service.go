package fleet

import (
	"context"

	appaudit "github.com/fleetrent/backend/internal/application/audit"
	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateVehicleInput contains the input for registering a vehicle
type CreateVehicleInput struct {
	Make         string
	Model        string
	LicensePlate string
	Year         int
	Mileage      int
	DailyRate    decimal.Decimal
}

// UpdateVehicleInput contains the input for editing a vehicle. Version
// pins the revision the caller last saw; nil skips the staleness check
// but the write is still atomic.
type UpdateVehicleInput struct {
	VehicleID uuid.UUID
	Make      *string
	Model     *string
	Year      *int
	Mileage   *int
	DailyRate *decimal.Decimal
	Version   *int
}

// VehicleService exposes the fleet CRUD surface behind the gate
type VehicleService struct {
	vehicleRepo fleet.VehicleRepository
	recorder    *appaudit.Recorder
	logger      *zap.Logger
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(vehicleRepo fleet.VehicleRepository, recorder *appaudit.Recorder, logger *zap.Logger) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		recorder:    recorder,
		logger:      logger,
	}
}

// Create registers a vehicle in the grant's company
func (s *VehicleService) Create(ctx context.Context, grant *authz.Grant, input CreateVehicleInput) (*fleet.Vehicle, error) {
	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, authz.ErrForbidden
	}

	vehicle, err := fleet.NewVehicle(companyID, input.Make, input.Model, input.LicensePlate, input.Year, input.DailyRate)
	if err != nil {
		return nil, err
	}
	if input.Mileage > 0 {
		if err := vehicle.SetMileage(input.Mileage); err != nil {
			return nil, err
		}
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, grant.Scope, "vehicle.create",
		appaudit.WithEntity("vehicle", vehicle.ID))
	return vehicle, nil
}

// Get returns one vehicle of the grant's company
func (s *VehicleService) Get(ctx context.Context, grant *authz.Grant, vehicleID uuid.UUID) (*fleet.Vehicle, error) {
	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, authz.ErrForbidden
	}
	return s.vehicleRepo.FindByIDForCompany(ctx, companyID, vehicleID)
}

// List returns the company's vehicles
func (s *VehicleService) List(ctx context.Context, grant *authz.Grant, filter fleet.VehicleFilter) ([]*fleet.Vehicle, int64, error) {
	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, 0, authz.ErrForbidden
	}
	return s.vehicleRepo.FindAllForCompany(ctx, companyID, filter)
}

// Update edits vehicle attributes under the optimistic lock
func (s *VehicleService) Update(ctx context.Context, grant *authz.Grant, input UpdateVehicleInput) (*fleet.Vehicle, error) {
	vehicle, err := s.Get(ctx, grant, input.VehicleID)
	if err != nil {
		return nil, err
	}

	before := vehicleSnapshot(vehicle)
	if input.Make != nil {
		vehicle.Make = *input.Make
	}
	if input.Model != nil {
		vehicle.Model = *input.Model
	}
	if input.Year != nil {
		vehicle.Year = *input.Year
	}
	if input.Mileage != nil {
		if err := vehicle.SetMileage(*input.Mileage); err != nil {
			return nil, err
		}
	}
	if input.DailyRate != nil {
		if err := vehicle.SetDailyRate(*input.DailyRate); err != nil {
			return nil, err
		}
	}

	if err := s.vehicleRepo.SaveWithLock(ctx, vehicle, versionToken(input.Version)); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, grant.Scope, "vehicle.update",
		appaudit.WithEntity("vehicle", vehicle.ID),
		appaudit.WithBefore(before),
		appaudit.WithAfter(vehicleSnapshot(vehicle)))
	return vehicle, nil
}

// SendToMaintenance pulls an available vehicle out of the rental pool
func (s *VehicleService) SendToMaintenance(ctx context.Context, grant *authz.Grant, vehicleID uuid.UUID, version *int) (*fleet.Vehicle, error) {
	return s.transition(ctx, grant, vehicleID, version, "vehicle.maintenance",
		func(v *fleet.Vehicle) error { return v.SendToMaintenance() })
}

// ReturnToService puts a maintained vehicle back in the pool
func (s *VehicleService) ReturnToService(ctx context.Context, grant *authz.Grant, vehicleID uuid.UUID, version *int) (*fleet.Vehicle, error) {
	return s.transition(ctx, grant, vehicleID, version, "vehicle.return_to_service",
		func(v *fleet.Vehicle) error { return v.MarkAvailable() })
}

// Retire permanently removes a vehicle from the pool
func (s *VehicleService) Retire(ctx context.Context, grant *authz.Grant, vehicleID uuid.UUID, version *int) (*fleet.Vehicle, error) {
	return s.transition(ctx, grant, vehicleID, version, "vehicle.retire",
		func(v *fleet.Vehicle) error { return v.Retire() })
}

func (s *VehicleService) transition(ctx context.Context, grant *authz.Grant, vehicleID uuid.UUID, version *int, action string, apply func(*fleet.Vehicle) error) (*fleet.Vehicle, error) {
	vehicle, err := s.Get(ctx, grant, vehicleID)
	if err != nil {
		return nil, err
	}

	before := vehicleSnapshot(vehicle)
	if err := apply(vehicle); err != nil {
		return nil, err
	}
	if err := s.vehicleRepo.SaveWithLock(ctx, vehicle, versionToken(version)); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, grant.Scope, action,
		appaudit.WithEntity("vehicle", vehicle.ID),
		appaudit.WithDetail(map[string]string{"status": string(vehicle.Status)}),
		appaudit.WithBefore(before),
		appaudit.WithAfter(vehicleSnapshot(vehicle)))
	return vehicle, nil
}

// vehicleSnapshot freezes the auditable vehicle fields at a point in
// time
func vehicleSnapshot(vehicle *fleet.Vehicle) map[string]interface{} {
	return map[string]interface{}{
		"make":          vehicle.Make,
		"model":         vehicle.Model,
		"license_plate": vehicle.LicensePlate,
		"year":          vehicle.Year,
		"mileage":       vehicle.Mileage,
		"daily_rate":    vehicle.DailyRate.StringFixed(2),
		"status":        vehicle.Status,
		"version":       vehicle.Version,
	}
}

func versionToken(version *int) fleet.VersionToken {
	if version == nil {
		return fleet.AnyVersion()
	}
	return fleet.VersionOf(*version)
}
