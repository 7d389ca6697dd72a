package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVehicleRepository implements fleet.VehicleRepository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// Create creates a new vehicle
func (r *GormVehicleRepository) Create(ctx context.Context, vehicle *fleet.Vehicle) error {
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a vehicle by ID
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*fleet.Vehicle, error) {
	var vehicle fleet.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// FindByIDForCompany finds a vehicle scoped to a company
func (r *GormVehicleRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*fleet.Vehicle, error) {
	var vehicle fleet.Vehicle
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// FindAllForCompany lists a company's vehicles with pagination
func (r *GormVehicleRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter fleet.VehicleFilter) ([]*fleet.Vehicle, int64, error) {
	query := r.db.WithContext(ctx).Model(&fleet.Vehicle{}).Where("company_id = ?", companyID)

	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		query = query.Where("make LIKE ? OR model LIKE ? OR license_plate LIKE ?", keyword, keyword, keyword)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var vehicles []*fleet.Vehicle
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}

// SaveWithLock persists the vehicle with optimistic locking. When the
// token pins a version, that version is compared against the stored
// row; with AnyVersion the row's current version is read inside the
// transaction and swapped against instead, so the update itself still
// cannot race.
func (r *GormVehicleRepository) SaveWithLock(ctx context.Context, vehicle *fleet.Vehicle, expected fleet.VersionToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&fleet.Vehicle{}).
			Where("id = ?", vehicle.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}

		if pinned, ok := expected.Get(); ok && pinned != currentVersion {
			return shared.ErrConcurrencyConflict
		}

		vehicle.Version = currentVersion + 1
		vehicle.UpdatedAt = time.Now()

		result := tx.Model(&fleet.Vehicle{}).
			Where("id = ? AND version = ?", vehicle.ID, currentVersion).
			Updates(map[string]interface{}{
				"make":          vehicle.Make,
				"model":         vehicle.Model,
				"license_plate": vehicle.LicensePlate,
				"year":          vehicle.Year,
				"mileage":       vehicle.Mileage,
				"daily_rate":    vehicle.DailyRate,
				"status":        vehicle.Status,
				"version":       vehicle.Version,
				"updated_at":    vehicle.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return nil
	})
}

// Delete removes a vehicle
func (r *GormVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&fleet.Vehicle{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ fleet.VehicleRepository = (*GormVehicleRepository)(nil)
