package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContractRepository implements rental.ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// CreateWithVehicle atomically creates the contract and flips its
// vehicle to rented. The vehicle row is re-read inside the transaction
// and the status swap is guarded by a conditional update on the
// version column, so two concurrent contracts on the same vehicle
// cannot both commit.
func (r *GormContractRepository) CreateWithVehicle(ctx context.Context, contract *rental.Contract, expected fleet.VersionToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vehicle fleet.Vehicle
		if err := tx.
			Where("company_id = ? AND id = ?", contract.CompanyID, contract.VehicleID).
			First(&vehicle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if pinned, ok := expected.Get(); ok && pinned != vehicle.Version {
			return shared.ErrConcurrencyConflict
		}

		if !vehicle.IsAvailable() {
			return shared.ErrVehicleUnavailable
		}

		if err := tx.Create(contract).Error; err != nil {
			return err
		}

		now := time.Now()
		result := tx.Model(&fleet.Vehicle{}).
			Where("id = ? AND version = ?", vehicle.ID, vehicle.Version).
			Updates(map[string]interface{}{
				"status":     fleet.VehicleStatusRented,
				"version":    vehicle.Version + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if contract.BookingID != nil {
			result := tx.Model(&rental.Booking{}).
				Where("id = ? AND status IN ?", *contract.BookingID,
					[]rental.BookingStatus{rental.BookingStatusPending, rental.BookingStatusConfirmed}).
				Updates(map[string]interface{}{
					"status":     rental.BookingStatusFulfilled,
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.NewDomainError("BOOKING_NOT_OPEN", "Booking cannot be fulfilled")
			}
		}

		return nil
	})
}

// CloseWithVehicle atomically persists a terminal contract state and
// returns the vehicle to the available pool.
func (r *GormContractRepository) CloseWithVehicle(ctx context.Context, contract *rental.Contract) error {
	if !contract.Status.IsTerminal() {
		return shared.ErrInvalidState
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&rental.Contract{}).
			Where("id = ? AND status = ?", contract.ID, rental.ContractStatusActive).
			Updates(map[string]interface{}{
				"status":     contract.Status,
				"closed_at":  contract.ClosedAt,
				"version":    contract.Version,
				"updated_at": contract.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Already closed by someone else, or gone
			return shared.ErrContractClosed
		}

		var vehicle fleet.Vehicle
		if err := tx.First(&vehicle, "id = ?", contract.VehicleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		// A closed contract always frees its vehicle; the version swap
		// only defends the increment, not the transition.
		update := tx.Model(&fleet.Vehicle{}).
			Where("id = ? AND version = ?", vehicle.ID, vehicle.Version).
			Updates(map[string]interface{}{
				"status":     fleet.VehicleStatusAvailable,
				"version":    vehicle.Version + 1,
				"updated_at": time.Now(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return nil
	})
}

// FindByID finds a contract by ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*rental.Contract, error) {
	var contract rental.Contract
	if err := r.db.WithContext(ctx).First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

// FindByIDForCompany finds a contract scoped to a company
func (r *GormContractRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*rental.Contract, error) {
	var contract rental.Contract
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

// FindAllForCompany lists a company's contracts with pagination
func (r *GormContractRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter rental.ContractFilter) ([]*rental.Contract, int64, error) {
	return r.findAll(ctx, r.db.WithContext(ctx).Model(&rental.Contract{}).Where("company_id = ?", companyID), filter)
}

// FindAllForClient lists a client's own contracts with pagination
func (r *GormContractRepository) FindAllForClient(ctx context.Context, clientID uuid.UUID, filter rental.ContractFilter) ([]*rental.Contract, int64, error) {
	return r.findAll(ctx, r.db.WithContext(ctx).Model(&rental.Contract{}).Where("client_id = ?", clientID), filter)
}

func (r *GormContractRepository) findAll(ctx context.Context, query *gorm.DB, filter rental.ContractFilter) ([]*rental.Contract, int64, error) {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contracts []*rental.Contract
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&contracts).Error; err != nil {
		return nil, 0, err
	}

	return contracts, total, nil
}

// FindActiveByVehicleID finds the active contract on a vehicle, if any
func (r *GormContractRepository) FindActiveByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*rental.Contract, error) {
	var contract rental.Contract
	if err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ?", vehicleID, rental.ContractStatusActive).
		First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

var _ rental.ContractRepository = (*GormContractRepository)(nil)
