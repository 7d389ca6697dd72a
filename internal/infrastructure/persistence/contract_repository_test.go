package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupRentalTestDB creates an in-memory SQLite database with the
// rental tables
func setupRentalTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE company_cars (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			make TEXT NOT NULL,
			model TEXT NOT NULL,
			license_plate TEXT NOT NULL,
			year INTEGER NOT NULL,
			mileage INTEGER NOT NULL DEFAULT 0,
			daily_rate TEXT NOT NULL,
			status TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE contracts (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			vehicle_id TEXT NOT NULL,
			client_id TEXT NOT NULL,
			booking_id TEXT,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			daily_rate TEXT NOT NULL,
			total_amount TEXT NOT NULL,
			deposit TEXT NOT NULL,
			status TEXT NOT NULL,
			closed_at DATETIME,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE bookings (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			client_id TEXT NOT NULL,
			vehicle_id TEXT NOT NULL,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			status TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error
	require.NoError(t, err)

	return db
}

func seedVehicle(t *testing.T, db *gorm.DB, companyID uuid.UUID) *fleet.Vehicle {
	t.Helper()
	vehicle, err := fleet.NewVehicle(companyID, "Toyota", "Corolla", "KX-123-AB", 2022, decimal.NewFromInt(45))
	require.NoError(t, err)
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}

func buildContract(t *testing.T, companyID, vehicleID uuid.UUID) *rental.Contract {
	t.Helper()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	contract, err := rental.NewContract(companyID, vehicleID, uuid.New(),
		start, start.AddDate(0, 0, 3), decimal.NewFromInt(45), decimal.NewFromInt(200))
	require.NoError(t, err)
	return contract
}

func TestGormContractRepository_CreateWithVehicle(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("creates contract and rents vehicle atomically", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		contract := buildContract(t, companyID, vehicle.ID)
		err := repo.CreateWithVehicle(ctx, contract, fleet.VersionOf(vehicle.Version))
		require.NoError(t, err)

		var storedVehicle fleet.Vehicle
		require.NoError(t, db.First(&storedVehicle, "id = ?", vehicle.ID).Error)
		assert.Equal(t, fleet.VehicleStatusRented, storedVehicle.Status)
		assert.Equal(t, vehicle.Version+1, storedVehicle.Version)

		stored, err := repo.FindByID(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, rental.ContractStatusActive, stored.Status)
	})

	t.Run("stale version token rejected without side effects", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		contract := buildContract(t, companyID, vehicle.ID)
		err := repo.CreateWithVehicle(ctx, contract, fleet.VersionOf(vehicle.Version-1))
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		var storedVehicle fleet.Vehicle
		require.NoError(t, db.First(&storedVehicle, "id = ?", vehicle.ID).Error)
		assert.Equal(t, fleet.VehicleStatusAvailable, storedVehicle.Status)

		var count int64
		require.NoError(t, db.Model(&rental.Contract{}).Count(&count).Error)
		assert.Zero(t, count, "contract insert must roll back")
	})

	t.Run("unpinned token reads current version in transaction", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		contract := buildContract(t, companyID, vehicle.ID)
		err := repo.CreateWithVehicle(ctx, contract, fleet.AnyVersion())
		require.NoError(t, err)

		var storedVehicle fleet.Vehicle
		require.NoError(t, db.First(&storedVehicle, "id = ?", vehicle.ID).Error)
		assert.Equal(t, fleet.VehicleStatusRented, storedVehicle.Status)
	})

	t.Run("unavailable vehicle rejected", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		first := buildContract(t, companyID, vehicle.ID)
		require.NoError(t, repo.CreateWithVehicle(ctx, first, fleet.AnyVersion()))

		second := buildContract(t, companyID, vehicle.ID)
		err := repo.CreateWithVehicle(ctx, second, fleet.AnyVersion())
		assert.ErrorIs(t, err, shared.ErrVehicleUnavailable)
	})

	t.Run("vehicle from another company not found", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		contract := buildContract(t, uuid.New(), vehicle.ID)
		err := repo.CreateWithVehicle(ctx, contract, fleet.AnyVersion())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("fulfills originating booking", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		booking, err := rental.NewBooking(companyID, uuid.New(), vehicle.ID, start, start.AddDate(0, 0, 3))
		require.NoError(t, err)
		require.NoError(t, db.Create(booking).Error)

		contract := buildContract(t, companyID, vehicle.ID)
		contract.AttachBooking(booking.ID)
		require.NoError(t, repo.CreateWithVehicle(ctx, contract, fleet.AnyVersion()))

		var storedBooking rental.Booking
		require.NoError(t, db.First(&storedBooking, "id = ?", booking.ID).Error)
		assert.Equal(t, rental.BookingStatusFulfilled, storedBooking.Status)
	})

	t.Run("cancelled booking fails the whole transaction", func(t *testing.T) {
		db := setupRentalTestDB(t)
		contractRepo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		booking, err := rental.NewBooking(companyID, uuid.New(), vehicle.ID, start, start.AddDate(0, 0, 3))
		require.NoError(t, err)
		require.NoError(t, booking.Cancel())
		require.NoError(t, db.Create(booking).Error)

		contract := buildContract(t, companyID, vehicle.ID)
		contract.AttachBooking(booking.ID)
		err = contractRepo.CreateWithVehicle(ctx, contract, fleet.AnyVersion())
		require.Error(t, err)

		var storedVehicle fleet.Vehicle
		require.NoError(t, db.First(&storedVehicle, "id = ?", vehicle.ID).Error)
		assert.Equal(t, fleet.VehicleStatusAvailable, storedVehicle.Status, "vehicle flip must roll back")
	})
}

func TestGormContractRepository_CloseWithVehicle(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("close frees the vehicle", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		contract := buildContract(t, companyID, vehicle.ID)
		require.NoError(t, repo.CreateWithVehicle(ctx, contract, fleet.AnyVersion()))

		require.NoError(t, contract.Complete())
		require.NoError(t, repo.CloseWithVehicle(ctx, contract))

		var storedVehicle fleet.Vehicle
		require.NoError(t, db.First(&storedVehicle, "id = ?", vehicle.ID).Error)
		assert.Equal(t, fleet.VehicleStatusAvailable, storedVehicle.Status)

		stored, err := repo.FindByID(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, rental.ContractStatusCompleted, stored.Status)
		assert.NotNil(t, stored.ClosedAt)
	})

	t.Run("double close rejected", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		contract := buildContract(t, companyID, vehicle.ID)
		require.NoError(t, repo.CreateWithVehicle(ctx, contract, fleet.AnyVersion()))
		require.NoError(t, contract.Complete())
		require.NoError(t, repo.CloseWithVehicle(ctx, contract))

		err := repo.CloseWithVehicle(ctx, contract)
		assert.ErrorIs(t, err, shared.ErrContractClosed)
	})

	t.Run("active contract cannot be persisted as closed", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormContractRepository(db)
		vehicle := seedVehicle(t, db, companyID)

		contract := buildContract(t, companyID, vehicle.ID)
		require.NoError(t, repo.CreateWithVehicle(ctx, contract, fleet.AnyVersion()))

		err := repo.CloseWithVehicle(ctx, contract)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestGormContractRepository_Queries(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	db := setupRentalTestDB(t)
	repo := NewGormContractRepository(db)

	vehicleA := seedVehicle(t, db, companyID)
	contract := buildContract(t, companyID, vehicleA.ID)
	require.NoError(t, repo.CreateWithVehicle(ctx, contract, fleet.AnyVersion()))

	t.Run("find active by vehicle", func(t *testing.T) {
		found, err := repo.FindActiveByVehicleID(ctx, vehicleA.ID)
		require.NoError(t, err)
		assert.Equal(t, contract.ID, found.ID)
	})

	t.Run("company scoping enforced", func(t *testing.T) {
		_, err := repo.FindByIDForCompany(ctx, uuid.New(), contract.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list for client", func(t *testing.T) {
		contracts, total, err := repo.FindAllForClient(ctx, contract.ClientID, rental.NewContractFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, contracts, 1)
	})
}
