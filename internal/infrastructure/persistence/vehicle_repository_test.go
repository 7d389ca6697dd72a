package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockVehicleRepo creates a repository backed by sqlmock for
// optimistic-locking tests
func newMockVehicleRepo(t *testing.T) (*GormVehicleRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormVehicleRepository(gormDB), mock, mockDB
}

func newTestVehicle(t *testing.T) *fleet.Vehicle {
	t.Helper()
	vehicle, err := fleet.NewVehicle(uuid.New(), "Ford", "Transit", "VN-482-CD", 2021, decimal.NewFromInt(80))
	require.NoError(t, err)
	return vehicle
}

func TestGormVehicleRepository_SaveWithLock(t *testing.T) {
	t.Run("swaps version when pinned token matches", func(t *testing.T) {
		repo, mock, mockDB := newMockVehicleRepo(t)
		defer mockDB.Close()

		vehicle := newTestVehicle(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "company_cars"`).
			WithArgs(vehicle.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
		mock.ExpectExec(`UPDATE "company_cars" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SaveWithLock(context.Background(), vehicle, fleet.VersionOf(3))

		require.NoError(t, err)
		assert.Equal(t, 4, vehicle.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pinned token behind stored version is rejected before the update", func(t *testing.T) {
		repo, mock, mockDB := newMockVehicleRepo(t)
		defer mockDB.Close()

		vehicle := newTestVehicle(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "company_cars"`).
			WithArgs(vehicle.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), vehicle, fleet.VersionOf(3))

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost race surfaces as conflict when the update hits zero rows", func(t *testing.T) {
		repo, mock, mockDB := newMockVehicleRepo(t)
		defer mockDB.Close()

		vehicle := newTestVehicle(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "company_cars"`).
			WithArgs(vehicle.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
		mock.ExpectExec(`UPDATE "company_cars" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), vehicle, fleet.VersionOf(3))

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row reported as not found", func(t *testing.T) {
		repo, mock, mockDB := newMockVehicleRepo(t)
		defer mockDB.Close()

		vehicle := newTestVehicle(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "company_cars"`).
			WithArgs(vehicle.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), vehicle, fleet.AnyVersion())

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormVehicleRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("create and fetch scoped to company", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormVehicleRepository(db)

		vehicle := newTestVehicle(t)
		vehicle.CompanyID = companyID
		require.NoError(t, repo.Create(ctx, vehicle))

		found, err := repo.FindByIDForCompany(ctx, companyID, vehicle.ID)
		require.NoError(t, err)
		assert.Equal(t, "VN-482-CD", found.LicensePlate)

		_, err = repo.FindByIDForCompany(ctx, uuid.New(), vehicle.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list filters by status and keyword", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormVehicleRepository(db)

		available := seedVehicle(t, db, companyID)
		rented := newTestVehicle(t)
		rented.CompanyID = companyID
		require.NoError(t, rented.MarkRented())
		require.NoError(t, repo.Create(ctx, rented))

		filter := fleet.NewVehicleFilter()
		status := fleet.VehicleStatusAvailable
		filter.Status = &status
		vehicles, total, err := repo.FindAllForCompany(ctx, companyID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, vehicles, 1)
		assert.Equal(t, available.ID, vehicles[0].ID)

		filter = fleet.NewVehicleFilter()
		filter.Keyword = "Transit"
		vehicles, total, err = repo.FindAllForCompany(ctx, companyID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, vehicles, 1)
		assert.Equal(t, rented.ID, vehicles[0].ID)
	})

	t.Run("delete missing vehicle reports not found", func(t *testing.T) {
		db := setupRentalTestDB(t)
		repo := NewGormVehicleRepository(db)

		err := repo.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
