package rental

import (
	"context"
	"testing"
	"time"

	appaudit "github.com/fleetrent/backend/internal/application/audit"
	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type bookingFixture struct {
	bookings *MockBookingRepository
	vehicles *MockVehicleRepository
	trail    *memoryAuditRepo
	service  *BookingService
}

func newBookingFixture() *bookingFixture {
	f := &bookingFixture{
		bookings: new(MockBookingRepository),
		vehicles: new(MockVehicleRepository),
		trail:    &memoryAuditRepo{},
	}
	recorder := appaudit.NewRecorder(f.trail, zap.NewNop())
	f.service = NewBookingService(f.bookings, f.vehicles, recorder, zap.NewNop())
	return f
}

func clientGrant() *authz.Grant {
	clientID := uuid.New()
	return &authz.Grant{
		Principal: clientID,
		Scope:     identity.NewUserScope(clientID, identity.RoleClient),
	}
}

func bookingDates() (time.Time, time.Time) {
	start := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 3)
}

func TestBookingService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("client books an available vehicle", func(t *testing.T) {
		f := newBookingFixture()
		grant := clientGrant()
		vehicle := fixtureVehicle(t, companyID)

		f.vehicles.On("FindByID", ctx, vehicle.ID).Return(vehicle, nil)
		f.bookings.On("Create", ctx, mock.AnythingOfType("*rental.Booking")).Return(nil)

		start, end := bookingDates()
		booking, err := f.service.Create(ctx, grant, CreateBookingInput{
			VehicleID: vehicle.ID,
			StartDate: start,
			EndDate:   end,
		})

		require.NoError(t, err)
		assert.Equal(t, rental.BookingStatusPending, booking.Status)
		assert.Equal(t, companyID, booking.CompanyID)
		assert.Equal(t, grant.Principal, booking.ClientID)
		require.Len(t, f.trail.records, 1)
		assert.Equal(t, "booking.create", f.trail.records[0].Action)
	})

	t.Run("rented vehicle cannot be booked", func(t *testing.T) {
		f := newBookingFixture()
		grant := clientGrant()
		vehicle := fixtureVehicle(t, companyID)
		require.NoError(t, vehicle.MarkRented())

		f.vehicles.On("FindByID", ctx, vehicle.ID).Return(vehicle, nil)

		start, end := bookingDates()
		_, err := f.service.Create(ctx, grant, CreateBookingInput{
			VehicleID: vehicle.ID,
			StartDate: start,
			EndDate:   end,
		})

		assert.ErrorIs(t, err, shared.ErrVehicleUnavailable)
		f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("staff cannot book on behalf of clients", func(t *testing.T) {
		f := newBookingFixture()
		grant := ownerGrant(companyID)

		start, end := bookingDates()
		_, err := f.service.Create(ctx, grant, CreateBookingInput{
			VehicleID: uuid.New(),
			StartDate: start,
			EndDate:   end,
		})

		assert.ErrorIs(t, err, authz.ErrForbidden)
	})
}

func TestBookingService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	newPendingBooking := func(t *testing.T, clientID uuid.UUID) *rental.Booking {
		t.Helper()
		start, end := bookingDates()
		booking, err := rental.NewBooking(companyID, clientID, uuid.New(), start, end)
		require.NoError(t, err)
		return booking
	}

	t.Run("staff confirm a pending booking", func(t *testing.T) {
		f := newBookingFixture()
		grant := ownerGrant(companyID)
		booking := newPendingBooking(t, uuid.New())

		f.bookings.On("FindByIDForCompany", ctx, companyID, booking.ID).Return(booking, nil)
		f.bookings.On("Update", ctx, booking).Return(nil)

		confirmed, err := f.service.Confirm(ctx, grant, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, rental.BookingStatusConfirmed, confirmed.Status)
	})

	t.Run("client cancels their own booking only", func(t *testing.T) {
		f := newBookingFixture()
		grant := clientGrant()
		own := newPendingBooking(t, grant.Principal)
		other := newPendingBooking(t, uuid.New())

		f.bookings.On("FindByID", ctx, own.ID).Return(own, nil)
		f.bookings.On("FindByID", ctx, other.ID).Return(other, nil)
		f.bookings.On("Update", ctx, own).Return(nil)

		cancelled, err := f.service.Cancel(ctx, grant, own.ID)
		require.NoError(t, err)
		assert.Equal(t, rental.BookingStatusCancelled, cancelled.Status)

		_, err = f.service.Cancel(ctx, grant, other.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("fulfilled booking cannot be cancelled", func(t *testing.T) {
		f := newBookingFixture()
		grant := ownerGrant(companyID)
		booking := newPendingBooking(t, uuid.New())
		require.NoError(t, booking.Fulfill())

		f.bookings.On("FindByIDForCompany", ctx, companyID, booking.ID).Return(booking, nil)

		_, err := f.service.Cancel(ctx, grant, booking.ID)
		require.Error(t, err)
		f.bookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
