package rental

import (
	"context"

	appaudit "github.com/fleetrent/backend/internal/application/audit"
	"github.com/fleetrent/backend/internal/application/authz"
	"github.com/fleetrent/backend/internal/domain/fleet"
	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService handles client booking requests and the company-side
// booking queue
type BookingService struct {
	bookingRepo rental.BookingRepository
	vehicleRepo fleet.VehicleRepository
	recorder    *appaudit.Recorder
	logger      *zap.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo rental.BookingRepository,
	vehicleRepo fleet.VehicleRepository,
	recorder *appaudit.Recorder,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		vehicleRepo: vehicleRepo,
		recorder:    recorder,
		logger:      logger,
	}
}

// Create places a pending booking for the calling client
func (s *BookingService) Create(ctx context.Context, grant *authz.Grant, input CreateBookingInput) (*rental.Booking, error) {
	if grant.Scope.Role != identity.RoleClient {
		return nil, authz.ErrForbidden
	}

	vehicle, err := s.vehicleRepo.FindByID(ctx, input.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.IsAvailable() {
		return nil, shared.ErrVehicleUnavailable
	}

	booking, err := rental.NewBooking(vehicle.CompanyID, grant.Principal, vehicle.ID, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("vehicle_id", vehicle.ID.String()))

	s.recorder.Record(ctx, grant.Scope, "booking.create",
		appaudit.WithEntity("booking", booking.ID))
	return booking, nil
}

// Confirm moves a pending booking to confirmed (company staff)
func (s *BookingService) Confirm(ctx context.Context, grant *authz.Grant, bookingID uuid.UUID) (*rental.Booking, error) {
	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, authz.ErrForbidden
	}

	booking, err := s.bookingRepo.FindByIDForCompany(ctx, companyID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Confirm(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, grant.Scope, "booking.confirm",
		appaudit.WithEntity("booking", booking.ID))
	return booking, nil
}

// Cancel cancels an open booking. Clients may cancel their own;
// company staff may cancel any booking of their company.
func (s *BookingService) Cancel(ctx context.Context, grant *authz.Grant, bookingID uuid.UUID) (*rental.Booking, error) {
	var booking *rental.Booking
	var err error

	if grant.Scope.Role == identity.RoleClient {
		booking, err = s.bookingRepo.FindByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if booking.ClientID != grant.Principal {
			return nil, shared.ErrNotFound
		}
	} else {
		companyID, scopeErr := grant.Scope.RequireCompany()
		if scopeErr != nil {
			return nil, authz.ErrForbidden
		}
		booking, err = s.bookingRepo.FindByIDForCompany(ctx, companyID, bookingID)
		if err != nil {
			return nil, err
		}
	}

	if err := booking.Cancel(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, grant.Scope, "booking.cancel",
		appaudit.WithEntity("booking", booking.ID))
	return booking, nil
}

// List returns the bookings visible to the grant
func (s *BookingService) List(ctx context.Context, grant *authz.Grant, filter rental.BookingFilter) ([]*rental.Booking, int64, error) {
	if grant.Scope.Role == identity.RoleClient {
		return s.bookingRepo.FindAllForClient(ctx, grant.Principal, filter)
	}

	companyID, err := grant.Scope.RequireCompany()
	if err != nil {
		return nil, 0, authz.ErrForbidden
	}
	return s.bookingRepo.FindAllForCompany(ctx, companyID, filter)
}
