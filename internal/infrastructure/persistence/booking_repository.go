package persistence

import (
	"context"
	"errors"

	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBookingRepository implements rental.BookingRepository using GORM
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// Create creates a new booking
func (r *GormBookingRepository) Create(ctx context.Context, booking *rental.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// Update updates an existing booking
func (r *GormBookingRepository) Update(ctx context.Context, booking *rental.Booking) error {
	result := r.db.WithContext(ctx).Save(booking)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a booking by ID
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*rental.Booking, error) {
	var booking rental.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// FindByIDForCompany finds a booking scoped to a company
func (r *GormBookingRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*rental.Booking, error) {
	var booking rental.Booking
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// FindAllForCompany lists a company's bookings with pagination
func (r *GormBookingRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter rental.BookingFilter) ([]*rental.Booking, int64, error) {
	return r.findAll(r.db.WithContext(ctx).Model(&rental.Booking{}).Where("company_id = ?", companyID), filter)
}

// FindAllForClient lists a client's own bookings with pagination
func (r *GormBookingRepository) FindAllForClient(ctx context.Context, clientID uuid.UUID, filter rental.BookingFilter) ([]*rental.Booking, int64, error) {
	return r.findAll(r.db.WithContext(ctx).Model(&rental.Booking{}).Where("client_id = ?", clientID), filter)
}

func (r *GormBookingRepository) findAll(query *gorm.DB, filter rental.BookingFilter) ([]*rental.Booking, int64, error) {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []*rental.Booking
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

var _ rental.BookingRepository = (*GormBookingRepository)(nil)
