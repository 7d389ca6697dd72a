package persistence

import (
	"context"
	"errors"

	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements rental.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create creates a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *rental.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// Update updates an existing payment
func (r *GormPaymentRepository) Update(ctx context.Context, payment *rental.Payment) error {
	result := r.db.WithContext(ctx).Save(payment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*rental.Payment, error) {
	var payment rental.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindByContractID lists all payments attached to a contract
func (r *GormPaymentRepository) FindByContractID(ctx context.Context, contractID uuid.UUID) ([]*rental.Payment, error) {
	var payments []*rental.Payment
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

var _ rental.PaymentRepository = (*GormPaymentRepository)(nil)
