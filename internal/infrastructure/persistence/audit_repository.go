package persistence

import (
	"context"

	"github.com/fleetrent/backend/internal/domain/audit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Save appends a record to the trail
func (r *GormAuditRepository) Save(ctx context.Context, record *audit.Record) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindAll returns records matching the filter, newest first
func (r *GormAuditRepository) FindAll(ctx context.Context, filter audit.Filter) ([]*audit.Record, int64, error) {
	query := r.db.WithContext(ctx).Model(&audit.Record{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []*audit.Record
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// DeleteForCompany wipes the trail of a single company
func (r *GormAuditRepository) DeleteForCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Delete(&audit.Record{})
	return result.RowsAffected, result.Error
}

// DeleteAll wipes the entire trail
func (r *GormAuditRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&audit.Record{})
	return result.RowsAffected, result.Error
}

var _ audit.Repository = (*GormAuditRepository)(nil)
